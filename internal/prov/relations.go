package prov

import (
	"fmt"
	"slices"
	"strings"
)

// comparer is the constraint shared by all relation records: a total order
// over the full structural content of the record.
type comparer[T any] interface {
	Compare(T) int
}

// insertRelation inserts v into an ordered relation set, keeping the set
// sorted and free of duplicates. Re-inserting an identical relation returns
// the set unchanged.
func insertRelation[T comparer[T]](set []T, v T) []T {
	i, found := slices.BinarySearchFunc(set, v, func(a, b T) int { return a.Compare(b) })
	if found {
		return set
	}
	return slices.Insert(set, i, v)
}

// containsRelation reports whether v is already present in an ordered set.
func containsRelation[T comparer[T]](set []T, v T) bool {
	_, found := slices.BinarySearchFunc(set, v, func(a, b T) int { return a.Compare(b) })
	return found
}

// compareChain folds successive comparison results: the first non-zero
// result wins.
func compareChain(results ...int) int {
	for _, r := range results {
		if r != 0 {
			return r
		}
	}
	return 0
}

// Association records that an activity was associated with an agent,
// optionally in a role.
type Association struct {
	Namespace NamespaceID
	Activity  ActivityID
	Agent     AgentID
	Role      Role
}

// Compare orders associations by full structural content.
func (a Association) Compare(b Association) int {
	return compareChain(
		a.Namespace.Compare(b.Namespace),
		strings.Compare(string(a.Activity), string(b.Activity)),
		strings.Compare(string(a.Agent), string(b.Agent)),
		strings.Compare(string(a.Role), string(b.Role)),
	)
}

// Attribution records that an entity was attributed to an agent,
// optionally in a role.
type Attribution struct {
	Namespace NamespaceID
	Entity    EntityID
	Agent     AgentID
	Role      Role
}

// Compare orders attributions by full structural content.
func (a Attribution) Compare(b Attribution) int {
	return compareChain(
		a.Namespace.Compare(b.Namespace),
		strings.Compare(string(a.Entity), string(b.Entity)),
		strings.Compare(string(a.Agent), string(b.Agent)),
		strings.Compare(string(a.Role), string(b.Role)),
	)
}

// Delegation records that a delegate agent acted on behalf of a responsible
// agent, optionally scoped to an activity and a role. An empty Activity
// means the delegation is not activity-scoped.
type Delegation struct {
	Namespace   NamespaceID
	Delegate    AgentID
	Responsible AgentID
	Activity    ActivityID
	Role        Role
}

// Compare orders delegations by full structural content.
func (d Delegation) Compare(b Delegation) int {
	return compareChain(
		d.Namespace.Compare(b.Namespace),
		strings.Compare(string(d.Delegate), string(b.Delegate)),
		strings.Compare(string(d.Responsible), string(b.Responsible)),
		strings.Compare(string(d.Activity), string(b.Activity)),
		strings.Compare(string(d.Role), string(b.Role)),
	)
}

// DerivationKind classifies an entity-derived-from-entity relation.
type DerivationKind int

// Derivation kinds. The zero value is the plain, untyped derivation.
const (
	KindNone DerivationKind = iota
	KindRevision
	KindQuotation
	KindPrimarySource
)

// String returns the stable serialized name of the kind.
func (k DerivationKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRevision:
		return "revision"
	case KindQuotation:
		return "quotation"
	case KindPrimarySource:
		return "primary-source"
	default:
		return fmt.Sprintf("derivation-kind(%d)", int(k))
	}
}

// ParseDerivationKind parses a serialized derivation kind name.
func ParseDerivationKind(s string) (DerivationKind, error) {
	switch s {
	case "none", "":
		return KindNone, nil
	case "revision":
		return KindRevision, nil
	case "quotation":
		return KindQuotation, nil
	case "primary-source":
		return KindPrimarySource, nil
	default:
		return KindNone, fmt.Errorf("unknown derivation kind %q", s)
	}
}

// Derivation records that a generated entity was derived from a used
// entity, optionally through an activity, with a typed kind.
type Derivation struct {
	Namespace NamespaceID
	Generated EntityID
	Used      EntityID
	Activity  ActivityID
	Kind      DerivationKind
}

// Compare orders derivations by full structural content.
func (d Derivation) Compare(b Derivation) int {
	return compareChain(
		d.Namespace.Compare(b.Namespace),
		strings.Compare(string(d.Generated), string(b.Generated)),
		strings.Compare(string(d.Used), string(b.Used)),
		strings.Compare(string(d.Activity), string(b.Activity)),
		int(d.Kind)-int(b.Kind),
	)
}

// Generation records that an activity generated an entity.
type Generation struct {
	Namespace NamespaceID
	Activity  ActivityID
	Entity    EntityID
}

// Compare orders generations by full structural content.
func (g Generation) Compare(b Generation) int {
	return compareChain(
		g.Namespace.Compare(b.Namespace),
		strings.Compare(string(g.Activity), string(b.Activity)),
		strings.Compare(string(g.Entity), string(b.Entity)),
	)
}

// Usage records that an activity used an entity.
type Usage struct {
	Namespace NamespaceID
	Activity  ActivityID
	Entity    EntityID
}

// Compare orders usages by full structural content.
func (u Usage) Compare(b Usage) int {
	return compareChain(
		u.Namespace.Compare(b.Namespace),
		strings.Compare(string(u.Activity), string(b.Activity)),
		strings.Compare(string(u.Entity), string(b.Entity)),
	)
}

// Communication records that an activity was informed by another activity.
type Communication struct {
	Namespace NamespaceID
	Activity  ActivityID // the informed activity
	Informing ActivityID // the activity it was informed by
}

// Compare orders communications by full structural content.
func (c Communication) Compare(b Communication) int {
	return compareChain(
		c.Namespace.Compare(b.Namespace),
		strings.Compare(string(c.Activity), string(b.Activity)),
		strings.Compare(string(c.Informing), string(b.Informing)),
	)
}
