package ops

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/provenant/provenant/internal/prov"
)

// ContradictionKind categorizes contradictions.
type ContradictionKind string

// Contradiction kinds.
const (
	// KindAttributeValueChange indicates a SetAttributes operation tried to
	// change the value of an already-set attribute key.
	KindAttributeValueChange ContradictionKind = "ATTRIBUTE_VALUE_CHANGE"

	// KindStartDateAlteration indicates a StartActivity operation tried to
	// move an already-fixed start time.
	KindStartDateAlteration ContradictionKind = "START_DATE_ALTERATION"

	// KindEndDateAlteration indicates an EndActivity operation tried to
	// move an already-fixed end time.
	KindEndDateAlteration ContradictionKind = "END_DATE_ALTERATION"

	// KindInvalidRange indicates an operation would leave an activity with
	// started > ended.
	KindInvalidRange ContradictionKind = "INVALID_TIME_RANGE"
)

// AttributeConflict describes one offending attribute key in an
// attribute-value-change contradiction.
type AttributeConflict struct {
	Key string
	Old prov.Attribute
	New prov.Attribute
}

// Contradiction is a semantically meaningful conflict between an
// already-recorded fact and a newly submitted one. It always carries the
// affected resource id and its namespace; the kind-specific fields carry
// the conflicting old/new values.
//
// Contradictions are deterministic and local: the same operation replayed
// against the same prior state always produces the same contradiction.
// They are never silently resolved - the transaction processor propagates
// them to whatever notifies the submitter.
type Contradiction struct {
	Kind      ContradictionKind
	Namespace prov.NamespaceID
	Resource  prov.IRI

	// Conflicts lists every offending key for KindAttributeValueChange,
	// sorted by key. All conflicts in one operation are reported in one
	// error.
	Conflicts []AttributeConflict

	// OldTime and NewTime carry the conflicting times for the time kinds.
	OldTime *time.Time
	NewTime *time.Time
}

// Error implements the error interface.
func (c *Contradiction) Error() string {
	switch c.Kind {
	case KindAttributeValueChange:
		keys := make([]string, len(c.Conflicts))
		for i, conflict := range c.Conflicts {
			keys[i] = conflict.Key
		}
		return fmt.Sprintf("%s: attribute value(s) already set to a different value on %s (ns=%s): %s",
			c.Kind, c.Resource, c.Namespace.IRI(), strings.Join(keys, ", "))
	case KindStartDateAlteration:
		return fmt.Sprintf("%s: start of %s (ns=%s) already recorded as %s, cannot change to %s",
			c.Kind, c.Resource, c.Namespace.IRI(), formatTime(c.OldTime), formatTime(c.NewTime))
	case KindEndDateAlteration:
		return fmt.Sprintf("%s: end of %s (ns=%s) already recorded as %s, cannot change to %s",
			c.Kind, c.Resource, c.Namespace.IRI(), formatTime(c.OldTime), formatTime(c.NewTime))
	case KindInvalidRange:
		return fmt.Sprintf("%s: %s (ns=%s) would have started > ended (recorded=%s, proposed=%s)",
			c.Kind, c.Resource, c.Namespace.IRI(), formatTime(c.OldTime), formatTime(c.NewTime))
	default:
		return fmt.Sprintf("%s: contradiction on %s (ns=%s)", c.Kind, c.Resource, c.Namespace.IRI())
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "<unset>"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// IsContradiction reports whether err is (or wraps) a Contradiction.
func IsContradiction(err error) bool {
	var c *Contradiction
	return errors.As(err, &c)
}

// AsContradiction unwraps err to a Contradiction if possible.
func AsContradiction(err error) (*Contradiction, bool) {
	var c *Contradiction
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// newAttributeContradiction builds an attribute-value-change contradiction
// with conflicts sorted by key for deterministic reporting.
func newAttributeContradiction(ns prov.NamespaceID, resource prov.IRI, conflicts []AttributeConflict) *Contradiction {
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Key < conflicts[j].Key })
	return &Contradiction{
		Kind:      KindAttributeValueChange,
		Namespace: ns,
		Resource:  resource,
		Conflicts: conflicts,
	}
}

func newStartAlteration(ns prov.NamespaceID, resource prov.IRI, old, proposed time.Time) *Contradiction {
	o, n := old.UTC(), proposed.UTC()
	return &Contradiction{
		Kind:      KindStartDateAlteration,
		Namespace: ns,
		Resource:  resource,
		OldTime:   &o,
		NewTime:   &n,
	}
}

func newEndAlteration(ns prov.NamespaceID, resource prov.IRI, old, proposed time.Time) *Contradiction {
	o, n := old.UTC(), proposed.UTC()
	return &Contradiction{
		Kind:      KindEndDateAlteration,
		Namespace: ns,
		Resource:  resource,
		OldTime:   &o,
		NewTime:   &n,
	}
}

// newInvalidRange reports started > ended. For StartActivity, fixed is the
// recorded end and proposed the new start; for EndActivity, fixed is the
// recorded start and proposed the new end.
func newInvalidRange(ns prov.NamespaceID, resource prov.IRI, fixed, proposed time.Time) *Contradiction {
	f, p := fixed.UTC(), proposed.UTC()
	return &Contradiction{
		Kind:      KindInvalidRange,
		Namespace: ns,
		Resource:  resource,
		OldTime:   &f,
		NewTime:   &p,
	}
}
