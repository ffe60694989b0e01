package ops

import (
	"time"

	"github.com/provenant/provenant/internal/prov"
)

// Kind names an operation variant. The serialized names are part of the
// stored log format and must never change.
type Kind string

// The closed operation set.
const (
	KindCreateNamespace     Kind = "create_namespace"
	KindAgentExists         Kind = "agent_exists"
	KindActivityExists      Kind = "activity_exists"
	KindEntityExists        Kind = "entity_exists"
	KindStartActivity       Kind = "start_activity"
	KindEndActivity         Kind = "end_activity"
	KindActivityUses        Kind = "activity_uses"
	KindWasGeneratedBy      Kind = "was_generated_by"
	KindWasInformedBy       Kind = "was_informed_by"
	KindAgentActsOnBehalfOf Kind = "agent_acts_on_behalf_of"
	KindWasAssociatedWith   Kind = "was_associated_with"
	KindWasAttributedTo     Kind = "was_attributed_to"
	KindEntityDerive        Kind = "entity_derive"
	KindAgentHasIdentity    Kind = "agent_has_identity"
	KindSetAttributes       Kind = "set_attributes"
)

// Kinds lists every operation kind in serialization order. Exhaustiveness
// tests iterate it.
var Kinds = []Kind{
	KindCreateNamespace,
	KindAgentExists,
	KindActivityExists,
	KindEntityExists,
	KindStartActivity,
	KindEndActivity,
	KindActivityUses,
	KindWasGeneratedBy,
	KindWasInformedBy,
	KindAgentActsOnBehalfOf,
	KindWasAssociatedWith,
	KindWasAttributedTo,
	KindEntityDerive,
	KindAgentHasIdentity,
	KindSetAttributes,
}

// Operation is the sealed interface over the closed set of atomic
// provenance fact variants.
type Operation interface {
	operation() // Sealed - only the types in this file implement it

	// Kind returns the stable serialized name of the variant.
	Kind() Kind

	// Dependencies returns the state addresses the operation reads or
	// writes. Pure and total: computed from field values alone, each
	// mentioned resource exactly once.
	Dependencies() []Address
}

// CreateNamespace records that a namespace exists. Idempotent: re-creating
// with the same id is a no-op.
type CreateNamespace struct {
	ID prov.NamespaceID
}

func (CreateNamespace) operation() {}

// Kind implements Operation.
func (CreateNamespace) Kind() Kind { return KindCreateNamespace }

// AgentExists asserts that an agent exists in a namespace.
type AgentExists struct {
	Namespace prov.NamespaceID
	ID        prov.AgentID
}

func (AgentExists) operation() {}

// Kind implements Operation.
func (AgentExists) Kind() Kind { return KindAgentExists }

// ActivityExists asserts that an activity exists in a namespace.
type ActivityExists struct {
	Namespace prov.NamespaceID
	ID        prov.ActivityID
}

func (ActivityExists) operation() {}

// Kind implements Operation.
func (ActivityExists) Kind() Kind { return KindActivityExists }

// EntityExists asserts that an entity exists in a namespace.
type EntityExists struct {
	Namespace prov.NamespaceID
	ID        prov.EntityID
}

func (EntityExists) operation() {}

// Kind implements Operation.
func (EntityExists) Kind() Kind { return KindEntityExists }

// StartActivity records when an activity started.
type StartActivity struct {
	Namespace prov.NamespaceID
	ID        prov.ActivityID
	Time      time.Time
}

func (StartActivity) operation() {}

// Kind implements Operation.
func (StartActivity) Kind() Kind { return KindStartActivity }

// EndActivity records when an activity ended.
type EndActivity struct {
	Namespace prov.NamespaceID
	ID        prov.ActivityID
	Time      time.Time
}

func (EndActivity) operation() {}

// Kind implements Operation.
func (EndActivity) Kind() Kind { return KindEndActivity }

// ActivityUses records that an activity used an entity.
type ActivityUses struct {
	Namespace prov.NamespaceID
	Activity  prov.ActivityID
	Entity    prov.EntityID
}

func (ActivityUses) operation() {}

// Kind implements Operation.
func (ActivityUses) Kind() Kind { return KindActivityUses }

// WasGeneratedBy records that an activity generated an entity.
type WasGeneratedBy struct {
	Namespace prov.NamespaceID
	Activity  prov.ActivityID
	Entity    prov.EntityID
}

func (WasGeneratedBy) operation() {}

// Kind implements Operation.
func (WasGeneratedBy) Kind() Kind { return KindWasGeneratedBy }

// WasInformedBy records that an activity was informed by another activity.
type WasInformedBy struct {
	Namespace prov.NamespaceID
	Activity  prov.ActivityID
	Informing prov.ActivityID
}

func (WasInformedBy) operation() {}

// Kind implements Operation.
func (WasInformedBy) Kind() Kind { return KindWasInformedBy }

// AgentActsOnBehalfOf records a delegation from a responsible agent to a
// delegate, optionally scoped to an activity and role.
type AgentActsOnBehalfOf struct {
	Namespace   prov.NamespaceID
	Delegate    prov.AgentID
	Responsible prov.AgentID
	Activity    prov.ActivityID // optional; empty means unscoped
	Role        prov.Role       // optional
}

func (AgentActsOnBehalfOf) operation() {}

// Kind implements Operation.
func (AgentActsOnBehalfOf) Kind() Kind { return KindAgentActsOnBehalfOf }

// WasAssociatedWith records that an activity was associated with an agent.
type WasAssociatedWith struct {
	Namespace prov.NamespaceID
	Activity  prov.ActivityID
	Agent     prov.AgentID
	Role      prov.Role // optional
}

func (WasAssociatedWith) operation() {}

// Kind implements Operation.
func (WasAssociatedWith) Kind() Kind { return KindWasAssociatedWith }

// WasAttributedTo records that an entity was attributed to an agent.
type WasAttributedTo struct {
	Namespace prov.NamespaceID
	Entity    prov.EntityID
	Agent     prov.AgentID
	Role      prov.Role // optional
}

func (WasAttributedTo) operation() {}

// Kind implements Operation.
func (WasAttributedTo) Kind() Kind { return KindWasAttributedTo }

// EntityDerive records that a generated entity was derived from a used
// entity, optionally through an activity, with a typed kind.
type EntityDerive struct {
	Namespace prov.NamespaceID
	Generated prov.EntityID
	Used      prov.EntityID
	Activity  prov.ActivityID // optional; empty means no known activity
	Derivation prov.DerivationKind
}

func (EntityDerive) operation() {}

// Kind implements Operation.
func (EntityDerive) Kind() Kind { return KindEntityDerive }

// AgentHasIdentity records the agent's current public-key identity. Any
// previous current identity moves to the agent's historical set.
type AgentHasIdentity struct {
	Namespace prov.NamespaceID
	Agent     prov.AgentID
	Identity  prov.IdentityID
}

func (AgentHasIdentity) operation() {}

// Kind implements Operation.
func (AgentHasIdentity) Kind() Kind { return KindAgentHasIdentity }

// SubjectKind selects which resource kind a SetAttributes operation
// targets.
type SubjectKind string

// SetAttributes subject kinds.
const (
	SubjectAgent    SubjectKind = "agent"
	SubjectActivity SubjectKind = "activity"
	SubjectEntity   SubjectKind = "entity"
)

// SetAttributes sets the domain type and typed attributes of an agent,
// activity, or entity. Changing the value of an already-set attribute key
// is a contradiction.
type SetAttributes struct {
	Namespace  prov.NamespaceID
	Subject    SubjectKind
	ID         prov.ExternalID
	DomainType prov.DomainTypeID
	Attributes prov.Attributes
}

func (SetAttributes) operation() {}

// Kind implements Operation.
func (SetAttributes) Kind() Kind { return KindSetAttributes }
