package ops

import (
	"fmt"

	"github.com/provenant/provenant/internal/prov"
)

// Apply folds one operation into the model. It returns a *Contradiction
// when the operation conflicts with already-recorded facts, and nil when
// the fact was recorded (or was already recorded - reapplication is a
// no-op).
//
// Contradiction checks run before the gated field is mutated, but the
// ensure-exists side effects of the operation still land first: a
// StartActivity that contradicts on time has still created the referenced
// activity stub. Callers validating a batch must treat the working model
// as discarded on error.
func Apply(m *prov.Model, op Operation) error {
	switch o := op.(type) {
	case CreateNamespace:
		m.EnsureNamespace(o.ID)
		return nil

	case AgentExists:
		m.EnsureNamespace(o.Namespace)
		m.EnsureAgent(o.Namespace, o.ID)
		return nil

	case ActivityExists:
		m.EnsureNamespace(o.Namespace)
		m.EnsureActivity(o.Namespace, o.ID)
		return nil

	case EntityExists:
		m.EnsureNamespace(o.Namespace)
		m.EnsureEntity(o.Namespace, o.ID)
		return nil

	case StartActivity:
		return applyStartActivity(m, o)

	case EndActivity:
		return applyEndActivity(m, o)

	case ActivityUses:
		m.EnsureNamespace(o.Namespace)
		m.EnsureActivity(o.Namespace, o.Activity)
		m.EnsureEntity(o.Namespace, o.Entity)
		m.AddUsage(prov.Usage{Namespace: o.Namespace, Activity: o.Activity, Entity: o.Entity})
		return nil

	case WasGeneratedBy:
		m.EnsureNamespace(o.Namespace)
		m.EnsureActivity(o.Namespace, o.Activity)
		m.EnsureEntity(o.Namespace, o.Entity)
		m.AddGeneration(prov.Generation{Namespace: o.Namespace, Activity: o.Activity, Entity: o.Entity})
		return nil

	case WasInformedBy:
		m.EnsureNamespace(o.Namespace)
		m.EnsureActivity(o.Namespace, o.Activity)
		m.EnsureActivity(o.Namespace, o.Informing)
		m.AddCommunication(prov.Communication{Namespace: o.Namespace, Activity: o.Activity, Informing: o.Informing})
		return nil

	case AgentActsOnBehalfOf:
		m.EnsureNamespace(o.Namespace)
		m.EnsureAgent(o.Namespace, o.Delegate)
		m.EnsureAgent(o.Namespace, o.Responsible)
		if o.Activity != "" {
			m.EnsureActivity(o.Namespace, o.Activity)
		}
		m.AddDelegation(prov.Delegation{
			Namespace:   o.Namespace,
			Delegate:    o.Delegate,
			Responsible: o.Responsible,
			Activity:    o.Activity,
			Role:        o.Role,
		})
		return nil

	case WasAssociatedWith:
		m.EnsureNamespace(o.Namespace)
		m.EnsureActivity(o.Namespace, o.Activity)
		m.EnsureAgent(o.Namespace, o.Agent)
		m.AddAssociation(prov.Association{
			Namespace: o.Namespace,
			Activity:  o.Activity,
			Agent:     o.Agent,
			Role:      o.Role,
		})
		return nil

	case WasAttributedTo:
		m.EnsureNamespace(o.Namespace)
		m.EnsureEntity(o.Namespace, o.Entity)
		m.EnsureAgent(o.Namespace, o.Agent)
		m.AddAttribution(prov.Attribution{
			Namespace: o.Namespace,
			Entity:    o.Entity,
			Agent:     o.Agent,
			Role:      o.Role,
		})
		return nil

	case EntityDerive:
		m.EnsureNamespace(o.Namespace)
		m.EnsureEntity(o.Namespace, o.Generated)
		m.EnsureEntity(o.Namespace, o.Used)
		if o.Activity != "" {
			m.EnsureActivity(o.Namespace, o.Activity)
		}
		m.AddDerivation(prov.Derivation{
			Namespace: o.Namespace,
			Generated: o.Generated,
			Used:      o.Used,
			Activity:  o.Activity,
			Kind:      o.Derivation,
		})
		return nil

	case AgentHasIdentity:
		m.EnsureNamespace(o.Namespace)
		m.EnsureAgent(o.Namespace, o.Agent)
		m.SetAgentIdentity(o.Namespace, o.Agent, o.Identity)
		return nil

	case SetAttributes:
		return applySetAttributes(m, o)

	default:
		// The sum type is sealed; reaching this means a new variant was
		// added without an Apply case.
		return fmt.Errorf("apply: unhandled operation kind %T", op)
	}
}

func applyStartActivity(m *prov.Model, o StartActivity) error {
	m.EnsureNamespace(o.Namespace)
	activity := m.EnsureActivity(o.Namespace, o.ID)

	t := o.Time.UTC()
	if activity.Started != nil && !activity.Started.Equal(t) {
		return newStartAlteration(o.Namespace, o.ID.IRI(), *activity.Started, t)
	}
	if activity.Ended != nil && t.After(*activity.Ended) {
		return newInvalidRange(o.Namespace, o.ID.IRI(), *activity.Ended, t)
	}
	activity.Started = &t
	return nil
}

func applyEndActivity(m *prov.Model, o EndActivity) error {
	m.EnsureNamespace(o.Namespace)
	activity := m.EnsureActivity(o.Namespace, o.ID)

	t := o.Time.UTC()
	if activity.Ended != nil && !activity.Ended.Equal(t) {
		return newEndAlteration(o.Namespace, o.ID.IRI(), *activity.Ended, t)
	}
	if activity.Started != nil && t.Before(*activity.Started) {
		return newInvalidRange(o.Namespace, o.ID.IRI(), *activity.Started, t)
	}
	activity.Ended = &t
	return nil
}

func applySetAttributes(m *prov.Model, o SetAttributes) error {
	m.EnsureNamespace(o.Namespace)

	var (
		resource prov.IRI
		existing prov.Attributes
	)
	switch o.Subject {
	case SubjectAgent:
		id := prov.AgentID(o.ID)
		resource = id.IRI()
		existing = m.EnsureAgent(o.Namespace, id).Attributes
	case SubjectActivity:
		id := prov.ActivityID(o.ID)
		resource = id.IRI()
		existing = m.EnsureActivity(o.Namespace, id).Attributes
	case SubjectEntity:
		id := prov.EntityID(o.ID)
		resource = id.IRI()
		existing = m.EnsureEntity(o.Namespace, id).Attributes
	default:
		return fmt.Errorf("apply: unknown set_attributes subject %q", o.Subject)
	}

	// Validate the whole incoming map before mutating anything, and
	// report every offending key in one contradiction.
	var conflicts []AttributeConflict
	for key, incoming := range o.Attributes {
		current, ok := existing[key]
		if ok && !current.Equal(incoming) {
			conflicts = append(conflicts, AttributeConflict{Key: key, Old: current, New: incoming})
		}
	}
	if len(conflicts) > 0 {
		return newAttributeContradiction(o.Namespace, resource, conflicts)
	}

	switch o.Subject {
	case SubjectAgent:
		m.SetAgentAttributes(o.Namespace, prov.AgentID(o.ID), o.DomainType, o.Attributes)
	case SubjectActivity:
		m.SetActivityAttributes(o.Namespace, prov.ActivityID(o.ID), o.DomainType, o.Attributes)
	case SubjectEntity:
		m.SetEntityAttributes(o.Namespace, prov.EntityID(o.ID), o.DomainType, o.Attributes)
	}
	return nil
}
