package harness

import (
	"time"

	"github.com/provenant/provenant/internal/prov"
)

// resourceView is the common slice of a record the assertions compare.
type resourceView struct {
	exists     bool
	domainType prov.DomainTypeID
	attributes prov.Attributes
	started    *time.Time
	ended      *time.Time
}

// evaluateFinalState checks every final-state assertion against the
// replayed model, accumulating failures into the result.
func evaluateFinalState(result *Result, m *prov.Model, ns prov.NamespaceID, assertions []StateAssertion) {
	for _, a := range assertions {
		view := lookupResource(m, ns, a)

		wantExists := true
		if a.Exists != nil {
			wantExists = *a.Exists
		}
		if view.exists != wantExists {
			result.AddError("final_state %s %q: exists = %v, want %v",
				a.Subject, a.ID, view.exists, wantExists)
			continue
		}
		if !view.exists {
			continue
		}

		if a.DomainType != "" && string(view.domainType) != a.DomainType {
			result.AddError("final_state %s %q: domain_type = %q, want %q",
				a.Subject, a.ID, view.domainType, a.DomainType)
		}

		for name, want := range a.Attributes {
			got, ok := view.attributes[name]
			if !ok {
				result.AddError("final_state %s %q: attribute %q is not set",
					a.Subject, a.ID, name)
				continue
			}
			wantValue, err := prov.ToValue(want.Value)
			if err != nil {
				result.AddError("final_state %s %q: attribute %q: %v",
					a.Subject, a.ID, name, err)
				continue
			}
			expected := prov.Attribute{Type: want.Type, Value: wantValue}
			if !got.Equal(expected) {
				result.AddError("final_state %s %q: attribute %q = {%s %v}, want {%s %v}",
					a.Subject, a.ID, name, got.Type, got.Value, want.Type, want.Value)
			}
		}

		checkTime(result, a, "started", a.Started, view.started)
		checkTime(result, a, "ended", a.Ended, view.ended)
	}
}

func lookupResource(m *prov.Model, ns prov.NamespaceID, a StateAssertion) resourceView {
	switch a.Subject {
	case "agent":
		if agent, ok := m.Agents[prov.AgentKey{Namespace: ns, ID: prov.AgentID(a.ID)}]; ok {
			return resourceView{exists: true, domainType: agent.DomainType, attributes: agent.Attributes}
		}
	case "activity":
		if act, ok := m.Activities[prov.ActivityKey{Namespace: ns, ID: prov.ActivityID(a.ID)}]; ok {
			return resourceView{
				exists:     true,
				domainType: act.DomainType,
				attributes: act.Attributes,
				started:    act.Started,
				ended:      act.Ended,
			}
		}
	case "entity":
		if ent, ok := m.Entities[prov.EntityKey{Namespace: ns, ID: prov.EntityID(a.ID)}]; ok {
			return resourceView{exists: true, domainType: ent.DomainType, attributes: ent.Attributes}
		}
	}
	return resourceView{}
}

func checkTime(result *Result, a StateAssertion, field, want string, got *time.Time) {
	if want == "" {
		return
	}
	expected, err := time.Parse(time.RFC3339, want)
	if err != nil {
		result.AddError("final_state %s %q: %s: bad timestamp %q: %v",
			a.Subject, a.ID, field, want, err)
		return
	}
	if got == nil {
		result.AddError("final_state %s %q: %s is not recorded, want %s",
			a.Subject, a.ID, field, want)
		return
	}
	if !got.Equal(expected) {
		result.AddError("final_state %s %q: %s = %s, want %s",
			a.Subject, a.ID, field, got.UTC().Format(time.RFC3339), want)
	}
}
