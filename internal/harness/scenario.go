package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/provenant/provenant/internal/prov"
)

// Scenario defines one conformance scenario: a namespace, transaction
// steps, and final-state assertions.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Namespace is the default namespace injected into every operation
	// that does not carry its own.
	Namespace NamespaceRef `yaml:"namespace"`

	// Steps are the transactions, submitted in order. Each step is one
	// atomic batch.
	Steps []Step `yaml:"steps"`

	// FinalState asserts on the replayed model after all steps ran.
	FinalState []StateAssertion `yaml:"final_state,omitempty"`
}

// NamespaceRef names a namespace in scenario YAML.
type NamespaceRef struct {
	External string `yaml:"external"`
	UUID     string `yaml:"uuid"`
}

// ToID converts the reference to a namespace id.
func (r NamespaceRef) ToID() (prov.NamespaceID, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return prov.NamespaceID{}, fmt.Errorf("namespace uuid %q: %w", r.UUID, err)
	}
	return prov.NewNamespaceID(prov.ExternalID(r.External), id), nil
}

// Step is one transaction: an operation batch plus its expected outcome.
type Step struct {
	// Name labels the step in traces and error messages.
	Name string `yaml:"name"`

	// Operations are tagged operation documents, the same format the
	// operation log uses (an "op" kind plus per-kind fields).
	Operations []map[string]any `yaml:"operations"`

	// Expect specifies the expected outcome. If nil, the step is assumed
	// to commit.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies a step's expected outcome.
type ExpectClause struct {
	// Status is "ok" or "contradiction".
	Status string `yaml:"status"`

	// Kind is the expected contradiction kind (e.g.
	// "START_DATE_ALTERATION"); only meaningful for contradictions.
	Kind string `yaml:"kind,omitempty"`

	// Dirty, if set, is the expected number of changed fragments.
	Dirty *int `yaml:"dirty,omitempty"`
}

// Expected statuses.
const (
	ExpectOK            = "ok"
	ExpectContradiction = "contradiction"
)

// StateAssertion checks one resource in the final replayed model.
// Subset semantics: only the fields a scenario spells out are compared.
type StateAssertion struct {
	// Subject is "agent", "activity", or "entity".
	Subject string `yaml:"subject"`

	// ID is the resource's external id.
	ID string `yaml:"id"`

	// Exists asserts presence (default true) or absence of the record.
	Exists *bool `yaml:"exists,omitempty"`

	// DomainType, if set, must match the record's domain type.
	DomainType string `yaml:"domain_type,omitempty"`

	// Attributes maps attribute name to {type, value}; subset match.
	Attributes map[string]AttributeRef `yaml:"attributes,omitempty"`

	// Started and Ended, if set, must match the activity's recorded
	// times (RFC 3339).
	Started string `yaml:"started,omitempty"`
	Ended   string `yaml:"ended,omitempty"`
}

// AttributeRef names an expected attribute in scenario YAML.
type AttributeRef struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, so typos fail loudly instead of silently skipping checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Namespace.External == "" || s.Namespace.UUID == "" {
		return fmt.Errorf("namespace.external and namespace.uuid are required")
	}
	if _, err := s.Namespace.ToID(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if len(step.Operations) == 0 {
			return fmt.Errorf("steps[%d]: operations list is required and must be non-empty", i)
		}
		if step.Expect != nil {
			switch step.Expect.Status {
			case ExpectOK:
				if step.Expect.Kind != "" {
					return fmt.Errorf("steps[%d].expect: kind is only valid for contradictions", i)
				}
			case ExpectContradiction:
			default:
				return fmt.Errorf("steps[%d].expect: status must be %q or %q", i, ExpectOK, ExpectContradiction)
			}
		}
	}

	for i, a := range s.FinalState {
		switch a.Subject {
		case "agent", "activity", "entity":
		default:
			return fmt.Errorf("final_state[%d]: subject must be agent, activity, or entity", i)
		}
		if a.ID == "" {
			return fmt.Errorf("final_state[%d]: id is required", i)
		}
		if a.Subject != "activity" && (a.Started != "" || a.Ended != "") {
			return fmt.Errorf("final_state[%d]: started/ended only apply to activities", i)
		}
	}

	return nil
}
