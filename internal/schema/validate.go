package schema

import (
	"errors"
	"fmt"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// ValidationError reports one attribute payload that does not conform to
// the profile.
type ValidationError struct {
	Subject    ops.SubjectKind
	DomainType string
	Attribute  string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s type %q: attribute %q: %s",
			e.Subject, e.DomainType, e.Attribute, e.Message)
	}
	return fmt.Sprintf("%s type %q: %s", e.Subject, e.DomainType, e.Message)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ValidateOperation checks one operation against the profile. Only
// SetAttributes carries typed payloads; every other kind passes
// unconditionally.
func (p *Profile) ValidateOperation(op ops.Operation) error {
	set, ok := op.(ops.SetAttributes)
	if !ok {
		return nil
	}

	var types map[string]DomainType
	switch set.Subject {
	case ops.SubjectAgent:
		types = p.Agents
	case ops.SubjectActivity:
		types = p.Activities
	case ops.SubjectEntity:
		types = p.Entities
	default:
		return &ValidationError{
			Subject: set.Subject,
			Message: "unknown subject kind",
		}
	}

	dt, ok := types[string(set.DomainType)]
	if !ok {
		return &ValidationError{
			Subject:    set.Subject,
			DomainType: string(set.DomainType),
			Message:    "domain type is not declared in the profile",
		}
	}

	for _, key := range set.Attributes.SortedKeys() {
		declared, ok := dt.Fields[key]
		if !ok {
			return &ValidationError{
				Subject:    set.Subject,
				DomainType: dt.Name,
				Attribute:  key,
				Message:    "attribute is not declared on the domain type",
			}
		}

		got, err := valueKind(set.Attributes[key].Value)
		if err != nil {
			return &ValidationError{
				Subject:    set.Subject,
				DomainType: dt.Name,
				Attribute:  key,
				Message:    err.Error(),
			}
		}
		if got != declared {
			return &ValidationError{
				Subject:    set.Subject,
				DomainType: dt.Name,
				Attribute:  key,
				Message:    fmt.Sprintf("value kind %s does not match declared %s", got, declared),
			}
		}
	}

	return nil
}

// Validate checks a whole batch, returning the first non-conforming
// operation's error annotated with its position.
func (p *Profile) Validate(operations []ops.Operation) error {
	for i, op := range operations {
		if err := p.ValidateOperation(op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Kind(), err)
		}
	}
	return nil
}

// valueKind maps an attribute value to its field kind.
func valueKind(v prov.Value) (FieldKind, error) {
	switch v.(type) {
	case prov.StringValue:
		return FieldString, nil
	case prov.IntValue:
		return FieldInt, nil
	case prov.BoolValue:
		return FieldBool, nil
	case prov.ArrayValue:
		return FieldArray, nil
	case prov.ObjectValue:
		return FieldObject, nil
	default:
		return "", fmt.Errorf("value has no declarable kind (%T)", v)
	}
}
