package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// FieldKind is the declared kind of one attribute field.
type FieldKind string

// Attribute field kinds. Floats are forbidden: attribute values are
// canonical-JSON payloads, which carry no float representation.
const (
	FieldString FieldKind = "string"
	FieldInt    FieldKind = "int"
	FieldBool   FieldKind = "bool"
	FieldArray  FieldKind = "array"
	FieldObject FieldKind = "object"
)

// DomainType is one declared resource type: a name plus its typed
// attribute fields.
type DomainType struct {
	Name   string
	Fields map[string]FieldKind
}

// Profile is a compiled domain profile: the domain types declared for
// each resource kind, keyed by type name.
type Profile struct {
	Name       string
	Agents     map[string]DomainType
	Activities map[string]DomainType
	Entities   map[string]DomainType
}

// LoadProfile compiles CUE source and extracts the profile struct.
//
// The source declares a top-level `profile` value:
//
//	profile: {
//		name: "chemistry"
//		agent: person: { email: string }
//		entity: specimen: { label: string, volume: int }
//	}
func LoadProfile(source string) (*Profile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	profileVal := v.LookupPath(cue.ParsePath("profile"))
	if !profileVal.Exists() {
		return nil, &CompileError{
			Field:   "profile",
			Message: "profile is required",
			Pos:     v.Pos(),
		}
	}
	return CompileProfile(profileVal)
}

// CompileProfile parses a CUE value into a Profile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func CompileProfile(v cue.Value) (*Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Profile{
		Agents:     make(map[string]DomainType),
		Activities: make(map[string]DomainType),
		Entities:   make(map[string]DomainType),
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "profile name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Name = name

	sections := []struct {
		path string
		into map[string]DomainType
	}{
		{"agent", p.Agents},
		{"activity", p.Activities},
		{"entity", p.Entities},
	}
	for _, section := range sections {
		if err := parseDomainTypes(v, section.path, section.into); err != nil {
			return nil, err
		}
	}

	if len(p.Agents)+len(p.Activities)+len(p.Entities) == 0 {
		return nil, &CompileError{
			Field:   "profile",
			Message: "at least one domain type is required",
			Pos:     v.Pos(),
		}
	}

	return p, nil
}

// parseDomainTypes extracts one section (agent, activity, or entity) of
// domain type declarations. A missing section is fine.
func parseDomainTypes(v cue.Value, path string, into map[string]DomainType) error {
	sectionVal := v.LookupPath(cue.ParsePath(path))
	if !sectionVal.Exists() {
		return nil
	}

	iter, err := sectionVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		typeName := iter.Label()
		dt := DomainType{
			Name:   typeName,
			Fields: make(map[string]FieldKind),
		}

		fieldIter, err := iter.Value().Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for fieldIter.Next() {
			kind, err := extractFieldKind(fieldIter.Value())
			if err != nil {
				return err
			}
			dt.Fields[fieldIter.Label()] = kind
		}

		into[typeName] = dt
	}

	return nil
}

// extractFieldKind converts a CUE type to a FieldKind.
func extractFieldKind(v cue.Value) (FieldKind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return FieldString, nil
	case cue.IntKind:
		return FieldInt, nil
	case cue.BoolKind:
		return FieldBool, nil
	case cue.ListKind:
		return FieldArray, nil
	case cue.StructKind:
		return FieldObject, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden in attribute values - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a profile compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
