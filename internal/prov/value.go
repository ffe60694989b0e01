package prov

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing constrained attribute values.
// Only NullValue, StringValue, IntValue, BoolValue, ArrayValue, and
// ObjectValue implement it. There is deliberately no float variant:
// floats have no canonical byte representation, and attribute equality is
// the contradiction-detection primitive, so every value must serialize to
// exactly one byte sequence.
type Value interface {
	attrValue() // Sealed - only these types implement it
}

// NullValue represents a JSON null. It exists so stored data containing
// null can round-trip through decoding; canonical marshaling rejects it,
// which keeps null out of newly persisted state.
type NullValue struct{}

func (NullValue) attrValue() {}

// MarshalJSON implements json.Marshaler for NullValue.
func (NullValue) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// StringValue represents a string attribute value.
type StringValue string

func (StringValue) attrValue() {}

// IntValue represents an integer attribute value. Always int64.
type IntValue int64

func (IntValue) attrValue() {}

// BoolValue represents a boolean attribute value.
type BoolValue bool

func (BoolValue) attrValue() {}

// ArrayValue represents an ordered list of values.
type ArrayValue []Value

func (ArrayValue) attrValue() {}

// ObjectValue represents a map of string keys to values.
// Use SortedKeys for deterministic iteration.
type ObjectValue map[string]Value

func (ObjectValue) attrValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which produces a DIFFERENT order
// for some inputs; canonical serialization must not depend on it.
func (obj ObjectValue) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required by
// RFC 8785. unicode/utf16.Encode handles surrogate pairs correctly.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// ValueEqual reports structural equality of two values. It is total: it
// handles NullValue even though canonical marshaling rejects it, because
// contradiction detection must be able to compare anything decoding can
// produce.
func ValueEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av == bv
	case IntValue:
		bv, ok := b.(IntValue)
		return ok && av == bv
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av == bv
	case ArrayValue:
		bv, ok := b.(ArrayValue)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		bv, ok := b.(ObjectValue)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !ValueEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler for ObjectValue.
func (obj *ObjectValue) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(ObjectValue, len(raw))
	for k, v := range raw {
		val, err := decodeValue(v)
		if err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for ArrayValue.
func (arr *ArrayValue) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(ArrayValue, len(raw))
	for i, v := range raw {
		val, err := decodeValue(v)
		if err != nil {
			return fmt.Errorf("array index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// decodeValue decodes a raw JSON value into the matching Value type.
// Floats are rejected. null becomes NullValue so stored data round-trips;
// ParseValue is the strict entry point for external input.
func decodeValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return StringValue(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return BoolValue(b), nil

	case 'n':
		return NullValue{}, nil

	case '[':
		var arr ArrayValue
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil

	case '{':
		var obj ObjectValue
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("float attribute values are not allowed: %s", string(data))
		}
		return IntValue(i), nil
	}
}

// ParseValue deserializes JSON into a Value with strict validation:
// floats AND null are rejected. This is the entry point for attribute
// values arriving from outside the core.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return ToValue(raw)
}

// ToValue converts a decoded Go value (string, int, bool, []any,
// map[string]any, json.Number) to a Value. null and floats are rejected.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null attribute values are not allowed")
	case Value:
		return val, nil
	case bool:
		return BoolValue(val), nil
	case string:
		return StringValue(val), nil
	case int:
		return IntValue(int64(val)), nil
	case int64:
		return IntValue(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("float attribute values are not allowed: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", val)
		}
		return IntValue(n), nil
	case float32, float64:
		return nil, fmt.Errorf("float attribute values are not allowed: %v", val)
	case []any:
		arr := make(ArrayValue, len(val))
		for i, elem := range val {
			converted, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(ObjectValue, len(val))
		for k, elem := range val {
			converted, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value type: %T", v)
	}
}
