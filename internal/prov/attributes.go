package prov

import "sort"

// Attribute is one typed key/value pair on an agent, activity, or entity.
// The core never interprets the value beyond exact-match comparison: the
// type name and value together are an opaque, equality-comparable blob.
type Attribute struct {
	Type  string
	Value Value
}

// Equal reports structural equality of two attributes.
func (a Attribute) Equal(b Attribute) bool {
	return a.Type == b.Type && ValueEqual(a.Value, b.Value)
}

// Attributes maps attribute name to its typed value.
//
// Once a key is set it may only ever be restated with the same value or
// left alone; the operation layer rejects changes as contradictions. New
// keys may always be added.
type Attributes map[string]Attribute

// SortedKeys returns attribute names in lexicographic order for
// deterministic iteration. Plain byte ordering is fine here: attribute
// names are model-level keys, not canonical-JSON object keys.
func (a Attributes) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow-value copy of the attribute map. Values are
// immutable once set, so sharing them is safe.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal reports whether two attribute maps hold exactly the same entries.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
