package state

import (
	"slices"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// Version is one generation of an address's state. Seq counts structural
// changes observed by the cache, not writes: rewriting identical content
// leaves it untouched.
type Version struct {
	Seq   uint32
	Value *prov.Model
}

// OperationState caches the per-address state versions seen while
// validating one transaction, and records which addresses structurally
// changed.
//
// Lifecycle: UpdateState seeds loaded fragments, Input hands the working
// copies to the apply pass, Write records the post-apply fragments, Dirty
// consumes and returns what actually changed.
type OperationState struct {
	versions map[string]Version // keyed by Address.StateKey()
	bytes    map[string]string  // canonical bytes per key
	addrs    map[string]ops.Address
	dirty    map[string]struct{}
}

// NewOperationState creates an empty cache.
func NewOperationState() *OperationState {
	return &OperationState{
		versions: make(map[string]Version),
		bytes:    make(map[string]string),
		addrs:    make(map[string]ops.Address),
		dirty:    make(map[string]struct{}),
	}
}

// UpdateState seeds the cache with fragments loaded from storage. Seeding
// never marks anything dirty; it establishes the baseline that Write
// compares against.
func (s *OperationState) UpdateState(loaded ...Fragment) error {
	for _, frag := range loaded {
		key := frag.Address.StateKey()
		canonical, err := canonicalBytes(frag.Model)
		if err != nil {
			return err
		}
		if existing, ok := s.bytes[key]; ok && existing == canonical {
			continue
		}
		s.versions[key] = Version{Seq: s.versions[key].Seq, Value: frag.Model}
		s.bytes[key] = canonical
		s.addrs[key] = frag.Address
	}
	return nil
}

// Input returns the cached models in address order. Callers merge them into
// a working model; the cached values themselves stay untouched.
func (s *OperationState) Input() []*prov.Model {
	keys := s.sortedKeys()
	out := make([]*prov.Model, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.versions[key].Value.Clone())
	}
	return out
}

// Write records a post-apply fragment. The version bumps - and the address
// becomes dirty - only when the canonical bytes differ from the cached
// generation; writing identical content is invisible.
func (s *OperationState) Write(frag Fragment) error {
	key := frag.Address.StateKey()
	canonical, err := canonicalBytes(frag.Model)
	if err != nil {
		return err
	}
	if existing, ok := s.bytes[key]; ok && existing == canonical {
		return nil
	}
	s.versions[key] = Version{Seq: s.versions[key].Seq + 1, Value: frag.Model}
	s.bytes[key] = canonical
	s.addrs[key] = frag.Address
	s.dirty[key] = struct{}{}
	return nil
}

// Version returns the cached version for an address, if any.
func (s *OperationState) Version(addr ops.Address) (Version, bool) {
	v, ok := s.versions[addr.StateKey()]
	return v, ok
}

// Dirty consumes the dirty set and returns the changed fragments in
// address order. A second call returns nothing until new writes change
// state again.
func (s *OperationState) Dirty() []Fragment {
	keys := make([]string, 0, len(s.dirty))
	for key := range s.dirty {
		keys = append(keys, key)
	}
	s.dirty = make(map[string]struct{})

	frags := make([]Fragment, 0, len(keys))
	for _, key := range keys {
		frags = append(frags, Fragment{Address: s.addrs[key], Model: s.versions[key].Value})
	}
	slices.SortFunc(frags, func(a, b Fragment) int { return a.Address.Compare(b.Address) })
	return frags
}

func (s *OperationState) sortedKeys() []string {
	keys := make([]string, 0, len(s.addrs))
	for key := range s.addrs {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return s.addrs[a].Compare(s.addrs[b])
	})
	return keys
}
