package state

import (
	"fmt"
	"slices"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// Fragment is one independently storable slice of a model: the minimal
// model for a single address.
type Fragment struct {
	Address ops.Address
	Model   *prov.Model
}

// Snapshot decomposes a model into one fragment per namespace, agent,
// activity, and entity, sorted by address.
//
// Fragment contents:
//   - namespace: the namespace record alone
//   - agent: the agent record (attributes, identities) plus delegations it
//     is responsible for and delegations it acted under
//   - activity: the activity record (times, attributes) plus its
//     associations, usages, and informed-by links
//   - entity: the entity record plus its attributions, generations, and
//     derivations
//
// Merging all fragments reproduces the original model: every relation
// appears in exactly the fragments whose index carries it.
func Snapshot(m *prov.Model) []Fragment {
	var frags []Fragment

	for _, id := range m.SortedNamespaceIDs() {
		fm := prov.NewModel()
		fm.EnsureNamespace(id)
		frags = append(frags, Fragment{Address: ops.NamespaceAddress(id), Model: fm})
	}

	for _, key := range m.SortedAgentKeys() {
		fm := prov.NewModel()
		agent := m.Agents[key]
		fm.Agents[key] = agent
		if set, ok := m.Delegations[key]; ok {
			fm.Delegations[key] = slices.Clone(set)
		}
		if set, ok := m.ActedOnBehalfOf[key]; ok {
			fm.ActedOnBehalfOf[key] = slices.Clone(set)
		}
		frags = append(frags, Fragment{
			Address: ops.ResourceAddress(key.Namespace, key.ID.IRI()),
			Model:   fm.Clone(),
		})
	}

	for _, key := range m.SortedActivityKeys() {
		fm := prov.NewModel()
		fm.Activities[key] = m.Activities[key]
		if set, ok := m.Associations[key]; ok {
			fm.Associations[key] = slices.Clone(set)
		}
		if set, ok := m.Usages[key]; ok {
			fm.Usages[key] = slices.Clone(set)
		}
		if set, ok := m.Communications[key]; ok {
			fm.Communications[key] = slices.Clone(set)
		}
		frags = append(frags, Fragment{
			Address: ops.ResourceAddress(key.Namespace, key.ID.IRI()),
			Model:   fm.Clone(),
		})
	}

	for _, key := range m.SortedEntityKeys() {
		fm := prov.NewModel()
		fm.Entities[key] = m.Entities[key]
		if set, ok := m.Attributions[key]; ok {
			fm.Attributions[key] = slices.Clone(set)
		}
		if set, ok := m.Generations[key]; ok {
			fm.Generations[key] = slices.Clone(set)
		}
		if set, ok := m.Derivations[key]; ok {
			fm.Derivations[key] = slices.Clone(set)
		}
		frags = append(frags, Fragment{
			Address: ops.ResourceAddress(key.Namespace, key.ID.IRI()),
			Model:   fm.Clone(),
		})
	}

	slices.SortFunc(frags, func(a, b Fragment) int { return a.Address.Compare(b.Address) })
	return frags
}

// MergeFragments combines fragments into a single model. The inverse of
// Snapshot: Snapshot then MergeFragments yields an equal model.
func MergeFragments(frags []Fragment) *prov.Model {
	m := prov.NewModel()
	for _, f := range frags {
		m.Merge(f.Model)
	}
	return m
}

// canonicalBytes serializes a fragment model; the bytes are the identity
// the version cache compares.
func canonicalBytes(m *prov.Model) (string, error) {
	data, err := m.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("fragment serialize: %w", err)
	}
	return string(data), nil
}
