package prov

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Model serialization. Fragments are persisted as canonical JSON so that
// structural equality and byte equality coincide: the dirty-state cache
// compares bytes, and replays must reproduce them exactly.
//
// Relation sets are flattened into self-contained lists (every record
// carries its namespace and both resource ids), so a decoded fragment
// rebuilds its maps without any context. Empty sections are omitted; an
// empty model serializes as {}.

const timeFormat = time.RFC3339Nano

// MarshalCanonical serializes the model to canonical JSON.
func (m *Model) MarshalCanonical() ([]byte, error) {
	doc := map[string]any{}

	if len(m.Namespaces) > 0 {
		var list []any
		for _, id := range m.SortedNamespaceIDs() {
			list = append(list, NamespaceIDToMap(id))
		}
		doc["namespaces"] = list
	}

	if len(m.Agents) > 0 {
		var list []any
		for _, key := range m.SortedAgentKeys() {
			entry, err := agentToMap(m.Agents[key])
			if err != nil {
				return nil, err
			}
			list = append(list, entry)
		}
		doc["agents"] = list
	}

	if len(m.Activities) > 0 {
		var list []any
		for _, key := range m.SortedActivityKeys() {
			entry, err := activityToMap(m.Activities[key])
			if err != nil {
				return nil, err
			}
			list = append(list, entry)
		}
		doc["activities"] = list
	}

	if len(m.Entities) > 0 {
		var list []any
		for _, key := range m.SortedEntityKeys() {
			entry, err := entityToMap(m.Entities[key])
			if err != nil {
				return nil, err
			}
			list = append(list, entry)
		}
		doc["entities"] = list
	}

	addRelationSection(doc, "delegations", flattenAgentRelations(m.Delegations), delegationToMap)
	addRelationSection(doc, "acted_on_behalf_of", flattenAgentRelations(m.ActedOnBehalfOf), delegationToMap)
	addRelationSection(doc, "associations", flattenActivityRelations(m.Associations), associationToMap)
	addRelationSection(doc, "usages", flattenActivityRelations(m.Usages), usageToMap)
	addRelationSection(doc, "communications", flattenActivityRelations(m.Communications), communicationToMap)
	addRelationSection(doc, "attributions", flattenEntityRelations(m.Attributions), attributionToMap)
	addRelationSection(doc, "generations", flattenEntityRelations(m.Generations), generationToMap)
	addRelationSection(doc, "derivations", flattenEntityRelations(m.Derivations), derivationToMap)

	return MarshalCanonical(doc)
}

// flattenAgentRelations gathers a relation index into one sorted list.
func flattenAgentRelations[T comparer[T]](index map[AgentKey][]T) []T {
	var all []T
	for _, set := range index {
		for _, rel := range set {
			all = insertRelation(all, rel)
		}
	}
	return all
}

func flattenActivityRelations[T comparer[T]](index map[ActivityKey][]T) []T {
	var all []T
	for _, set := range index {
		for _, rel := range set {
			all = insertRelation(all, rel)
		}
	}
	return all
}

func flattenEntityRelations[T comparer[T]](index map[EntityKey][]T) []T {
	var all []T
	for _, set := range index {
		for _, rel := range set {
			all = insertRelation(all, rel)
		}
	}
	return all
}

func addRelationSection[T any](doc map[string]any, name string, relations []T, toMap func(T) map[string]any) {
	if len(relations) == 0 {
		return
	}
	list := make([]any, len(relations))
	for i, rel := range relations {
		list[i] = toMap(rel)
	}
	doc[name] = list
}

func NamespaceIDToMap(id NamespaceID) map[string]any {
	return map[string]any{
		"external": string(id.External),
		"uuid":     id.UUID.String(),
	}
}

func AttributesToMap(attrs Attributes) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, k := range attrs.SortedKeys() {
		attr := attrs[k]
		out[k] = map[string]any{
			"type":  attr.Type,
			"value": attr.Value,
		}
	}
	return out
}

func agentToMap(a *Agent) (map[string]any, error) {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(a.Namespace),
		"id":        string(a.ID),
	}
	if a.DomainType != "" {
		entry["domain_type"] = string(a.DomainType)
	}
	if len(a.Attributes) > 0 {
		entry["attributes"] = AttributesToMap(a.Attributes)
	}
	if !a.HasIdentity.IsZero() {
		entry["has_identity"] = IdentityIDToMap(a.HasIdentity)
	}
	if len(a.HadIdentity) > 0 {
		list := make([]any, len(a.HadIdentity))
		for i, id := range a.HadIdentity {
			list[i] = IdentityIDToMap(id)
		}
		entry["had_identity"] = list
	}
	return entry, nil
}

func IdentityIDToMap(id IdentityID) map[string]any {
	return map[string]any{
		"external":   string(id.External),
		"public_key": id.PublicKey,
	}
}

func activityToMap(a *Activity) (map[string]any, error) {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(a.Namespace),
		"id":        string(a.ID),
	}
	if a.DomainType != "" {
		entry["domain_type"] = string(a.DomainType)
	}
	if len(a.Attributes) > 0 {
		entry["attributes"] = AttributesToMap(a.Attributes)
	}
	if a.Started != nil {
		entry["started"] = a.Started.UTC().Format(timeFormat)
	}
	if a.Ended != nil {
		entry["ended"] = a.Ended.UTC().Format(timeFormat)
	}
	return entry, nil
}

func entityToMap(e *Entity) (map[string]any, error) {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(e.Namespace),
		"id":        string(e.ID),
	}
	if e.DomainType != "" {
		entry["domain_type"] = string(e.DomainType)
	}
	if len(e.Attributes) > 0 {
		entry["attributes"] = AttributesToMap(e.Attributes)
	}
	return entry, nil
}

func delegationToMap(d Delegation) map[string]any {
	entry := map[string]any{
		"namespace":   NamespaceIDToMap(d.Namespace),
		"delegate":    string(d.Delegate),
		"responsible": string(d.Responsible),
	}
	if d.Activity != "" {
		entry["activity"] = string(d.Activity)
	}
	if d.Role != "" {
		entry["role"] = string(d.Role)
	}
	return entry
}

func associationToMap(a Association) map[string]any {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(a.Namespace),
		"activity":  string(a.Activity),
		"agent":     string(a.Agent),
	}
	if a.Role != "" {
		entry["role"] = string(a.Role)
	}
	return entry
}

func attributionToMap(a Attribution) map[string]any {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(a.Namespace),
		"entity":    string(a.Entity),
		"agent":     string(a.Agent),
	}
	if a.Role != "" {
		entry["role"] = string(a.Role)
	}
	return entry
}

func derivationToMap(d Derivation) map[string]any {
	entry := map[string]any{
		"namespace": NamespaceIDToMap(d.Namespace),
		"generated": string(d.Generated),
		"used":      string(d.Used),
		"kind":      d.Kind.String(),
	}
	if d.Activity != "" {
		entry["activity"] = string(d.Activity)
	}
	return entry
}

func generationToMap(g Generation) map[string]any {
	return map[string]any{
		"namespace": NamespaceIDToMap(g.Namespace),
		"activity":  string(g.Activity),
		"entity":    string(g.Entity),
	}
}

func usageToMap(u Usage) map[string]any {
	return map[string]any{
		"namespace": NamespaceIDToMap(u.Namespace),
		"activity":  string(u.Activity),
		"entity":    string(u.Entity),
	}
}

func communicationToMap(c Communication) map[string]any {
	return map[string]any{
		"namespace": NamespaceIDToMap(c.Namespace),
		"activity":  string(c.Activity),
		"informing": string(c.Informing),
	}
}

// Wire structs for decoding. Decoding accepts any field order; only
// encoding is canonical.

type NamespaceIDWire struct {
	External string `json:"external"`
	UUID     string `json:"uuid"`
}

func (w NamespaceIDWire) ToID() (NamespaceID, error) {
	id, err := uuid.Parse(w.UUID)
	if err != nil {
		return NamespaceID{}, fmt.Errorf("namespace uuid %q: %w", w.UUID, err)
	}
	return NamespaceID{External: ExternalID(w.External), UUID: id}, nil
}

type IdentityIDWire struct {
	External  string `json:"external"`
	PublicKey string `json:"public_key"`
}

func (w IdentityIDWire) ToID() IdentityID {
	return IdentityID{External: ExternalID(w.External), PublicKey: w.PublicKey}
}

type AttributeWire struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type agentWire struct {
	Namespace   NamespaceIDWire          `json:"namespace"`
	ID          string                   `json:"id"`
	DomainType  string                   `json:"domain_type"`
	Attributes  map[string]AttributeWire `json:"attributes"`
	HasIdentity *IdentityIDWire          `json:"has_identity"`
	HadIdentity []IdentityIDWire         `json:"had_identity"`
}

type activityWire struct {
	Namespace  NamespaceIDWire          `json:"namespace"`
	ID         string                   `json:"id"`
	DomainType string                   `json:"domain_type"`
	Attributes map[string]AttributeWire `json:"attributes"`
	Started    string                   `json:"started"`
	Ended      string                   `json:"ended"`
}

type entityWire struct {
	Namespace  NamespaceIDWire          `json:"namespace"`
	ID         string                   `json:"id"`
	DomainType string                   `json:"domain_type"`
	Attributes map[string]AttributeWire `json:"attributes"`
}

type delegationWire struct {
	Namespace   NamespaceIDWire `json:"namespace"`
	Delegate    string          `json:"delegate"`
	Responsible string          `json:"responsible"`
	Activity    string          `json:"activity"`
	Role        string          `json:"role"`
}

type associationWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Activity  string          `json:"activity"`
	Agent     string          `json:"agent"`
	Role      string          `json:"role"`
}

type attributionWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Entity    string          `json:"entity"`
	Agent     string          `json:"agent"`
	Role      string          `json:"role"`
}

type derivationWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Generated string          `json:"generated"`
	Used      string          `json:"used"`
	Activity  string          `json:"activity"`
	Kind      string          `json:"kind"`
}

type generationWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Activity  string          `json:"activity"`
	Entity    string          `json:"entity"`
}

type usageWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Activity  string          `json:"activity"`
	Entity    string          `json:"entity"`
}

type communicationWire struct {
	Namespace NamespaceIDWire `json:"namespace"`
	Activity  string          `json:"activity"`
	Informing string          `json:"informing"`
}

type modelWire struct {
	Namespaces      []NamespaceIDWire   `json:"namespaces"`
	Agents          []agentWire         `json:"agents"`
	Activities      []activityWire      `json:"activities"`
	Entities        []entityWire        `json:"entities"`
	Delegations     []delegationWire    `json:"delegations"`
	ActedOnBehalfOf []delegationWire    `json:"acted_on_behalf_of"`
	Associations    []associationWire   `json:"associations"`
	Usages          []usageWire         `json:"usages"`
	Communications  []communicationWire `json:"communications"`
	Attributions    []attributionWire   `json:"attributions"`
	Generations     []generationWire    `json:"generations"`
	Derivations     []derivationWire    `json:"derivations"`
}

func DecodeAttributes(wire map[string]AttributeWire) (Attributes, error) {
	attrs := make(Attributes, len(wire))
	for k, w := range wire {
		val, err := ParseValue(w.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		attrs[k] = Attribute{Type: w.Type, Value: val}
	}
	return attrs, nil
}

func decodeTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return nil, fmt.Errorf("timestamp %q: %w", s, err)
	}
	t = t.UTC()
	return &t, nil
}

// UnmarshalModel decodes a serialized model fragment.
func UnmarshalModel(data []byte) (*Model, error) {
	var wire modelWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}

	m := NewModel()

	for _, w := range wire.Namespaces {
		id, err := w.ToID()
		if err != nil {
			return nil, err
		}
		m.EnsureNamespace(id)
	}

	for _, w := range wire.Agents {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		attrs, err := DecodeAttributes(w.Attributes)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", w.ID, err)
		}
		a := m.EnsureAgent(ns, AgentID(w.ID))
		a.DomainType = DomainTypeID(w.DomainType)
		a.Attributes = attrs
		if w.HasIdentity != nil {
			a.HasIdentity = w.HasIdentity.ToID()
		}
		for _, idw := range w.HadIdentity {
			a.HadIdentity = insertRelation(a.HadIdentity, idw.ToID())
		}
	}

	for _, w := range wire.Activities {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		attrs, err := DecodeAttributes(w.Attributes)
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", w.ID, err)
		}
		a := m.EnsureActivity(ns, ActivityID(w.ID))
		a.DomainType = DomainTypeID(w.DomainType)
		a.Attributes = attrs
		if a.Started, err = decodeTime(w.Started); err != nil {
			return nil, fmt.Errorf("activity %q: %w", w.ID, err)
		}
		if a.Ended, err = decodeTime(w.Ended); err != nil {
			return nil, fmt.Errorf("activity %q: %w", w.ID, err)
		}
	}

	for _, w := range wire.Entities {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		attrs, err := DecodeAttributes(w.Attributes)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", w.ID, err)
		}
		e := m.EnsureEntity(ns, EntityID(w.ID))
		e.DomainType = DomainTypeID(w.DomainType)
		e.Attributes = attrs
	}

	for _, w := range wire.Delegations {
		d, err := w.toDelegation()
		if err != nil {
			return nil, err
		}
		key := AgentKey{Namespace: d.Namespace, ID: d.Responsible}
		m.Delegations[key] = insertRelation(m.Delegations[key], d)
	}
	for _, w := range wire.ActedOnBehalfOf {
		d, err := w.toDelegation()
		if err != nil {
			return nil, err
		}
		key := AgentKey{Namespace: d.Namespace, ID: d.Delegate}
		m.ActedOnBehalfOf[key] = insertRelation(m.ActedOnBehalfOf[key], d)
	}

	for _, w := range wire.Associations {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		m.AddAssociation(Association{
			Namespace: ns,
			Activity:  ActivityID(w.Activity),
			Agent:     AgentID(w.Agent),
			Role:      Role(w.Role),
		})
	}

	for _, w := range wire.Usages {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		m.AddUsage(Usage{Namespace: ns, Activity: ActivityID(w.Activity), Entity: EntityID(w.Entity)})
	}

	for _, w := range wire.Communications {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		m.AddCommunication(Communication{
			Namespace: ns,
			Activity:  ActivityID(w.Activity),
			Informing: ActivityID(w.Informing),
		})
	}

	for _, w := range wire.Attributions {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		m.AddAttribution(Attribution{
			Namespace: ns,
			Entity:    EntityID(w.Entity),
			Agent:     AgentID(w.Agent),
			Role:      Role(w.Role),
		})
	}

	for _, w := range wire.Generations {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		m.AddGeneration(Generation{Namespace: ns, Activity: ActivityID(w.Activity), Entity: EntityID(w.Entity)})
	}

	for _, w := range wire.Derivations {
		ns, err := w.Namespace.ToID()
		if err != nil {
			return nil, err
		}
		kind, err := ParseDerivationKind(w.Kind)
		if err != nil {
			return nil, err
		}
		m.AddDerivation(Derivation{
			Namespace: ns,
			Generated: EntityID(w.Generated),
			Used:      EntityID(w.Used),
			Activity:  ActivityID(w.Activity),
			Kind:      kind,
		})
	}

	return m, nil
}

func (w delegationWire) toDelegation() (Delegation, error) {
	ns, err := w.Namespace.ToID()
	if err != nil {
		return Delegation{}, err
	}
	return Delegation{
		Namespace:   ns,
		Delegate:    AgentID(w.Delegate),
		Responsible: AgentID(w.Responsible),
		Activity:    ActivityID(w.Activity),
		Role:        Role(w.Role),
	}, nil
}
