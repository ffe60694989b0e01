package prov

import (
	"slices"
	"strings"
	"time"
)

// Namespace is the record for one provenance graph partition. Creation is
// idempotent and the identity is immutable: the UUID lives inside the id.
type Namespace struct {
	ID NamespaceID
}

// Agent is a person, organization, or software actor recorded in a
// namespace.
type Agent struct {
	ID          AgentID
	Namespace   NamespaceID
	DomainType  DomainTypeID
	Attributes  Attributes
	HasIdentity IdentityID   // current public-key identity; zero if none
	HadIdentity []IdentityID // historical identities, ordered set
}

// Activity is something that occurred over a (possibly unknown) time range.
type Activity struct {
	ID         ActivityID
	Namespace  NamespaceID
	DomainType DomainTypeID
	Attributes Attributes
	Started    *time.Time
	Ended      *time.Time
}

// Entity is a thing with provenance recorded in a namespace.
type Entity struct {
	ID         EntityID
	Namespace  NamespaceID
	DomainType DomainTypeID
	Attributes Attributes
}

// AgentKey addresses one agent record within a model.
type AgentKey struct {
	Namespace NamespaceID
	ID        AgentID
}

// ActivityKey addresses one activity record within a model.
type ActivityKey struct {
	Namespace NamespaceID
	ID        ActivityID
}

// EntityKey addresses one entity record within a model.
type EntityKey struct {
	Namespace NamespaceID
	ID        EntityID
}

// Model is the materialized provenance graph: resource records and their
// relations, keyed by (namespace, resource id).
//
// Relation maps hold ordered sets. Each relation is stored under the
// resource whose snapshot fragment carries it; delegations are indexed
// twice (by responsible and by delegate) so both agents' fragments are
// self-contained.
//
// A Model is a plain value with no hidden global state: validators build a
// fresh working model per transaction from loaded fragments, mutate it
// locally, and discard it on contradiction.
type Model struct {
	Namespaces map[NamespaceID]*Namespace
	Agents     map[AgentKey]*Agent
	Activities map[ActivityKey]*Activity
	Entities   map[EntityKey]*Entity

	Delegations     map[AgentKey][]Delegation // keyed by responsible agent
	ActedOnBehalfOf map[AgentKey][]Delegation // keyed by delegate agent
	Associations    map[ActivityKey][]Association
	Usages          map[ActivityKey][]Usage
	Communications  map[ActivityKey][]Communication // keyed by the informed activity
	Attributions    map[EntityKey][]Attribution
	Generations     map[EntityKey][]Generation // keyed by the generated entity
	Derivations     map[EntityKey][]Derivation // keyed by the generated entity
}

// NewModel creates an empty model with all maps initialized.
func NewModel() *Model {
	return &Model{
		Namespaces:      make(map[NamespaceID]*Namespace),
		Agents:          make(map[AgentKey]*Agent),
		Activities:      make(map[ActivityKey]*Activity),
		Entities:        make(map[EntityKey]*Entity),
		Delegations:     make(map[AgentKey][]Delegation),
		ActedOnBehalfOf: make(map[AgentKey][]Delegation),
		Associations:    make(map[ActivityKey][]Association),
		Usages:          make(map[ActivityKey][]Usage),
		Communications:  make(map[ActivityKey][]Communication),
		Attributions:    make(map[EntityKey][]Attribution),
		Generations:     make(map[EntityKey][]Generation),
		Derivations:     make(map[EntityKey][]Derivation),
	}
}

// EnsureNamespace inserts the namespace record if absent. Idempotent.
func (m *Model) EnsureNamespace(id NamespaceID) *Namespace {
	if ns, ok := m.Namespaces[id]; ok {
		return ns
	}
	ns := &Namespace{ID: id}
	m.Namespaces[id] = ns
	return ns
}

// EnsureAgent inserts a stub agent record if absent. Open-world creation:
// referencing an agent that does not yet exist creates it.
func (m *Model) EnsureAgent(ns NamespaceID, id AgentID) *Agent {
	key := AgentKey{Namespace: ns, ID: id}
	if a, ok := m.Agents[key]; ok {
		return a
	}
	a := &Agent{ID: id, Namespace: ns, Attributes: Attributes{}}
	m.Agents[key] = a
	return a
}

// EnsureActivity inserts a stub activity record if absent.
func (m *Model) EnsureActivity(ns NamespaceID, id ActivityID) *Activity {
	key := ActivityKey{Namespace: ns, ID: id}
	if a, ok := m.Activities[key]; ok {
		return a
	}
	a := &Activity{ID: id, Namespace: ns, Attributes: Attributes{}}
	m.Activities[key] = a
	return a
}

// EnsureEntity inserts a stub entity record if absent.
func (m *Model) EnsureEntity(ns NamespaceID, id EntityID) *Entity {
	key := EntityKey{Namespace: ns, ID: id}
	if e, ok := m.Entities[key]; ok {
		return e
	}
	e := &Entity{ID: id, Namespace: ns, Attributes: Attributes{}}
	m.Entities[key] = e
	return e
}

// AddAssociation inserts an association into the informed activity's set.
func (m *Model) AddAssociation(a Association) {
	key := ActivityKey{Namespace: a.Namespace, ID: a.Activity}
	m.Associations[key] = insertRelation(m.Associations[key], a)
}

// AddAttribution inserts an attribution into the entity's set.
func (m *Model) AddAttribution(a Attribution) {
	key := EntityKey{Namespace: a.Namespace, ID: a.Entity}
	m.Attributions[key] = insertRelation(m.Attributions[key], a)
}

// AddDelegation inserts a delegation, indexed both by the responsible
// agent and by the delegate so either agent's fragment carries it.
func (m *Model) AddDelegation(d Delegation) {
	respKey := AgentKey{Namespace: d.Namespace, ID: d.Responsible}
	delKey := AgentKey{Namespace: d.Namespace, ID: d.Delegate}
	m.Delegations[respKey] = insertRelation(m.Delegations[respKey], d)
	m.ActedOnBehalfOf[delKey] = insertRelation(m.ActedOnBehalfOf[delKey], d)
}

// AddDerivation inserts a derivation into the generated entity's set.
func (m *Model) AddDerivation(d Derivation) {
	key := EntityKey{Namespace: d.Namespace, ID: d.Generated}
	m.Derivations[key] = insertRelation(m.Derivations[key], d)
}

// AddGeneration inserts a generation into the generated entity's set.
func (m *Model) AddGeneration(g Generation) {
	key := EntityKey{Namespace: g.Namespace, ID: g.Entity}
	m.Generations[key] = insertRelation(m.Generations[key], g)
}

// AddUsage inserts a usage into the using activity's set.
func (m *Model) AddUsage(u Usage) {
	key := ActivityKey{Namespace: u.Namespace, ID: u.Activity}
	m.Usages[key] = insertRelation(m.Usages[key], u)
}

// AddCommunication inserts an informed-by link into the informed
// activity's set.
func (m *Model) AddCommunication(c Communication) {
	key := ActivityKey{Namespace: c.Namespace, ID: c.Activity}
	m.Communications[key] = insertRelation(m.Communications[key], c)
}

// SetAgentIdentity makes identity the agent's current identity. Any
// previous current identity moves to the historical set. Restating the
// current identity is a no-op.
func (m *Model) SetAgentIdentity(ns NamespaceID, id AgentID, identity IdentityID) {
	a := m.EnsureAgent(ns, id)
	if a.HasIdentity == identity {
		return
	}
	if !a.HasIdentity.IsZero() {
		a.HadIdentity = insertRelation(a.HadIdentity, a.HasIdentity)
	}
	a.HasIdentity = identity
}

// mergeAttributes extends dst with every entry of src. Callers perform
// contradiction checks before mutation; this primitive just writes.
func mergeAttributes(dst Attributes, src Attributes) {
	for k, v := range src {
		dst[k] = v
	}
}

// SetAgentAttributes replaces the agent's domain type and extends its
// attribute map. The apply layer has already rejected value changes for
// pre-existing keys.
func (m *Model) SetAgentAttributes(ns NamespaceID, id AgentID, domainType DomainTypeID, attrs Attributes) {
	a := m.EnsureAgent(ns, id)
	a.DomainType = domainType
	mergeAttributes(a.Attributes, attrs)
}

// SetActivityAttributes replaces the activity's domain type and extends its
// attribute map.
func (m *Model) SetActivityAttributes(ns NamespaceID, id ActivityID, domainType DomainTypeID, attrs Attributes) {
	a := m.EnsureActivity(ns, id)
	a.DomainType = domainType
	mergeAttributes(a.Attributes, attrs)
}

// SetEntityAttributes replaces the entity's domain type and extends its
// attribute map.
func (m *Model) SetEntityAttributes(ns NamespaceID, id EntityID, domainType DomainTypeID, attrs Attributes) {
	e := m.EnsureEntity(ns, id)
	e.DomainType = domainType
	mergeAttributes(e.Attributes, attrs)
}

// Merge unions other into m: namespaces and resource records overwrite by
// key, relation sets union. Used to combine per-address snapshot fragments
// into one working model before applying new operations.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	for id := range other.Namespaces {
		m.EnsureNamespace(id)
	}
	for key, agent := range other.Agents {
		m.Agents[key] = cloneAgent(agent)
	}
	for key, activity := range other.Activities {
		m.Activities[key] = cloneActivity(activity)
	}
	for key, entity := range other.Entities {
		m.Entities[key] = cloneEntity(entity)
	}
	for key, set := range other.Delegations {
		for _, d := range set {
			m.Delegations[key] = insertRelation(m.Delegations[key], d)
		}
	}
	for key, set := range other.ActedOnBehalfOf {
		for _, d := range set {
			m.ActedOnBehalfOf[key] = insertRelation(m.ActedOnBehalfOf[key], d)
		}
	}
	for key, set := range other.Associations {
		for _, a := range set {
			m.Associations[key] = insertRelation(m.Associations[key], a)
		}
	}
	for key, set := range other.Usages {
		for _, u := range set {
			m.Usages[key] = insertRelation(m.Usages[key], u)
		}
	}
	for key, set := range other.Communications {
		for _, c := range set {
			m.Communications[key] = insertRelation(m.Communications[key], c)
		}
	}
	for key, set := range other.Attributions {
		for _, a := range set {
			m.Attributions[key] = insertRelation(m.Attributions[key], a)
		}
	}
	for key, set := range other.Generations {
		for _, g := range set {
			m.Generations[key] = insertRelation(m.Generations[key], g)
		}
	}
	for key, set := range other.Derivations {
		for _, d := range set {
			m.Derivations[key] = insertRelation(m.Derivations[key], d)
		}
	}
}

func cloneAgent(a *Agent) *Agent {
	out := *a
	out.Attributes = a.Attributes.Clone()
	out.HadIdentity = slices.Clone(a.HadIdentity)
	return &out
}

func cloneActivity(a *Activity) *Activity {
	out := *a
	out.Attributes = a.Attributes.Clone()
	if a.Started != nil {
		t := *a.Started
		out.Started = &t
	}
	if a.Ended != nil {
		t := *a.Ended
		out.Ended = &t
	}
	return &out
}

func cloneEntity(e *Entity) *Entity {
	out := *e
	out.Attributes = e.Attributes.Clone()
	return &out
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	out := NewModel()
	out.Merge(m)
	return out
}

// Equal reports whether two models hold exactly the same records and
// relations. Comparison is by canonical serialization, which is also what
// the dirty-state cache compares, so Equal and change detection can never
// disagree.
func (m *Model) Equal(other *Model) bool {
	a, errA := m.MarshalCanonical()
	b, errB := other.MarshalCanonical()
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// SortedNamespaceIDs returns the model's namespace ids in IRI order.
func (m *Model) SortedNamespaceIDs() []NamespaceID {
	ids := make([]NamespaceID, 0, len(m.Namespaces))
	for id := range m.Namespaces {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, NamespaceID.Compare)
	return ids
}

func compareAgentKeys(a, b AgentKey) int {
	return compareChain(a.Namespace.Compare(b.Namespace), strings.Compare(string(a.ID), string(b.ID)))
}

func compareActivityKeys(a, b ActivityKey) int {
	return compareChain(a.Namespace.Compare(b.Namespace), strings.Compare(string(a.ID), string(b.ID)))
}

func compareEntityKeys(a, b EntityKey) int {
	return compareChain(a.Namespace.Compare(b.Namespace), strings.Compare(string(a.ID), string(b.ID)))
}

// SortedAgentKeys returns the model's agent keys in deterministic order.
func (m *Model) SortedAgentKeys() []AgentKey {
	keys := make([]AgentKey, 0, len(m.Agents))
	for k := range m.Agents {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareAgentKeys)
	return keys
}

// SortedActivityKeys returns the model's activity keys in deterministic
// order.
func (m *Model) SortedActivityKeys() []ActivityKey {
	keys := make([]ActivityKey, 0, len(m.Activities))
	for k := range m.Activities {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareActivityKeys)
	return keys
}

// SortedEntityKeys returns the model's entity keys in deterministic order.
func (m *Model) SortedEntityKeys() []EntityKey {
	keys := make([]EntityKey, 0, len(m.Entities))
	for k := range m.Entities {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareEntityKeys)
	return keys
}
