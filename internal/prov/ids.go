package prov

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IRI is the stable rendered form of a resource identifier. IRIs are what
// the address layer and the persisted fragments key on, so the rendering
// must never change once data exists.
type IRI string

// iriScheme prefixes every rendered identifier. The version-free scheme is
// deliberate: identity is structural, migrations rename kinds, not schemes.
const iriScheme = "provenant"

// ExternalID is a human-chosen name for a resource. It is opaque to the
// core; uniqueness is only required within a namespace and kind.
type ExternalID string

// Role qualifies an association, attribution, or delegation. Empty means
// no role was asserted.
type Role string

// DomainTypeID identifies a domain-specific subtype of an agent, activity,
// or entity. Empty means untyped.
type DomainTypeID string

// IRI renders the domain type identifier.
func (d DomainTypeID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:domaintype:%s", iriScheme, string(d)))
}

// NamespaceID identifies an isolated provenance graph partition.
//
// The UUID disambiguates namespaces that share an external name across
// deployments. It is part of the identity, never mutable: two NamespaceID
// values with the same external name but different UUIDs are different
// namespaces.
type NamespaceID struct {
	External ExternalID
	UUID     uuid.UUID
}

// NewNamespaceID builds a namespace identifier from its parts.
func NewNamespaceID(external ExternalID, id uuid.UUID) NamespaceID {
	return NamespaceID{External: external, UUID: id}
}

// IRI renders the namespace identifier.
func (n NamespaceID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:ns:%s:%s", iriScheme, string(n.External), n.UUID))
}

// IsZero reports whether the identifier is the zero value.
func (n NamespaceID) IsZero() bool {
	return n.External == "" && n.UUID == uuid.Nil
}

// Compare orders namespace identifiers by rendered IRI.
func (n NamespaceID) Compare(o NamespaceID) int {
	return strings.Compare(string(n.IRI()), string(o.IRI()))
}

// AgentID identifies an agent (a person, organization, or software actor)
// within a namespace.
type AgentID ExternalID

// IRI renders the agent identifier.
func (a AgentID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:agent:%s", iriScheme, string(a)))
}

// External returns the human-chosen name the identifier was derived from.
func (a AgentID) External() ExternalID { return ExternalID(a) }

// ActivityID identifies an activity within a namespace.
type ActivityID ExternalID

// IRI renders the activity identifier.
func (a ActivityID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:activity:%s", iriScheme, string(a)))
}

// External returns the human-chosen name the identifier was derived from.
func (a ActivityID) External() ExternalID { return ExternalID(a) }

// EntityID identifies an entity within a namespace.
type EntityID ExternalID

// IRI renders the entity identifier.
func (e EntityID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:entity:%s", iriScheme, string(e)))
}

// External returns the human-chosen name the identifier was derived from.
func (e EntityID) External() ExternalID { return ExternalID(e) }

// IdentityID identifies one public-key identity of an agent. The key
// material is part of the identity: rotating a key produces a new
// IdentityID, and the old one moves to the agent's historical set.
type IdentityID struct {
	External  ExternalID
	PublicKey string
}

// NewIdentityID builds an identity identifier from its parts.
func NewIdentityID(external ExternalID, publicKey string) IdentityID {
	return IdentityID{External: external, PublicKey: publicKey}
}

// IRI renders the identity identifier.
func (i IdentityID) IRI() IRI {
	return IRI(fmt.Sprintf("%s:identity:%s:%s", iriScheme, string(i.External), i.PublicKey))
}

// IsZero reports whether the identifier is the zero value.
func (i IdentityID) IsZero() bool {
	return i.External == "" && i.PublicKey == ""
}

// Compare orders identity identifiers by rendered IRI.
func (i IdentityID) Compare(o IdentityID) int {
	return strings.Compare(string(i.IRI()), string(o.IRI()))
}
