package ops

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/provenant/provenant/internal/prov"
)

// Domain prefix for content-addressed state keys. The version suffix
// enables future key-derivation migration without colliding with v1 keys.
const addressDomain = "provenant/address/v1"

// Address identifies one independently storable slice of ledger state:
// a (namespace, resource) pair. The address of a namespace record itself
// has no namespace component - the namespace IS the resource.
type Address struct {
	Namespace *prov.NamespaceID
	Resource  prov.IRI
}

// NamespaceAddress returns the address of the namespace record itself.
func NamespaceAddress(id prov.NamespaceID) Address {
	return Address{Resource: id.IRI()}
}

// ResourceAddress returns the address of a resource inside a namespace.
func ResourceAddress(ns prov.NamespaceID, resource prov.IRI) Address {
	n := ns
	return Address{Namespace: &n, Resource: resource}
}

// String renders the address for logs and error messages.
func (a Address) String() string {
	if a.Namespace == nil {
		return string(a.Resource)
	}
	return fmt.Sprintf("%s %s", a.Namespace.IRI(), a.Resource)
}

// Compare orders addresses by namespace IRI then resource IRI.
func (a Address) Compare(b Address) int {
	an, bn := "", ""
	if a.Namespace != nil {
		an = string(a.Namespace.IRI())
	}
	if b.Namespace != nil {
		bn = string(b.Namespace.IRI())
	}
	if c := strings.Compare(an, bn); c != 0 {
		return c
	}
	return strings.Compare(string(a.Resource), string(b.Resource))
}

// Equal reports structural equality of two addresses.
func (a Address) Equal(b Address) bool {
	return a.Compare(b) == 0
}

// StateKey derives the content-addressed storage key for the address:
// SHA-256 over domain-separated canonical JSON, hex encoded. The key is
// stable across restarts and replays, and two distinct addresses never
// share a key (the canonical encoding is injective over the address
// fields).
//
// Format: SHA256(domain + 0x00 + canonical) - the null separator prevents
// domain/payload boundary ambiguity.
func (a Address) StateKey() string {
	doc := map[string]any{"resource": string(a.Resource)}
	if a.Namespace != nil {
		doc["namespace"] = string(a.Namespace.IRI())
	}
	canonical, err := prov.MarshalCanonical(doc)
	if err != nil {
		// The document is two strings; canonical marshaling cannot fail.
		panic(fmt.Sprintf("address state key: %v", err))
	}

	h := sha256.New()
	h.Write([]byte(addressDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// DedupAddresses returns the addresses with duplicates removed, preserving
// first-occurrence order.
func DedupAddresses(addrs []Address) []Address {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		key := a.StateKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
