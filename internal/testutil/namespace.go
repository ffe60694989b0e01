package testutil

import (
	"github.com/google/uuid"

	"github.com/provenant/provenant/internal/prov"
)

// Namespace builds a namespace id from an external name and a fixed UUID
// string. Panics on a malformed UUID; test fixtures are compile-time
// constants, so a bad one is a bug, not an input error.
func Namespace(external, id string) prov.NamespaceID {
	return prov.NewNamespaceID(prov.ExternalID(external), uuid.MustParse(id))
}
