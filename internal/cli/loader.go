package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// operationsFile is the YAML format the submit, deps, and validate
// commands consume: a default namespace plus tagged operation documents.
//
//	namespace:
//	  external: lab
//	  uuid: 5a0b7b6e-3d58-4a6f-8c2e-000000000001
//	operations:
//	  - op: agent_exists
//	    id: alice
type operationsFile struct {
	Namespace struct {
		External string `yaml:"external"`
		UUID     string `yaml:"uuid"`
	} `yaml:"namespace"`
	Operations []map[string]any `yaml:"operations"`
}

// LoadOperations reads an operations YAML file. Each document's missing
// namespace field is filled in from the file's default namespace.
func LoadOperations(path string) ([]ops.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operations file: %w", err)
	}

	var file operationsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse operations YAML: %w", err)
	}

	if len(file.Operations) == 0 {
		return nil, fmt.Errorf("operations list is empty")
	}

	var defaultNS map[string]any
	if file.Namespace.External != "" || file.Namespace.UUID != "" {
		id, err := uuid.Parse(file.Namespace.UUID)
		if err != nil {
			return nil, fmt.Errorf("namespace uuid %q: %w", file.Namespace.UUID, err)
		}
		defaultNS = prov.NamespaceIDToMap(
			prov.NewNamespaceID(prov.ExternalID(file.Namespace.External), id))
	}

	batch := make([]ops.Operation, 0, len(file.Operations))
	for i, doc := range file.Operations {
		resolved := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			resolved[k] = v
		}
		if _, ok := resolved["namespace"]; !ok {
			if defaultNS == nil {
				return nil, fmt.Errorf("operations[%d]: no namespace on the operation and no default in the file", i)
			}
			resolved["namespace"] = defaultNS
		}

		op, err := ops.DecodeMap(resolved)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		batch = append(batch, op)
	}

	return batch, nil
}
