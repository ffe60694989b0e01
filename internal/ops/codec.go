package ops

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/provenant/provenant/internal/prov"
)

// Operation log encoding. Operations are persisted (and loaded from
// operation files) as canonical JSON with an "op" kind tag. This is the
// internal log format, not a wire format: transport encodings live outside
// the core.

const opTimeFormat = time.RFC3339Nano

// Encode serializes an operation to canonical JSON.
func Encode(op Operation) ([]byte, error) {
	doc, err := opToMap(op)
	if err != nil {
		return nil, err
	}
	return prov.MarshalCanonical(doc)
}

// opToMap builds the tagged document for one operation. Optional fields
// are omitted when unset so the canonical form is minimal.
func opToMap(op Operation) (map[string]any, error) {
	switch o := op.(type) {
	case CreateNamespace:
		return map[string]any{
			"op":        string(KindCreateNamespace),
			"namespace": prov.NamespaceIDToMap(o.ID),
		}, nil

	case AgentExists:
		return map[string]any{
			"op":        string(KindAgentExists),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"id":        string(o.ID),
		}, nil

	case ActivityExists:
		return map[string]any{
			"op":        string(KindActivityExists),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"id":        string(o.ID),
		}, nil

	case EntityExists:
		return map[string]any{
			"op":        string(KindEntityExists),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"id":        string(o.ID),
		}, nil

	case StartActivity:
		return map[string]any{
			"op":        string(KindStartActivity),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"id":        string(o.ID),
			"time":      o.Time.UTC().Format(opTimeFormat),
		}, nil

	case EndActivity:
		return map[string]any{
			"op":        string(KindEndActivity),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"id":        string(o.ID),
			"time":      o.Time.UTC().Format(opTimeFormat),
		}, nil

	case ActivityUses:
		return map[string]any{
			"op":        string(KindActivityUses),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"activity":  string(o.Activity),
			"entity":    string(o.Entity),
		}, nil

	case WasGeneratedBy:
		return map[string]any{
			"op":        string(KindWasGeneratedBy),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"activity":  string(o.Activity),
			"entity":    string(o.Entity),
		}, nil

	case WasInformedBy:
		return map[string]any{
			"op":        string(KindWasInformedBy),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"activity":  string(o.Activity),
			"informing": string(o.Informing),
		}, nil

	case AgentActsOnBehalfOf:
		doc := map[string]any{
			"op":          string(KindAgentActsOnBehalfOf),
			"namespace":   prov.NamespaceIDToMap(o.Namespace),
			"delegate":    string(o.Delegate),
			"responsible": string(o.Responsible),
		}
		if o.Activity != "" {
			doc["activity"] = string(o.Activity)
		}
		if o.Role != "" {
			doc["role"] = string(o.Role)
		}
		return doc, nil

	case WasAssociatedWith:
		doc := map[string]any{
			"op":        string(KindWasAssociatedWith),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"activity":  string(o.Activity),
			"agent":     string(o.Agent),
		}
		if o.Role != "" {
			doc["role"] = string(o.Role)
		}
		return doc, nil

	case WasAttributedTo:
		doc := map[string]any{
			"op":        string(KindWasAttributedTo),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"entity":    string(o.Entity),
			"agent":     string(o.Agent),
		}
		if o.Role != "" {
			doc["role"] = string(o.Role)
		}
		return doc, nil

	case EntityDerive:
		doc := map[string]any{
			"op":        string(KindEntityDerive),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"generated": string(o.Generated),
			"used":      string(o.Used),
			"kind":      o.Derivation.String(),
		}
		if o.Activity != "" {
			doc["activity"] = string(o.Activity)
		}
		return doc, nil

	case AgentHasIdentity:
		return map[string]any{
			"op":        string(KindAgentHasIdentity),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"agent":     string(o.Agent),
			"identity":  prov.IdentityIDToMap(o.Identity),
		}, nil

	case SetAttributes:
		doc := map[string]any{
			"op":        string(KindSetAttributes),
			"namespace": prov.NamespaceIDToMap(o.Namespace),
			"subject":   string(o.Subject),
			"id":        string(o.ID),
		}
		if o.DomainType != "" {
			doc["domain_type"] = string(o.DomainType)
		}
		if len(o.Attributes) > 0 {
			doc["attributes"] = prov.AttributesToMap(o.Attributes)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("encode: unhandled operation kind %T", op)
	}
}

type opWire struct {
	Op          string                            `json:"op"`
	Namespace   prov.NamespaceIDWire              `json:"namespace"`
	ID          string                            `json:"id"`
	Time        string                            `json:"time"`
	Activity    string                            `json:"activity"`
	Entity      string                            `json:"entity"`
	Agent       string                            `json:"agent"`
	Informing   string                            `json:"informing"`
	Delegate    string                            `json:"delegate"`
	Responsible string                            `json:"responsible"`
	Generated   string                            `json:"generated"`
	Used        string                            `json:"used"`
	Role        string                            `json:"role"`
	Kind        string                            `json:"kind"`
	Subject     string                            `json:"subject"`
	DomainType  string                            `json:"domain_type"`
	Identity    *prov.IdentityIDWire              `json:"identity"`
	Attributes  map[string]prov.AttributeWire     `json:"attributes"`
}

// Decode parses one serialized operation.
func Decode(data []byte) (Operation, error) {
	var w opWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return w.toOperation()
}

// DecodeMap parses an operation from a decoded document (e.g. one entry of
// a YAML operations file). The map is round-tripped through JSON so YAML
// and JSON sources decode identically.
func DecodeMap(doc map[string]any) (Operation, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return Decode(data)
}

func (w opWire) toOperation() (Operation, error) {
	ns, err := w.Namespace.ToID()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", w.Op, err)
	}

	switch Kind(w.Op) {
	case KindCreateNamespace:
		return CreateNamespace{ID: ns}, nil

	case KindAgentExists:
		return AgentExists{Namespace: ns, ID: prov.AgentID(w.ID)}, nil

	case KindActivityExists:
		return ActivityExists{Namespace: ns, ID: prov.ActivityID(w.ID)}, nil

	case KindEntityExists:
		return EntityExists{Namespace: ns, ID: prov.EntityID(w.ID)}, nil

	case KindStartActivity:
		t, err := parseOpTime(w.Time)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", w.Op, err)
		}
		return StartActivity{Namespace: ns, ID: prov.ActivityID(w.ID), Time: t}, nil

	case KindEndActivity:
		t, err := parseOpTime(w.Time)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", w.Op, err)
		}
		return EndActivity{Namespace: ns, ID: prov.ActivityID(w.ID), Time: t}, nil

	case KindActivityUses:
		return ActivityUses{
			Namespace: ns,
			Activity:  prov.ActivityID(w.Activity),
			Entity:    prov.EntityID(w.Entity),
		}, nil

	case KindWasGeneratedBy:
		return WasGeneratedBy{
			Namespace: ns,
			Activity:  prov.ActivityID(w.Activity),
			Entity:    prov.EntityID(w.Entity),
		}, nil

	case KindWasInformedBy:
		return WasInformedBy{
			Namespace: ns,
			Activity:  prov.ActivityID(w.Activity),
			Informing: prov.ActivityID(w.Informing),
		}, nil

	case KindAgentActsOnBehalfOf:
		return AgentActsOnBehalfOf{
			Namespace:   ns,
			Delegate:    prov.AgentID(w.Delegate),
			Responsible: prov.AgentID(w.Responsible),
			Activity:    prov.ActivityID(w.Activity),
			Role:        prov.Role(w.Role),
		}, nil

	case KindWasAssociatedWith:
		return WasAssociatedWith{
			Namespace: ns,
			Activity:  prov.ActivityID(w.Activity),
			Agent:     prov.AgentID(w.Agent),
			Role:      prov.Role(w.Role),
		}, nil

	case KindWasAttributedTo:
		return WasAttributedTo{
			Namespace: ns,
			Entity:    prov.EntityID(w.Entity),
			Agent:     prov.AgentID(w.Agent),
			Role:      prov.Role(w.Role),
		}, nil

	case KindEntityDerive:
		kind, err := prov.ParseDerivationKind(w.Kind)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", w.Op, err)
		}
		return EntityDerive{
			Namespace:  ns,
			Generated:  prov.EntityID(w.Generated),
			Used:       prov.EntityID(w.Used),
			Activity:   prov.ActivityID(w.Activity),
			Derivation: kind,
		}, nil

	case KindAgentHasIdentity:
		if w.Identity == nil {
			return nil, fmt.Errorf("decode %s: missing identity", w.Op)
		}
		return AgentHasIdentity{
			Namespace: ns,
			Agent:     prov.AgentID(w.Agent),
			Identity:  w.Identity.ToID(),
		}, nil

	case KindSetAttributes:
		subject := SubjectKind(w.Subject)
		switch subject {
		case SubjectAgent, SubjectActivity, SubjectEntity:
		default:
			return nil, fmt.Errorf("decode %s: unknown subject %q", w.Op, w.Subject)
		}
		attrs, err := prov.DecodeAttributes(w.Attributes)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", w.Op, err)
		}
		return SetAttributes{
			Namespace:  ns,
			Subject:    subject,
			ID:         prov.ExternalID(w.ID),
			DomainType: prov.DomainTypeID(w.DomainType),
			Attributes: attrs,
		}, nil

	default:
		return nil, fmt.Errorf("decode: unknown operation kind %q", w.Op)
	}
}

func parseOpTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing time")
	}
	t, err := time.Parse(opTimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
