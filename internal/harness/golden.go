package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/provenant/provenant/internal/prov"
)

// TraceSnapshot captures the full trace of one scenario execution. It
// serializes as canonical JSON, so comparisons are byte-stable.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Pass         bool         `json:"pass"`
	Trace        []TraceEvent `json:"trace"`
	Errors       []string     `json:"errors,omitempty"`
}

// toCanonicalMap converts the snapshot to a plain map for canonical JSON
// serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":   event.Step,
			"tx_id":  event.TxID,
			"status": event.Status,
		}
		if event.Seq != 0 {
			eventMap["seq"] = event.Seq
		}
		if len(event.Dirty) > 0 {
			dirty := make([]any, len(event.Dirty))
			for j, addr := range event.Dirty {
				dirty[j] = addr
			}
			eventMap["dirty"] = dirty
		}
		if event.Kind != "" {
			eventMap["kind"] = event.Kind
		}
		if event.Detail != "" {
			eventMap["detail"] = event.Detail
		}
		traceList[i] = eventMap
	}

	doc := map[string]any{
		"scenario_name": s.ScenarioName,
		"pass":          s.Pass,
		"trace":         traceList,
	}
	if len(s.Errors) > 0 {
		errs := make([]any, len(s.Errors))
		for i, e := range s.Errors {
			errs[i] = e
		}
		doc["errors"] = errs
	}
	return doc
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-computed result's trace against a
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Errors:       result.Errors,
	}
	traceJSON, err := marshalSnapshot(&snapshot)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

// marshalSnapshot serializes a snapshot to canonical JSON.
func marshalSnapshot(s *TraceSnapshot) ([]byte, error) {
	return prov.MarshalCanonical(s.toCanonicalMap())
}
