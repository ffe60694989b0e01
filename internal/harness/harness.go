package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/provenant/provenant/internal/ledger"
	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/store"
	"github.com/provenant/provenant/internal/testutil"
)

// TraceEvent is one step outcome in a scenario trace.
type TraceEvent struct {
	Step   string   `json:"step"`
	TxID   string   `json:"tx_id"`
	Status string   `json:"status"` // "ok" or "contradiction"
	Seq    int64    `json:"seq,omitempty"`
	Dirty  []string `json:"dirty,omitempty"` // changed addresses, sorted
	Kind   string   `json:"kind,omitempty"`  // contradiction kind
	Detail string   `json:"detail,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and final-state assertion held.
	Pass bool `json:"pass"`

	// Trace records each step's outcome in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records an expectation failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store. Transaction ids
// come from a sequential generator and commits from the logical clock,
// so the same scenario always produces a byte-identical trace.
//
// Infrastructure failures (bad YAML operations, store errors) return an
// error; expectation mismatches fail the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	ns, err := scenario.Namespace.ToID()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := ledger.NewProcessor(st, ledger.NewClock(), logger)
	gen := testutil.NewSequentialTokenGenerator("tx")

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}

		batch, err := decodeStepOperations(step, ns)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", name, err)
		}

		tx := ledger.Transaction{ID: gen.Generate(), Ops: batch}
		res, err := proc.Process(ctx, tx)
		switch {
		case err == nil:
			event := TraceEvent{
				Step:   name,
				TxID:   tx.ID,
				Status: ExpectOK,
				Seq:    res.Seq,
			}
			for _, addr := range res.Dirty {
				event.Dirty = append(event.Dirty, addr.String())
			}
			result.Trace = append(result.Trace, event)
			checkOKExpectation(result, name, step.Expect, res)

		default:
			c, ok := ops.AsContradiction(err)
			if !ok {
				return nil, fmt.Errorf("step %q: %w", name, err)
			}
			result.Trace = append(result.Trace, TraceEvent{
				Step:   name,
				TxID:   tx.ID,
				Status: ExpectContradiction,
				Kind:   string(c.Kind),
				Detail: c.Error(),
			})
			checkContradictionExpectation(result, name, step.Expect, c)
		}
	}

	final, err := st.ReplayAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay final state: %w", err)
	}
	evaluateFinalState(result, final, ns, scenario.FinalState)

	return result, nil
}

// decodeStepOperations decodes a step's operation documents, injecting
// the scenario namespace into any document that does not carry its own.
func decodeStepOperations(step Step, ns prov.NamespaceID) ([]ops.Operation, error) {
	batch := make([]ops.Operation, 0, len(step.Operations))
	for i, doc := range step.Operations {
		resolved := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			resolved[k] = v
		}
		if _, ok := resolved["namespace"]; !ok {
			resolved["namespace"] = prov.NamespaceIDToMap(ns)
		}

		op, err := ops.DecodeMap(resolved)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		batch = append(batch, op)
	}
	return batch, nil
}

func checkOKExpectation(result *Result, step string, expect *ExpectClause, res ledger.Result) {
	if expect == nil {
		return
	}
	if expect.Status != ExpectOK {
		result.AddError("step %q: expected %s, got ok (seq %d)", step, expect.Status, res.Seq)
		return
	}
	if expect.Dirty != nil && *expect.Dirty != len(res.Dirty) {
		result.AddError("step %q: dirty fragments = %d, want %d", step, len(res.Dirty), *expect.Dirty)
	}
}

func checkContradictionExpectation(result *Result, step string, expect *ExpectClause, c *ops.Contradiction) {
	if expect == nil || expect.Status != ExpectContradiction {
		result.AddError("step %q: unexpected contradiction: %v", step, c)
		return
	}
	if expect.Kind != "" && expect.Kind != string(c.Kind) {
		result.AddError("step %q: contradiction kind = %s, want %s", step, c.Kind, expect.Kind)
	}
}
