package ledger

import (
	"errors"
	"fmt"
)

// ProcessError attaches the failing transaction id to the underlying
// cause. Unwrap keeps contradictions reachable through errors.As, so
// callers can still pull out the *ops.Contradiction detail.
type ProcessError struct {
	TxID string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TxID, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// AsProcessError extracts a ProcessError from an error chain.
func AsProcessError(err error) (*ProcessError, bool) {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
