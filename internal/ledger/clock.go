package ledger

import (
	"context"
	"sync/atomic"
)

// Clock is the monotonic logical clock that stamps commits.
//
// Every committed transaction carries a strictly increasing seq from this
// clock. Logical time keeps ordering deterministic: no wall-clock race
// conditions, replay produces the identical order, and causal
// relationships stay explicit.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume from the last committed position after a restart.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// seqSource is the slice of the store the clock resumes from.
type seqSource interface {
	LastSeq(ctx context.Context) (int64, error)
}

// ResumeClock creates a clock positioned after the highest committed seq,
// so the next commit continues the log where the previous run stopped.
func ResumeClock(ctx context.Context, src seqSource) (*Clock, error) {
	last, err := src.LastSeq(ctx)
	if err != nil {
		return nil, err
	}
	return NewClockAt(last), nil
}
