// Package testutil provides deterministic helpers shared by tests: a
// sequential transaction-id generator and namespace builders. Determinism
// here is what makes golden traces byte-stable across runs.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokenGenerator mints "prefix-1", "prefix-2", ... forever.
//
// Unlike ledger.FixedGenerator, which panics when its token list runs out,
// this generator never exhausts. Use it in scenarios where the number of
// transactions is not fixed up front.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokenGenerator creates a generator with the given prefix.
// An empty prefix defaults to "tx".
func NewSequentialTokenGenerator(prefix string) *SequentialTokenGenerator {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialTokenGenerator{prefix: prefix}
}

// Generate returns the next sequential token.
func (g *SequentialTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering. After Reset(), the next token is "prefix-1".
func (g *SequentialTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
