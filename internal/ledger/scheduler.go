package ledger

import (
	"context"
	"sync"
)

// Scheduler validates a batch of transactions with conflict-aware
// concurrency.
//
// Two transactions conflict when their dependency sets share an address.
// The scheduler partitions the batch into conflict groups (transitive
// closure of sharing, via union-find over state keys) and runs disjoint
// groups concurrently, one goroutine per group. Within a group,
// transactions keep their submission order, so outcomes inside a group
// are deterministic; only commit seq assignment across groups follows
// completion order.
type Scheduler struct {
	proc *Processor
}

// NewScheduler creates a scheduler over a processor.
func NewScheduler(p *Processor) *Scheduler {
	return &Scheduler{proc: p}
}

// Outcome pairs a transaction's result with its error, positionally
// aligned with the submitted batch.
type Outcome struct {
	Result Result
	Err    error
}

// Run processes a batch. A failed transaction does not stop the rest of
// its group; each transaction gets its own outcome.
func (s *Scheduler) Run(ctx context.Context, txs []Transaction) []Outcome {
	outcomes := make([]Outcome, len(txs))
	groups := conflictGroups(txs)

	var wg sync.WaitGroup
	for _, group := range groups {
		wg.Add(1)
		go func(indices []int) {
			defer wg.Done()
			for _, i := range indices {
				res, err := s.proc.Process(ctx, txs[i])
				outcomes[i] = Outcome{Result: res, Err: err}
			}
		}(group)
	}
	wg.Wait()

	return outcomes
}

// conflictGroups partitions transaction indices into groups whose
// dependency sets are pairwise disjoint across groups. Groups list
// indices in submission order; the groups themselves are ordered by
// their first member.
func conflictGroups(txs []Transaction) [][]int {
	parent := make([]int, len(txs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	owner := make(map[string]int) // state key -> first tx that touched it
	for i, tx := range txs {
		for _, addr := range tx.Dependencies() {
			key := addr.StateKey()
			if first, ok := owner[key]; ok {
				union(first, i)
			} else {
				owner[key] = i
			}
		}
	}

	byRoot := make(map[int][]int)
	var order []int
	for i := range txs {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	groups := make([][]int, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}
