package ledger

import "github.com/provenant/provenant/internal/ops"

// Transaction is an ordered batch of operations validated and committed
// as a unit. The id is the idempotency key: resubmitting a committed id
// is a no-op.
type Transaction struct {
	ID  string
	Ops []ops.Operation
}

// Dependencies returns the de-duplicated union of the operations'
// dependency addresses, in first-mention order. This is the exact set of
// fragments the processor loads before applying the batch.
func (t Transaction) Dependencies() []ops.Address {
	var all []ops.Address
	for _, op := range t.Ops {
		all = append(all, op.Dependencies()...)
	}
	return ops.DedupAddresses(all)
}
