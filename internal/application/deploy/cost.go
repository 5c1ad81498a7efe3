// internal/application/deploy/cost.go
package deploy

import (
	"context"
	"log"
)

// LamportsPerSOL is the base-unit scale factor of the ledger.
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts an integer lamport amount into SOL. Standard
// floating-point division; no further rounding guarantees.
func LamportsToSOL(v uint64) float64 {
	return float64(v) / float64(LamportsPerSOL)
}

// Cost returns before−after, both SOL-denominated payer balances sampled
// immediately around a submission. Positive for a normal fee/rent spend,
// negative when the balance grew (rent refund after a withdraw).
func Cost(before, after float64) float64 {
	return before - after
}

// CostTracker derives the fee/rent delta consumed by each step by diffing the
// payer balance sampled immediately before and after the submission. The
// sampling is only meaningful because steps never run concurrently: the payer
// is the single shared mutable resource of the run.
type CostTracker struct {
	balances BalanceReader
	payer    string
}

func NewCostTracker(balances BalanceReader, payer string) *CostTracker {
	return &CostTracker{balances: balances, payer: payer}
}

// Sample reads the payer balance in SOL. ok=false when the read failed; a
// step cost is recorded as unknown (0) in that case rather than failing the
// step itself.
func (t *CostTracker) Sample(ctx context.Context) (float64, bool) {
	if t == nil || t.balances == nil || t.payer == "" {
		return 0, false
	}
	lamports, err := t.balances.Balance(ctx, t.payer)
	if err != nil {
		log.Printf("[cost] WARN: balance sample failed payer=%s err=%v", t.payer, err)
		return 0, false
	}
	return LamportsToSOL(lamports), true
}
