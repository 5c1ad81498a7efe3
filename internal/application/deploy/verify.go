// internal/application/deploy/verify.go
package deploy

import (
	"context"

	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
)

// ============================================================
// State verifier
// ============================================================

// Verifier fetches the on-chain candy machine account and compares it
// field-by-field against an expected state snapshot.
type Verifier struct {
	reader MachineReader
}

func NewVerifier(reader MachineReader) *Verifier {
	return &Verifier{reader: reader}
}

// Verify reads the machine at address and compares it against want. All
// mismatching fields are collected before reporting, so one verification
// failure names every divergent field at once. A fetch failure (missing
// account, RPC error) is reported as *FetchError, distinct from a
// value-level mismatch.
func (v *Verifier) Verify(ctx context.Context, address string, want cmdom.ExpectedState) error {
	machine, err := v.reader.ReadMachine(ctx, address)
	if err != nil {
		return &FetchError{Err: err}
	}

	if mismatches := want.Diff(machine); len(mismatches) > 0 {
		return &MismatchError{Mismatches: mismatches}
	}
	return nil
}
