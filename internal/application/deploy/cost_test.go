// internal/application/deploy/cost_test.go
package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubBalances struct {
	lamports uint64
	err      error
}

func (s *stubBalances) Balance(ctx context.Context, address string) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.lamports, nil
}

func TestLamportsToSOL(t *testing.T) {
	require := require.New(t)

	require.InDelta(1.0, LamportsToSOL(1_000_000_000), 1e-12)
	require.InDelta(0.000005, LamportsToSOL(5_000), 1e-12)
	require.InDelta(1.999999999, LamportsToSOL(1_999_999_999), 1e-9)
	require.Zero(LamportsToSOL(0))
}

func TestCostDiff(t *testing.T) {
	require := require.New(t)

	// fee spend
	require.InDelta(0.002, Cost(5.0, 4.998), 1e-9)
	// no spend
	require.Zero(Cost(3.5, 3.5))
	// rent refund after a withdraw grows the balance
	require.InDelta(-0.5, Cost(1.0, 1.5), 1e-9)
}

func TestCostTrackerSample(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	tr := NewCostTracker(&stubBalances{lamports: 2_500_000_000}, "payer")
	got, ok := tr.Sample(ctx)
	require.True(ok)
	require.InDelta(2.5, got, 1e-9)
}

func TestCostTrackerSampleFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	tr := NewCostTracker(&stubBalances{err: errors.New("rpc down")}, "payer")
	_, ok := tr.Sample(ctx)
	require.False(ok)

	// unusable tracker never panics
	_, ok = NewCostTracker(nil, "").Sample(ctx)
	require.False(ok)
}
