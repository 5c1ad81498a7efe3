// internal/application/deploy/step_test.go
package deploy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
)

type blankError struct{}

func (blankError) Error() string { return "" }

func newTestRunner() *Runner {
	// no usable balance source: costs stay at 0
	return NewRunner(NewCostTracker(nil, ""))
}

func TestRunnerRecordsSuccess(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	r := newTestRunner()

	res := r.Run(ctx, "create collection", func(ctx context.Context) (string, error) {
		return "sig=abc", nil
	})

	require.True(res.OK)
	require.Equal(1, res.Index)
	require.Equal("create collection", res.Label)
	require.Equal("sig=abc", res.Detail)
	require.Empty(res.Err)
	require.Empty(res.Kind)
}

func TestRunnerFailureDoesNotStopNextStep(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	r := newTestRunner()

	first := r.Run(ctx, "load config lines", func(ctx context.Context) (string, error) {
		return "", errors.New("blockhash expired")
	})
	second := r.Run(ctx, "verify machine state", func(ctx context.Context) (string, error) {
		return "clean", nil
	})

	require.False(first.OK)
	require.Equal(1, first.Index)
	require.Equal("blockhash expired", first.Err)

	require.True(second.OK)
	require.Equal(2, second.Index)

	results := r.Results()
	require.Len(results, 2)
	require.False(results[0].OK)
	require.True(results[1].OK)
}

func TestRunnerFailureKinds(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"submit", errors.New("node rejected tx"), KindSubmit},
		{"confirm", &ConfirmError{Signature: "sig", Err: errors.New("timeout")}, KindConfirm},
		{"wrapped confirm", fmt.Errorf("mint 2: %w", &ConfirmError{Signature: "sig", Err: errors.New("timeout")}), KindConfirm},
		{"verify", &MismatchError{Mismatches: []cmdom.FieldMismatch{{Field: "itemsRedeemed", Want: "2", Got: "3"}}}, KindVerify},
		{"fetch", &FetchError{Err: errors.New("account not found")}, KindFetch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRunner()
			res := r.Run(ctx, "step", func(ctx context.Context) (string, error) {
				return "", tc.err
			})
			require.False(res.OK)
			require.Equal(tc.kind, res.Kind)
			require.NotEmpty(res.Err)
		})
	}
}

func TestRunnerGenericMarkerForBlankError(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	r := newTestRunner()

	res := r.Run(ctx, "step", func(ctx context.Context) (string, error) {
		return "", blankError{}
	})

	require.False(res.OK)
	require.Equal("unknown error", res.Err)
}
