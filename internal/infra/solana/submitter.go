// internal/infra/solana/submitter.go
package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/joaotav/mpl-core/internal/application/deploy"
)

// Submitter builds, signs, submits and confirms one transaction per call.
// 送信は 1 回だけ（リトライなし）。確認は設定コミットメントに届くまで
// getSignatureStatuses をポーリングする。
type Submitter struct {
	rpc   RPCClient
	chain *client.Client // typed client for blockhash lookups

	Commitment    string
	SkipPreflight bool

	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

func NewSubmitter(rpc RPCClient, chain *client.Client, commitment string, skipPreflight bool) *Submitter {
	return &Submitter{
		rpc:            rpc,
		chain:          chain,
		Commitment:     NormalizeCommitment(commitment),
		SkipPreflight:  skipPreflight,
		ConfirmTimeout: 60 * time.Second,
		PollInterval:   2 * time.Second,
	}
}

// SubmitAndConfirm signs the instructions with the fee payer plus the extra
// signers, submits once, and waits for the configured commitment. A
// submission that lands but never reaches the commitment in time comes back
// as *deploy.ConfirmError carrying the signature.
func (s *Submitter) SubmitAndConfirm(
	ctx context.Context,
	feePayer types.Account,
	extraSigners []types.Account,
	instructions []types.Instruction,
) (string, error) {
	if s == nil || s.rpc == nil || s.chain == nil {
		return "", fmt.Errorf("submitter: not configured")
	}
	if len(instructions) == 0 {
		return "", fmt.Errorf("submitter: no instructions")
	}

	recent, err := s.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("submitter: GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: dedupeSigners(feePayer, extraSigners),
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("submitter: NewTransaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("submitter: serialize transaction: %w", err)
	}

	sig, err := s.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(raw), SendTransactionConfig{
		SkipPreflight:       s.SkipPreflight,
		PreflightCommitment: s.Commitment,
	})
	if err != nil {
		return "", fmt.Errorf("submitter: send transaction: %w", err)
	}
	log.Printf("[submitter] submitted sig=%s commitment=%s skipPreflight=%t", maskShort(sig), s.Commitment, s.SkipPreflight)

	if err := s.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s *Submitter) confirm(ctx context.Context, sig string) error {
	start := time.Now()
	deadline := start.Add(s.ConfirmTimeout)

	for {
		statuses, err := s.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err != nil {
			log.Printf("[submitter] WARN: status poll failed sig=%s err=%v", maskShort(sig), err)
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Failed() {
				return fmt.Errorf("submitter: tx %s failed on chain: %s", sig, string(st.Err))
			}
			if st.Reached(s.Commitment) {
				log.Printf("[submitter] confirmed sig=%s status=%s elapsed=%s", maskShort(sig), st.ConfirmationStatus, time.Since(start))
				return nil
			}
		}

		if time.Now().After(deadline) {
			return &deploy.ConfirmError{
				Signature: sig,
				Err:       fmt.Errorf("commitment %s not reached within %s", s.Commitment, s.ConfirmTimeout),
			}
		}

		select {
		case <-ctx.Done():
			return &deploy.ConfirmError{Signature: sig, Err: ctx.Err()}
		case <-time.After(s.PollInterval):
		}
	}
}

// maskShort はログ用に長い base58 文字列を短縮する（エラーには使わない）。
func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}

// dedupeSigners keeps the fee payer first and drops duplicate keypairs.
func dedupeSigners(feePayer types.Account, extra []types.Account) []types.Account {
	out := []types.Account{feePayer}
	seen := map[string]struct{}{feePayer.PublicKey.ToBase58(): {}}
	for _, acc := range extra {
		key := acc.PublicKey.ToBase58()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, acc)
	}
	return out
}
