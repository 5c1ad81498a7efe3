// internal/application/deploy/ports.go
package deploy

import (
	"context"
	"fmt"
	"strings"

	assetdom "github.com/joaotav/mpl-core/internal/domain/asset"
	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
)

// ============================================================
// Identities
// ============================================================

// Identity is one keypair the pipeline controls: the base58 address plus the
// 64-byte ed25519 secret. The secret lives only for the process lifetime and
// is handed to the ledger adapters for signing; it is never persisted.
type Identity struct {
	Address string
	Secret  []byte
}

// IdentityGenerator mints fresh keypairs for the collection, machine,
// treasury and every asset.
type IdentityGenerator interface {
	Generate() Identity
}

// ============================================================
// Ledger ports (アウトバウンド)
// ============================================================
//
// 1 回の呼び出し = 1 回のトランザクション送信。リトライは行わない。
// 送信が確認レベルに届かなかった場合は ConfirmError を返す契約。

// CollectionCreator submits the collection-creation transaction, royalties
// plugin included. Returns the transaction signature.
type CollectionCreator interface {
	CreateCollection(ctx context.Context, payer, collection Identity, c colldom.Collection) (string, error)
}

// MachineAdmin covers the three authority-side machine mutations: create the
// machine account bound to a collection, insert config lines, and withdraw
// (close) the account.
type MachineAdmin interface {
	CreateMachine(ctx context.Context, payer, machine Identity, m cmdom.CandyMachine) (string, error)
	LoadLines(ctx context.Context, payer Identity, machine string, index uint32, lines []cmdom.ConfigLine) (string, error)
	DeleteMachine(ctx context.Context, payer Identity, machine string) (string, error)
}

// AssetMinter submits one mint transaction: the machine mints a fresh asset
// into the collection and the payer pays priceLamports to the treasury in the
// same transaction.
type AssetMinter interface {
	MintAsset(ctx context.Context, payer, asset Identity, machine, collection, treasury string, priceLamports uint64) (string, error)
}

// MachineReader fetches the machine account state. Implementations return an
// error wrapping candymachine.ErrNotFound when the account does not exist so
// the verifier can tell "absent" apart from a field mismatch.
type MachineReader interface {
	ReadMachine(ctx context.Context, address string) (cmdom.CandyMachine, error)
}

// AssetEnumerator lists every asset whose collection back-reference matches
// the given collection.
type AssetEnumerator interface {
	AssetsByCollection(ctx context.Context, collection string) ([]assetdom.Asset, error)
}

// BalanceReader reads an address balance in lamports.
type BalanceReader interface {
	Balance(ctx context.Context, address string) (uint64, error)
}

// ============================================================
// Optional collaborators
// ============================================================

// MetadataUploader stages one item metadata JSON and returns its public URL.
// (GCS / Irys 実装は adapters 側。未設定ならステージングはスキップ。)
type MetadataUploader interface {
	UploadMetadata(ctx context.Context, data []byte) (string, error)
}

// ReportMailer sends the final report. Best-effort.
type ReportMailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// ============================================================
// Step failure taxonomy
// ============================================================

// Failure kinds recorded on a step. Submission errors and confirmation
// timeouts come from the ledger adapters; verify and fetch come from the
// state verifier.
const (
	KindSubmit  = "submit"
	KindConfirm = "confirm"
	KindVerify  = "verify"
	KindFetch   = "fetch"
)

// ConfirmError marks a transaction that was accepted by the RPC node but
// never reached the requested commitment within the adapter's poll window.
// The signature is kept so the run report can point at the pending tx.
type ConfirmError struct {
	Signature string
	Err       error
}

func (e *ConfirmError) Error() string {
	if e == nil {
		return "deploy: confirm error"
	}
	return fmt.Sprintf("deploy: tx %s not confirmed: %v", e.Signature, e.Err)
}

func (e *ConfirmError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MismatchError carries the collected field mismatches of one verification.
type MismatchError struct {
	Mismatches []cmdom.FieldMismatch
}

func (e *MismatchError) Error() string {
	if e == nil || len(e.Mismatches) == 0 {
		return "deploy: state mismatch"
	}
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.String())
	}
	return "deploy: state mismatch: " + strings.Join(parts, "; ")
}

// FetchError marks a verification that could not read the machine account at
// all — the operation may not have landed, as opposed to landing with wrong
// data.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "deploy: unable to fetch"
	}
	return fmt.Sprintf("deploy: unable to fetch machine state: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
