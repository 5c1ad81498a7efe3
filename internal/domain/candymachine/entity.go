package candymachine

import (
	"errors"
	"fmt"
	"strings"

	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
)

// CandyMachine is the on-chain distribution mechanism: a capacity-bounded,
// template-driven minting controller bound to one collection.
//
// 対応するオンチェーンアカウント (mpl-core-candy-machine) の読み取り結果を
// ドメインとして扱うための型。ItemsLoaded はアカウント末尾の hidden section
// から読み出した挿入済み config line 数。
type CandyMachine struct {
	Address        string // base58 pubkey of the machine account
	Authority      string // base58 pubkey allowed to administer the machine
	MintAuthority  string // base58 pubkey allowed to mint from the machine
	CollectionMint string // base58 pubkey of the bound collection
	ItemsAvailable uint64 // total item capacity, fixed at creation
	ItemsLoaded    uint64 // config lines inserted so far
	ItemsRedeemed  uint64 // assets minted so far
	IsMutable      bool
	Settings       ConfigLineSettings
}

// ConfigLineSettings is the item-naming/URI template: a shared prefix plus a
// per-item variable suffix of bounded length.
type ConfigLineSettings struct {
	PrefixName   string
	NameLength   uint32 // max length of the variable name suffix
	PrefixURI    string
	URILength    uint32 // max length of the variable uri suffix
	IsSequential bool   // mint order follows insertion order
}

// ConfigLine is one (name, uri) pair to insert; both are the variable
// suffixes, the prefixes come from ConfigLineSettings.
type ConfigLine struct {
	Name string
	URI  string
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidAuthority      = errors.New("candymachine: invalid authority")
	ErrInvalidCollectionMint = errors.New("candymachine: invalid collectionMint")
	ErrZeroCapacity          = errors.New("candymachine: itemsAvailable must be > 0")
	ErrNameSuffixTooLong     = errors.New("candymachine: config line name exceeds template length")
	ErrURISuffixTooLong      = errors.New("candymachine: config line uri exceeds template length")
	ErrCapacityExceeded      = errors.New("candymachine: itemsLoaded would exceed itemsAvailable")
	ErrSupplyExhausted       = errors.New("candymachine: itemsRedeemed would exceed itemsLoaded")
	ErrImmutable             = errors.New("candymachine: machine is immutable")
	ErrNotFound              = errors.New("candymachine: not found")
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

// New validates the creation-time parameters of a machine. Address is unknown
// until the account is created, so it may be empty here.
func New(authority, collectionMint string, itemsAvailable uint64, isMutable bool, settings ConfigLineSettings) (CandyMachine, error) {
	m := CandyMachine{
		Authority:      strings.TrimSpace(authority),
		MintAuthority:  strings.TrimSpace(authority),
		CollectionMint: strings.TrimSpace(collectionMint),
		ItemsAvailable: itemsAvailable,
		IsMutable:      isMutable,
		Settings:       settings,
	}
	if !colldom.IsValidBase58Pubkey(m.Authority) {
		return CandyMachine{}, ErrInvalidAuthority
	}
	if !colldom.IsValidBase58Pubkey(m.CollectionMint) {
		return CandyMachine{}, ErrInvalidCollectionMint
	}
	if m.ItemsAvailable == 0 {
		return CandyMachine{}, ErrZeroCapacity
	}
	return m, nil
}

// ------------------------------------------------------
// Mutators (local bookkeeping mirrors of the on-chain counters)
// ------------------------------------------------------

// LoadLines validates lines against the template and accounts for their
// insertion. The counter mirrors the on-chain itemsLoaded and must equal the
// number of lines inserted across all calls.
func (m *CandyMachine) LoadLines(lines []ConfigLine) error {
	for _, l := range lines {
		if err := m.Settings.ValidateLine(l); err != nil {
			return err
		}
	}
	if m.ItemsLoaded+uint64(len(lines)) > m.ItemsAvailable {
		return ErrCapacityExceeded
	}
	m.ItemsLoaded += uint64(len(lines))
	return nil
}

// Redeem accounts for one successful mint. ItemsRedeemed never exceeds
// ItemsLoaded and is monotonically non-decreasing.
func (m *CandyMachine) Redeem() error {
	if m.ItemsRedeemed >= m.ItemsLoaded {
		return ErrSupplyExhausted
	}
	m.ItemsRedeemed++
	return nil
}

// Remaining returns the number of assets that can still be minted.
func (m CandyMachine) Remaining() uint64 {
	if m.ItemsRedeemed >= m.ItemsLoaded {
		return 0
	}
	return m.ItemsLoaded - m.ItemsRedeemed
}

// SetSettings replaces the naming template. Once IsMutable is false the
// template is frozen.
func (m *CandyMachine) SetSettings(s ConfigLineSettings) error {
	if !m.IsMutable {
		return ErrImmutable
	}
	m.Settings = s
	return nil
}

// ------------------------------------------------------
// Template helpers
// ------------------------------------------------------

// ValidateLine checks the variable suffix lengths against the template.
func (s ConfigLineSettings) ValidateLine(l ConfigLine) error {
	if uint32(len(l.Name)) > s.NameLength {
		return ErrNameSuffixTooLong
	}
	if uint32(len(l.URI)) > s.URILength {
		return ErrURISuffixTooLong
	}
	return nil
}

// FullName joins the template prefix with a line's variable name suffix.
func (s ConfigLineSettings) FullName(suffix string) string {
	return s.PrefixName + suffix
}

// FullURI joins the template prefix with a line's variable uri suffix.
func (s ConfigLineSettings) FullURI(suffix string) string {
	return s.PrefixURI + suffix
}

// Line renders the numbered config line for index i (zero-based). Sequential
// deployments name items by their 1-based position, the usual convention for
// "<prefix>#1", "<prefix>#2", ... drops.
func (s ConfigLineSettings) Line(i uint64, uriSuffix string) ConfigLine {
	return ConfigLine{
		Name: fmt.Sprintf("%d", i+1),
		URI:  uriSuffix,
	}
}

// ------------------------------------------------------
// Expected-state assertion
// ------------------------------------------------------

// ExpectedState is the ephemeral comparison record checked against the
// on-chain machine account after a mutating step. It is never persisted.
type ExpectedState struct {
	ItemsRedeemed  uint64
	ItemsLoaded    uint64
	Authority      string // base58 pubkey
	CollectionMint string // base58 pubkey
}

// FieldMismatch is one expected-vs-actual divergence found by Diff.
type FieldMismatch struct {
	Field string
	Want  string
	Got   string
}

func (fm FieldMismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", fm.Field, fm.Want, fm.Got)
}

// Diff compares the machine against the expectation, in order: itemsRedeemed,
// itemsLoaded, authority, collectionMint. All mismatches are collected rather
// than stopping at the first, so a single run reports every diverging field.
// Counts use numeric equality, addresses exact base58 string equality.
func (e ExpectedState) Diff(m CandyMachine) []FieldMismatch {
	var out []FieldMismatch
	if m.ItemsRedeemed != e.ItemsRedeemed {
		out = append(out, FieldMismatch{
			Field: "itemsRedeemed",
			Want:  fmt.Sprintf("%d", e.ItemsRedeemed),
			Got:   fmt.Sprintf("%d", m.ItemsRedeemed),
		})
	}
	if m.ItemsLoaded != e.ItemsLoaded {
		out = append(out, FieldMismatch{
			Field: "itemsLoaded",
			Want:  fmt.Sprintf("%d", e.ItemsLoaded),
			Got:   fmt.Sprintf("%d", m.ItemsLoaded),
		})
	}
	if want := strings.TrimSpace(e.Authority); want != "" && m.Authority != want {
		out = append(out, FieldMismatch{Field: "authority", Want: want, Got: m.Authority})
	}
	if want := strings.TrimSpace(e.CollectionMint); want != "" && m.CollectionMint != want {
		out = append(out, FieldMismatch{Field: "collectionMint", Want: want, Got: m.CollectionMint})
	}
	return out
}
