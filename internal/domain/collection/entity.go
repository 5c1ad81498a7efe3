package collection

import (
	"errors"
	"strings"
)

// Collection is an MPL Core collection account that minted assets reference
// as their parent. Created once per deployment; mutated only by its update
// authority; never deleted by this workflow.
type Collection struct {
	Name            string // on-chain collection name
	URI             string // off-chain metadata JSON URL
	UpdateAuthority string // base58 pubkey of the update authority
	Royalties       Royalties
}

// Royalties mirrors the MPL Core royalties plugin: a seller-fee rate in basis
// points plus an ordered list of creator shares.
type Royalties struct {
	BasisPoints uint16
	Creators    []Creator
}

// Creator is one (address, percentage) royalty share.
type Creator struct {
	Address    string // base58 pubkey
	Percentage uint8  // 0..100; all shares must sum to exactly 100
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidName            = errors.New("collection: invalid name")
	ErrInvalidURI             = errors.New("collection: invalid uri")
	ErrInvalidUpdateAuthority = errors.New("collection: invalid updateAuthority")
	ErrInvalidBasisPoints     = errors.New("collection: basis points out of range [0,10000]")
	ErrNoCreators             = errors.New("collection: royalty creators are empty")
	ErrInvalidCreatorAddress  = errors.New("collection: invalid creator address")
	ErrCreatorShareSum        = errors.New("collection: creator shares must sum to exactly 100")
)

// ------------------------------------------------------
// Policy
// ------------------------------------------------------

var (
	MaxNameLen = 32
	MaxURILen  = 200

	// Seller fee is expressed in basis points (1/100 of a percent).
	MaxBasisPoints = uint16(10000)
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

// New validates and returns a Collection. Royalty invariants are enforced
// here so that an invalid configuration is rejected before any submission.
func New(name, uri, updateAuthority string, royalties Royalties) (Collection, error) {
	c := Collection{
		Name:            strings.TrimSpace(name),
		URI:             strings.TrimSpace(uri),
		UpdateAuthority: strings.TrimSpace(updateAuthority),
		Royalties:       royalties.normalized(),
	}
	if err := c.validate(); err != nil {
		return Collection{}, err
	}
	return c, nil
}

// NewRoyalties builds a Royalties config with a single validation pass.
func NewRoyalties(basisPoints uint16, creators []Creator) (Royalties, error) {
	r := Royalties{BasisPoints: basisPoints, Creators: creators}.normalized()
	if err := r.Validate(); err != nil {
		return Royalties{}, err
	}
	return r, nil
}

// ------------------------------------------------------
// Validation
// ------------------------------------------------------

func (c Collection) validate() error {
	if c.Name == "" || (MaxNameLen > 0 && len(c.Name) > MaxNameLen) {
		return ErrInvalidName
	}
	if c.URI == "" || (MaxURILen > 0 && len(c.URI) > MaxURILen) {
		return ErrInvalidURI
	}
	if !IsValidBase58Pubkey(c.UpdateAuthority) {
		return ErrInvalidUpdateAuthority
	}
	return c.Royalties.Validate()
}

// Validate checks the royalty invariants: basis points within [0,10000] and
// creator percentage shares summing to exactly 100.
func (r Royalties) Validate() error {
	if r.BasisPoints > MaxBasisPoints {
		return ErrInvalidBasisPoints
	}
	if len(r.Creators) == 0 {
		return ErrNoCreators
	}
	sum := 0
	for _, cr := range r.Creators {
		if !IsValidBase58Pubkey(cr.Address) {
			return ErrInvalidCreatorAddress
		}
		sum += int(cr.Percentage)
	}
	if sum != 100 {
		return ErrCreatorShareSum
	}
	return nil
}

func (r Royalties) normalized() Royalties {
	out := Royalties{BasisPoints: r.BasisPoints}
	if len(r.Creators) == 0 {
		return out
	}
	out.Creators = make([]Creator, 0, len(r.Creators))
	for _, cr := range r.Creators {
		out.Creators = append(out.Creators, Creator{
			Address:    strings.TrimSpace(cr.Address),
			Percentage: cr.Percentage,
		})
	}
	return out
}

// ------------------------------------------------------
// Helpers
// ------------------------------------------------------

// Solana pubkey is 32 bytes base58-encoded; observed length typically 32..44.
var (
	Base58MinLen   = 32
	Base58MaxLen   = 44
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// IsValidBase58Pubkey reports whether s looks like a base58-encoded 32-byte
// public key. Shared by the other domain packages via this one.
func IsValidBase58Pubkey(s string) bool {
	if s = strings.TrimSpace(s); s == "" {
		return false
	}
	if len(s) < Base58MinLen || (Base58MaxLen > 0 && len(s) > Base58MaxLen) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(base58Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
