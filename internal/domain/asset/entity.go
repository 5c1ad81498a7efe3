package asset

import (
	"errors"
	"strings"

	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
)

// Asset is one minted on-chain item: name, metadata URI, owner and the
// collection it back-references. The creation identity is immutable; only the
// owner may change later through a transfer, which this workflow does not do.
type Asset struct {
	Address    string // base58 pubkey of the asset account
	Collection string // base58 pubkey of the parent collection
	Owner      string // base58 pubkey of the current owner
	Name       string
	URI        string
}

// Errors
var (
	ErrInvalidAddress    = errors.New("asset: invalid address")
	ErrInvalidCollection = errors.New("asset: invalid collection")
	ErrInvalidOwner      = errors.New("asset: invalid owner")
	ErrInvalidName       = errors.New("asset: invalid name")
)

// Constructors

func New(address, collection, owner, name, uri string) (Asset, error) {
	a := Asset{
		Address:    strings.TrimSpace(address),
		Collection: strings.TrimSpace(collection),
		Owner:      strings.TrimSpace(owner),
		Name:       strings.TrimSpace(name),
		URI:        strings.TrimSpace(uri),
	}
	if err := a.validate(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// Validation

func (a Asset) validate() error {
	if !colldom.IsValidBase58Pubkey(a.Address) {
		return ErrInvalidAddress
	}
	if !colldom.IsValidBase58Pubkey(a.Collection) {
		return ErrInvalidCollection
	}
	if !colldom.IsValidBase58Pubkey(a.Owner) {
		return ErrInvalidOwner
	}
	if a.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// BelongsTo reports whether the asset's back-reference matches collection.
func (a Asset) BelongsTo(collection string) bool {
	return a.Collection != "" && a.Collection == strings.TrimSpace(collection)
}
