// internal/infra/solana/program/candymachine/accounts.go
package candymachine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

var (
	ErrDataTooShort        = errors.New("candymachine: account data too short")
	ErrWrongDiscriminator  = errors.New("candymachine: wrong account discriminator")
	ErrMissingLineSettings = errors.New("candymachine: config line settings are required")
	ErrConflictingSettings = errors.New("candymachine: config line and hidden settings are exclusive")
)

// ConfigLine is one (name, uri) pair; both are suffixes under the template.
type ConfigLine struct {
	Name string
	URI  string
}

// ConfigLineSettings is the name/uri template fixed at initialization.
type ConfigLineSettings struct {
	PrefixName   string
	NameLength   uint32
	PrefixURI    string
	URILength    uint32
	IsSequential bool
}

// HiddenSettings replaces config lines for hide-and-reveal drops.
type HiddenSettings struct {
	Name string
	URI  string
	Hash [32]byte
}

// Data is the machine configuration written by initialize.
type Data struct {
	ItemsAvailable     uint64
	MaxEditionSupply   uint64
	IsMutable          bool
	ConfigLineSettings *ConfigLineSettings
	HiddenSettings     *HiddenSettings
}

// accountBody is the borsh-decoded fixed part after the discriminator.
type accountBody struct {
	Version        uint8
	Authority      common.PublicKey
	MintAuthority  common.PublicKey
	CollectionMint common.PublicKey
	ItemsRedeemed  uint64
	Data           Data
}

// Account is the decoded on-chain machine state. ItemsLoaded lives in the
// unstructured tail after the hidden section, not in the borsh body.
type Account struct {
	Version        uint8
	Authority      common.PublicKey
	MintAuthority  common.PublicKey
	CollectionMint common.PublicKey
	ItemsRedeemed  uint64
	ItemsLoaded    uint32
	Data           Data
}

// Serialized account geometry. The program reserves space for the maximum
// template lengths regardless of the actual strings, so the hidden section
// always starts at the same offset.
const (
	maxNameLength = 32
	maxURILength  = 200

	// HiddenSectionOffset = 8 discriminator + 1 version + 3*32 pubkeys +
	// 8 itemsRedeemed + data (8+8+1 + option'd settings at max lengths).
	HiddenSectionOffset = 8 + 1 + 32 + 32 + 32 + 8 +
		8 + 8 + 1 +
		1 + 4 + maxNameLength + 4 + 4 + maxURILength + 4 + 1 +
		1 + 4 + maxNameLength + 4 + maxURILength + 32
)

// ConfigLineSize is the per-item byte size reserved for one config line.
func (d Data) ConfigLineSize() uint64 {
	if d.ConfigLineSettings == nil {
		return 0
	}
	return uint64(d.ConfigLineSettings.NameLength) + uint64(d.ConfigLineSettings.URILength)
}

// SpaceFor returns the account size to allocate for the machine: the fixed
// hidden section, the line count, the raw lines, the taken-bitmask and the
// mint-order indices.
func SpaceFor(d Data) (uint64, error) {
	if d.HiddenSettings != nil {
		if d.ConfigLineSettings != nil {
			return 0, ErrConflictingSettings
		}
		return HiddenSectionOffset, nil
	}
	if d.ConfigLineSettings == nil {
		return 0, ErrMissingLineSettings
	}
	items := d.ItemsAvailable
	return HiddenSectionOffset +
		4 +
		items*d.ConfigLineSize() +
		items/8 + 1 +
		4*items, nil
}

// ParseAccount decodes a machine account: discriminator check, borsh body,
// then the loaded-line counter at the fixed hidden-section offset.
func ParseAccount(data []byte) (Account, error) {
	if len(data) < HiddenSectionOffset+4 {
		return Account{}, fmt.Errorf("%w: len=%d", ErrDataTooShort, len(data))
	}
	if !bytes.Equal(data[:8], accountDiscriminator[:]) {
		return Account{}, ErrWrongDiscriminator
	}

	var body accountBody
	if err := borsh.Deserialize(&body, data[8:]); err != nil {
		return Account{}, fmt.Errorf("candymachine: decode account: %w", err)
	}

	return Account{
		Version:        body.Version,
		Authority:      body.Authority,
		MintAuthority:  body.MintAuthority,
		CollectionMint: body.CollectionMint,
		ItemsRedeemed:  body.ItemsRedeemed,
		ItemsLoaded:    binary.LittleEndian.Uint32(data[HiddenSectionOffset : HiddenSectionOffset+4]),
		Data:           body.Data,
	}, nil
}
