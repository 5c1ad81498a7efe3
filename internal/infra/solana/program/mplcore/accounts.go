// internal/infra/solana/program/mplcore/accounts.go
package mplcore

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

var (
	ErrDataTooShort = errors.New("mplcore: account data too short")
	ErrNotAssetV1   = errors.New("mplcore: not an AssetV1 account")
)

// AssetV1 is the base asset account. Plugin header/registry bytes may follow
// the base record; borsh decoding ignores them.
type AssetV1 struct {
	Key             uint8
	Owner           common.PublicKey
	UpdateAuthority UpdateAuthority
	Name            string
	URI             string
	Seq             *uint64
}

// CollectionV1 is the collection account header.
type CollectionV1 struct {
	Key             uint8
	UpdateAuthority common.PublicKey
	Name            string
	URI             string
	NumMinted       uint32
	CurrentSize     uint32
}

// getProgramAccounts memcmp offsets on AssetV1: the discriminant byte sits at
// 0; the update-authority enum follows the key byte and the 32-byte owner.
const (
	AssetKeyOffset             = 0
	AssetUpdateAuthorityOffset = 1 + 32
)

// AssetKeyFilterBytes returns the memcmp bytes selecting AssetV1 accounts.
func AssetKeyFilterBytes() []byte {
	return []byte{KeyAssetV1}
}

// CollectionFilterBytes returns the memcmp bytes selecting assets whose
// update authority is the given collection (enum tag + collection pubkey).
func CollectionFilterBytes(collection common.PublicKey) []byte {
	out := make([]byte, 0, 1+32)
	out = append(out, UpdateAuthorityCollection)
	out = append(out, collection.Bytes()...)
	return out
}

// ParseAssetV1 decodes the base asset record from raw account data.
func ParseAssetV1(data []byte) (AssetV1, error) {
	if len(data) == 0 {
		return AssetV1{}, ErrDataTooShort
	}
	if data[0] != KeyAssetV1 {
		return AssetV1{}, fmt.Errorf("%w: key=%d", ErrNotAssetV1, data[0])
	}

	var asset AssetV1
	if err := borsh.Deserialize(&asset, data); err != nil {
		return AssetV1{}, fmt.Errorf("mplcore: decode AssetV1: %w", err)
	}
	return asset, nil
}

// CollectionAddress returns the collection an asset belongs to, when its
// update authority is a collection.
func (a AssetV1) CollectionAddress() (common.PublicKey, bool) {
	if uint8(a.UpdateAuthority.Enum) != UpdateAuthorityCollection {
		return common.PublicKey{}, false
	}
	return a.UpdateAuthority.Collection, true
}
