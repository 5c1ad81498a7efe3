// internal/infra/solana/program/mplcore/mplcore_test.go
package mplcore

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"
)

var (
	testCollection = common.PublicKeyFromString("GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG")
	testAuthority  = common.PublicKeyFromString("7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2")
	testPayer      = common.PublicKeyFromString("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testOwner      = common.PublicKeyFromString("So11111111111111111111111111111111111111112")
)

func TestCreateCollectionV1Instruction(t *testing.T) {
	require := require.New(t)

	ix, err := CreateCollectionV1(CreateCollectionV1Param{
		Collection:      testCollection,
		UpdateAuthority: testAuthority,
		Payer:           testPayer,
		Name:            "Numbers",
		URI:             "https://example.com/collection.json",
		Plugins: []PluginAuthorityPair{
			NewRoyaltiesPlugin(500, []Creator{{Address: testAuthority, Percentage: 100}}),
		},
	})
	require.NoError(err)

	require.Equal(ProgramID, ix.ProgramID)
	require.Len(ix.Accounts, 4)

	require.Equal(testCollection, ix.Accounts[0].PubKey)
	require.True(ix.Accounts[0].IsSigner)
	require.True(ix.Accounts[0].IsWritable)

	require.Equal(testAuthority, ix.Accounts[1].PubKey)
	require.False(ix.Accounts[1].IsSigner)

	require.Equal(testPayer, ix.Accounts[2].PubKey)
	require.True(ix.Accounts[2].IsSigner)
	require.True(ix.Accounts[2].IsWritable)

	require.Equal(common.SystemProgramID, ix.Accounts[3].PubKey)

	require.Equal(InstructionCreateCollectionV1, ix.Data[0])

	var args CreateCollectionV1Args
	require.NoError(borsh.Deserialize(&args, ix.Data[1:]))
	require.Equal("Numbers", args.Name)
	require.Equal("https://example.com/collection.json", args.URI)
	require.NotNil(args.Plugins)
	require.Len(*args.Plugins, 1)

	royalties := (*args.Plugins)[0].Plugin.Royalties
	require.Equal(uint16(500), royalties.BasisPoints)
	require.Len(royalties.Creators, 1)
	require.Equal(testAuthority, royalties.Creators[0].Address)
	require.Equal(uint8(100), royalties.Creators[0].Percentage)
}

func TestCreateCollectionV1WithoutPlugins(t *testing.T) {
	require := require.New(t)

	ix, err := CreateCollectionV1(CreateCollectionV1Param{
		Collection:      testCollection,
		UpdateAuthority: testAuthority,
		Payer:           testPayer,
		Name:            "Plain",
		URI:             "https://example.com/plain.json",
	})
	require.NoError(err)

	var args CreateCollectionV1Args
	require.NoError(borsh.Deserialize(&args, ix.Data[1:]))
	require.Nil(args.Plugins)
}

func TestParseAssetV1(t *testing.T) {
	require := require.New(t)

	seq := uint64(7)
	raw, err := borsh.Serialize(AssetV1{
		Key:   KeyAssetV1,
		Owner: testOwner,
		UpdateAuthority: UpdateAuthority{
			Enum:       borsh.Enum(UpdateAuthorityCollection),
			Collection: testCollection,
		},
		Name: "Number #1",
		URI:  "https://example.com/items/1.json",
		Seq:  &seq,
	})
	require.NoError(err)

	// plugin header/registry bytes follow the base record on chain
	raw = append(raw, 0xde, 0xad, 0xbe, 0xef)

	asset, err := ParseAssetV1(raw)
	require.NoError(err)
	require.Equal(KeyAssetV1, asset.Key)
	require.Equal(testOwner, asset.Owner)
	require.Equal("Number #1", asset.Name)
	require.Equal("https://example.com/items/1.json", asset.URI)
	require.NotNil(asset.Seq)
	require.Equal(uint64(7), *asset.Seq)

	coll, ok := asset.CollectionAddress()
	require.True(ok)
	require.Equal(testCollection, coll)
}

func TestParseAssetV1Rejects(t *testing.T) {
	require := require.New(t)

	_, err := ParseAssetV1(nil)
	require.ErrorIs(err, ErrDataTooShort)

	_, err = ParseAssetV1([]byte{KeyCollectionV1, 1, 2, 3})
	require.ErrorIs(err, ErrNotAssetV1)
}

func TestAssetFilters(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{1}, AssetKeyFilterBytes())
	require.Equal(0, AssetKeyOffset)

	filter := CollectionFilterBytes(testCollection)
	require.Len(filter, 33)
	require.Equal(UpdateAuthorityCollection, filter[0])
	require.Equal(testCollection.Bytes(), filter[1:])
	require.Equal(33, AssetUpdateAuthorityOffset)
}

func TestAddressUpdateAuthorityHasNoCollection(t *testing.T) {
	require := require.New(t)

	asset := AssetV1{
		Key:   KeyAssetV1,
		Owner: testOwner,
		UpdateAuthority: UpdateAuthority{
			Enum:    borsh.Enum(UpdateAuthorityAddress),
			Address: testAuthority,
		},
	}
	_, ok := asset.CollectionAddress()
	require.False(ok)
}
