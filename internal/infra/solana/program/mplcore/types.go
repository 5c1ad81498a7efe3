// internal/infra/solana/program/mplcore/types.go
package mplcore

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// MPL Core program id.
var ProgramID = common.PublicKeyFromString("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")

// Account discriminant (first byte of every mpl-core account).
const (
	KeyUninitialized    uint8 = 0
	KeyAssetV1          uint8 = 1
	KeyHashedAssetV1    uint8 = 2
	KeyPluginHeaderV1   uint8 = 3
	KeyPluginRegistryV1 uint8 = 4
	KeyCollectionV1     uint8 = 5
)

// UpdateAuthority は asset 側の update authority を表す borsh enum。
// Collection バリアントが「この asset はこの collection に属する」の実体。
type UpdateAuthority struct {
	Enum       borsh.Enum `borsh_enum:"true"`
	None       struct{}
	Address    common.PublicKey
	Collection common.PublicKey
}

// UpdateAuthority enum variants.
const (
	UpdateAuthorityNone       uint8 = 0
	UpdateAuthorityAddress    uint8 = 1
	UpdateAuthorityCollection uint8 = 2
)

// RuleSet restricts royalty enforcement to a program allow/deny list.
type RuleSet struct {
	Enum             borsh.Enum `borsh_enum:"true"`
	None             struct{}
	ProgramAllowList []common.PublicKey
	ProgramDenyList  []common.PublicKey
}

// Creator is one royalty recipient; percentages must sum to 100.
type Creator struct {
	Address    common.PublicKey
	Percentage uint8
}

// Royalties is the plugin payload enforced on secondary sales.
type Royalties struct {
	BasisPoints uint16
	Creators    []Creator
	RuleSet     RuleSet
}

// Plugin is the mpl-core plugin union. Only the variants this pipeline can
// attach are listed with payloads; royalties is the one we actually send.
type Plugin struct {
	Enum                    borsh.Enum `borsh_enum:"true"`
	Royalties               Royalties
	FreezeDelegate          FreezeDelegate
	BurnDelegate            struct{}
	TransferDelegate        struct{}
	UpdateDelegate          UpdateDelegate
	PermanentFreezeDelegate FreezeDelegate
	Attributes              Attributes
}

type FreezeDelegate struct {
	Frozen bool
}

type UpdateDelegate struct {
	AdditionalDelegates []common.PublicKey
}

type Attribute struct {
	Key   string
	Value string
}

type Attributes struct {
	AttributeList []Attribute
}

// PluginAuthority names who may act on a plugin.
type PluginAuthority struct {
	Enum            borsh.Enum `borsh_enum:"true"`
	None            struct{}
	Owner           struct{}
	UpdateAuthority struct{}
	Address         common.PublicKey
}

// PluginAuthority enum variants.
const (
	PluginAuthorityNone            uint8 = 0
	PluginAuthorityOwner           uint8 = 1
	PluginAuthorityUpdateAuthority uint8 = 2
	PluginAuthorityAddress         uint8 = 3
)

// PluginAuthorityPair attaches one plugin with an optional explicit authority.
type PluginAuthorityPair struct {
	Plugin    Plugin
	Authority *PluginAuthority
}

// NewRoyaltiesPlugin builds the royalties plugin pair with the default
// (update authority managed) plugin authority.
func NewRoyaltiesPlugin(basisPoints uint16, creators []Creator) PluginAuthorityPair {
	return PluginAuthorityPair{
		Plugin: Plugin{
			Enum: 0, // Royalties
			Royalties: Royalties{
				BasisPoints: basisPoints,
				Creators:    creators,
				RuleSet:     RuleSet{Enum: 0},
			},
		},
	}
}
