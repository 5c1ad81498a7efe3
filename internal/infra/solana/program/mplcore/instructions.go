// internal/infra/solana/program/mplcore/instructions.go
package mplcore

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

// Instruction discriminants (mpl-core is shank-based: a single leading byte).
const (
	InstructionCreateV1           uint8 = 0
	InstructionCreateCollectionV1 uint8 = 1
)

// CreateCollectionV1Args is the borsh payload of create_collection_v1.
type CreateCollectionV1Args struct {
	Name    string
	URI     string
	Plugins *[]PluginAuthorityPair
}

type CreateCollectionV1Param struct {
	Collection      common.PublicKey // fresh keypair, signs
	UpdateAuthority common.PublicKey
	Payer           common.PublicKey
	Name            string
	URI             string
	Plugins         []PluginAuthorityPair
}

// CreateCollectionV1 builds the collection-creation instruction. The plugin
// list (royalties) rides inside the args, not as extra accounts.
func CreateCollectionV1(param CreateCollectionV1Param) (types.Instruction, error) {
	args := CreateCollectionV1Args{
		Name: param.Name,
		URI:  param.URI,
	}
	if len(param.Plugins) > 0 {
		plugins := param.Plugins
		args.Plugins = &plugins
	}

	body, err := borsh.Serialize(args)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("mplcore: serialize create_collection_v1 args: %w", err)
	}

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Collection, IsSigner: true, IsWritable: true},
			{PubKey: param.UpdateAuthority, IsSigner: false, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: append([]byte{InstructionCreateCollectionV1}, body...),
	}, nil
}
