// internal/infra/solana/program/candymachine/instructions.go
package candymachine

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	"github.com/joaotav/mpl-core/internal/infra/solana/program/mplcore"
)

// Core Candy Machine program id.
var ProgramID = common.PublicKeyFromString("CMACYFENjoBMHzapRXyo1JZkVS6EtaDDzkjMrmQLvr4J")

// Sysvars referenced by the program.
var (
	SysvarInstructions = common.PublicKeyFromString("Sysvar1nstructions1111111111111111111111111")
	SysvarSlotHashes   = common.PublicKeyFromString("SysvarS1otHashes111111111111111111111111111")
)

// Anchor discriminators: sha256("global:<method>")[..8] for instructions,
// sha256("account:CandyMachine")[..8] for the account.
var (
	initializeDiscriminator     = [8]byte{175, 175, 109, 31, 13, 152, 155, 237}
	addConfigLinesDiscriminator = [8]byte{223, 50, 224, 227, 151, 8, 115, 106}
	mintAssetDiscriminator      = [8]byte{84, 175, 211, 156, 56, 250, 104, 118}
	withdrawDiscriminator       = [8]byte{183, 18, 70, 156, 148, 109, 161, 34}

	accountDiscriminator = [8]byte{51, 173, 177, 113, 25, 241, 109, 189}
)

// FindAuthorityPDA derives the machine's internal authority PDA, the account
// the program signs with when it touches the collection.
func FindAuthorityPDA(machine common.PublicKey) (common.PublicKey, uint8, error) {
	return common.FindProgramAddress(
		[][]byte{[]byte("candy_machine"), machine.Bytes()},
		ProgramID,
	)
}

// ------------------------------------------------------
// initialize
// ------------------------------------------------------

type InitializeParam struct {
	CandyMachine              common.PublicKey // fresh account, already created with SpaceFor
	AuthorityPDA              common.PublicKey
	Authority                 common.PublicKey
	Payer                     common.PublicKey
	Collection                common.PublicKey
	CollectionUpdateAuthority common.PublicKey
	Data                      Data
}

// Initialize builds the candy machine initialize instruction. The account
// itself must be created in the same transaction via system CreateAccount
// owned by this program.
func Initialize(param InitializeParam) (types.Instruction, error) {
	body, err := borsh.Serialize(param.Data)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("candymachine: serialize initialize data: %w", err)
	}

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: param.AuthorityPDA, IsSigner: false, IsWritable: true},
			{PubKey: param.Authority, IsSigner: false, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.Collection, IsSigner: false, IsWritable: true},
			{PubKey: param.CollectionUpdateAuthority, IsSigner: true, IsWritable: true},
			{PubKey: mplcore.ProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: SysvarInstructions, IsSigner: false, IsWritable: false},
		},
		Data: append(initializeDiscriminator[:], body...),
	}, nil
}

// ------------------------------------------------------
// add_config_lines
// ------------------------------------------------------

type addConfigLinesArgs struct {
	Index uint32
	Lines []ConfigLine
}

type AddConfigLinesParam struct {
	CandyMachine common.PublicKey
	Authority    common.PublicKey
	Index        uint32
	Lines        []ConfigLine
}

// AddConfigLines inserts config lines starting at the given index.
func AddConfigLines(param AddConfigLinesParam) (types.Instruction, error) {
	body, err := borsh.Serialize(addConfigLinesArgs{
		Index: param.Index,
		Lines: param.Lines,
	})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("candymachine: serialize add_config_lines args: %w", err)
	}

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: param.Authority, IsSigner: true, IsWritable: false},
		},
		Data: append(addConfigLinesDiscriminator[:], body...),
	}, nil
}

// ------------------------------------------------------
// mint_asset
// ------------------------------------------------------

type MintAssetParam struct {
	CandyMachine  common.PublicKey
	AuthorityPDA  common.PublicKey
	MintAuthority common.PublicKey
	Payer         common.PublicKey
	AssetOwner    common.PublicKey
	Asset         common.PublicKey // fresh keypair, signs
	Collection    common.PublicKey
}

// MintAsset mints the next item into a fresh asset account. No args beyond
// the discriminator; the machine picks the config line.
func MintAsset(param MintAssetParam) types.Instruction {
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: param.AuthorityPDA, IsSigner: false, IsWritable: true},
			{PubKey: param.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.AssetOwner, IsSigner: false, IsWritable: false},
			{PubKey: param.Asset, IsSigner: true, IsWritable: true},
			{PubKey: param.Collection, IsSigner: false, IsWritable: true},
			{PubKey: mplcore.ProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: SysvarInstructions, IsSigner: false, IsWritable: false},
			{PubKey: SysvarSlotHashes, IsSigner: false, IsWritable: false},
		},
		Data: append([]byte(nil), mintAssetDiscriminator[:]...),
	}
}

// ------------------------------------------------------
// withdraw
// ------------------------------------------------------

type WithdrawParam struct {
	CandyMachine common.PublicKey
	Authority    common.PublicKey
}

// Withdraw closes the machine account and refunds its rent to the authority.
func Withdraw(param WithdrawParam) types.Instruction {
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: param.Authority, IsSigner: true, IsWritable: true},
		},
		Data: append([]byte(nil), withdrawDiscriminator[:]...),
	}
}
