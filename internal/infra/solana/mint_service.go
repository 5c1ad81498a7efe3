// internal/infra/solana/mint_service.go
package solana

import (
	"context"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/joaotav/mpl-core/internal/application/deploy"
	cmprog "github.com/joaotav/mpl-core/internal/infra/solana/program/candymachine"
)

// MintService mints one asset per call from a candy machine.
type MintService struct {
	submitter *Submitter
}

var _ deploy.AssetMinter = (*MintService)(nil)

func NewMintService(submitter *Submitter) *MintService {
	return &MintService{submitter: submitter}
}

// MintAsset submits one mint transaction: the machine's mint_asset plus, when
// priceLamports > 0, a system transfer paying the treasury in the same
// transaction. The fresh asset keypair co-signs. The asset owner defaults to
// the payer; no explicit recipient exists in this workflow.
func (s *MintService) MintAsset(ctx context.Context, payer, asset deploy.Identity, machine, collection, treasury string, priceLamports uint64) (string, error) {
	payerAcc, err := accountFromIdentity(payer)
	if err != nil {
		return "", err
	}
	assetAcc, err := accountFromIdentity(asset)
	if err != nil {
		return "", err
	}

	machineKey := common.PublicKeyFromString(machine)
	authorityPDA, _, err := cmprog.FindAuthorityPDA(machineKey)
	if err != nil {
		return "", fmt.Errorf("mint service: FindAuthorityPDA: %w", err)
	}

	ins := []types.Instruction{
		cmprog.MintAsset(cmprog.MintAssetParam{
			CandyMachine:  machineKey,
			AuthorityPDA:  authorityPDA,
			MintAuthority: payerAcc.PublicKey,
			Payer:         payerAcc.PublicKey,
			AssetOwner:    payerAcc.PublicKey,
			Asset:         assetAcc.PublicKey,
			Collection:    common.PublicKeyFromString(collection),
		}),
	}
	if priceLamports > 0 {
		ins = append(ins, system.Transfer(system.TransferParam{
			From:   payerAcc.PublicKey,
			To:     common.PublicKeyFromString(treasury),
			Amount: priceLamports,
		}))
	}

	sig, err := s.submitter.SubmitAndConfirm(ctx, payerAcc, []types.Account{assetAcc}, ins)
	if err != nil {
		return "", err
	}

	log.Printf("[mint] minted asset=%s machine=%s price=%d sig=%s", asset.Address, machine, priceLamports, sig)
	return sig, nil
}
