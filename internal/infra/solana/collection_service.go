// internal/infra/solana/collection_service.go
package solana

import (
	"context"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/joaotav/mpl-core/internal/application/deploy"
	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
	"github.com/joaotav/mpl-core/internal/infra/solana/program/mplcore"
)

// CollectionService creates MPL Core collection accounts.
type CollectionService struct {
	submitter *Submitter
}

var _ deploy.CollectionCreator = (*CollectionService)(nil)

func NewCollectionService(submitter *Submitter) *CollectionService {
	return &CollectionService{submitter: submitter}
}

// CreateCollection submits create_collection_v1 with the royalties plugin.
// The fresh collection keypair co-signs because the account address is the
// keypair itself.
func (s *CollectionService) CreateCollection(ctx context.Context, payer, collection deploy.Identity, c colldom.Collection) (string, error) {
	payerAcc, err := accountFromIdentity(payer)
	if err != nil {
		return "", err
	}
	collAcc, err := accountFromIdentity(collection)
	if err != nil {
		return "", err
	}

	creators := make([]mplcore.Creator, 0, len(c.Royalties.Creators))
	for _, cr := range c.Royalties.Creators {
		creators = append(creators, mplcore.Creator{
			Address:    common.PublicKeyFromString(cr.Address),
			Percentage: cr.Percentage,
		})
	}

	ix, err := mplcore.CreateCollectionV1(mplcore.CreateCollectionV1Param{
		Collection:      collAcc.PublicKey,
		UpdateAuthority: common.PublicKeyFromString(c.UpdateAuthority),
		Payer:           payerAcc.PublicKey,
		Name:            c.Name,
		URI:             c.URI,
		Plugins: []mplcore.PluginAuthorityPair{
			mplcore.NewRoyaltiesPlugin(c.Royalties.BasisPoints, creators),
		},
	})
	if err != nil {
		return "", fmt.Errorf("collection service: %w", err)
	}

	sig, err := s.submitter.SubmitAndConfirm(ctx, payerAcc, []types.Account{collAcc}, []types.Instruction{ix})
	if err != nil {
		return "", err
	}

	log.Printf("[collection] created collection=%s name=%q royaltyBp=%d sig=%s",
		collection.Address, c.Name, c.Royalties.BasisPoints, sig)
	return sig, nil
}
