// internal/infra/solana/reader.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"

	"github.com/joaotav/mpl-core/internal/application/deploy"
	assetdom "github.com/joaotav/mpl-core/internal/domain/asset"
	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
	cmprog "github.com/joaotav/mpl-core/internal/infra/solana/program/candymachine"
	"github.com/joaotav/mpl-core/internal/infra/solana/program/mplcore"
)

// Reader answers the pipeline's read-only queries: machine state, asset
// enumeration by collection, payer balance. Reads never mutate anything and
// may run any number of times.
type Reader struct {
	rpc        RPCClient
	commitment string
}

var (
	_ deploy.MachineReader   = (*Reader)(nil)
	_ deploy.AssetEnumerator = (*Reader)(nil)
	_ deploy.BalanceReader   = (*Reader)(nil)
)

func NewReader(rpc RPCClient, commitment string) *Reader {
	return &Reader{
		rpc:        rpc,
		commitment: NormalizeCommitment(commitment),
	}
}

// ReadMachine fetches and decodes the machine account. An absent account
// comes back wrapping candymachine.ErrNotFound so the verifier can report
// "unable to fetch" instead of a field mismatch.
func (r *Reader) ReadMachine(ctx context.Context, address string) (cmdom.CandyMachine, error) {
	info, err := r.rpc.GetAccountInfo(ctx, address, r.commitment)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return cmdom.CandyMachine{}, fmt.Errorf("%w: %s", cmdom.ErrNotFound, address)
		}
		return cmdom.CandyMachine{}, fmt.Errorf("reader: getAccountInfo %s: %w", address, err)
	}

	acc, err := cmprog.ParseAccount(info.Data)
	if err != nil {
		return cmdom.CandyMachine{}, fmt.Errorf("reader: machine %s: %w", address, err)
	}

	m := cmdom.CandyMachine{
		Address:        address,
		Authority:      acc.Authority.ToBase58(),
		MintAuthority:  acc.MintAuthority.ToBase58(),
		CollectionMint: acc.CollectionMint.ToBase58(),
		ItemsAvailable: acc.Data.ItemsAvailable,
		ItemsLoaded:    uint64(acc.ItemsLoaded),
		ItemsRedeemed:  acc.ItemsRedeemed,
		IsMutable:      acc.Data.IsMutable,
	}
	if s := acc.Data.ConfigLineSettings; s != nil {
		m.Settings = cmdom.ConfigLineSettings{
			PrefixName:   s.PrefixName,
			NameLength:   s.NameLength,
			PrefixURI:    s.PrefixURI,
			URILength:    s.URILength,
			IsSequential: s.IsSequential,
		}
	}
	return m, nil
}

// AssetsByCollection enumerates every AssetV1 account whose update authority
// is the given collection: a getProgramAccounts over the MPL Core program
// with a memcmp on the discriminant byte and one on the update-authority
// enum + collection pubkey.
func (r *Reader) AssetsByCollection(ctx context.Context, collection string) ([]assetdom.Asset, error) {
	collKey := common.PublicKeyFromString(collection)

	filters := []Filter{
		{Memcmp: &Memcmp{
			Offset: mplcore.AssetKeyOffset,
			Bytes:  base58.Encode(mplcore.AssetKeyFilterBytes()),
		}},
		{Memcmp: &Memcmp{
			Offset: mplcore.AssetUpdateAuthorityOffset,
			Bytes:  base58.Encode(mplcore.CollectionFilterBytes(collKey)),
		}},
	}

	rows, err := r.rpc.GetProgramAccounts(ctx, mplcore.ProgramID.ToBase58(), filters, r.commitment)
	if err != nil {
		return nil, fmt.Errorf("reader: getProgramAccounts: %w", err)
	}

	assets := make([]assetdom.Asset, 0, len(rows))
	for _, row := range rows {
		parsed, err := mplcore.ParseAssetV1(row.Data)
		if err != nil {
			log.Printf("[reader] WARN: skip undecodable asset pubkey=%s err=%v", row.Pubkey, err)
			continue
		}
		a, err := assetdom.New(row.Pubkey, collection, parsed.Owner.ToBase58(), parsed.Name, parsed.URI)
		if err != nil {
			log.Printf("[reader] WARN: skip invalid asset pubkey=%s err=%v", row.Pubkey, err)
			continue
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// Balance returns the address balance in lamports.
func (r *Reader) Balance(ctx context.Context, address string) (uint64, error) {
	return r.rpc.GetBalance(ctx, address, r.commitment)
}
