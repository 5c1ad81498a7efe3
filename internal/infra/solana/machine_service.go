// internal/infra/solana/machine_service.go
package solana

import (
	"context"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/joaotav/mpl-core/internal/application/deploy"
	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
	cmprog "github.com/joaotav/mpl-core/internal/infra/solana/program/candymachine"
)

// MachineService covers the authority-side candy machine mutations: create
// the account, insert config lines, withdraw.
type MachineService struct {
	submitter *Submitter
	chain     *client.Client // rent-exemption lookups
}

var _ deploy.MachineAdmin = (*MachineService)(nil)

func NewMachineService(submitter *Submitter, chain *client.Client) *MachineService {
	return &MachineService{submitter: submitter, chain: chain}
}

// CreateMachine allocates the machine account (system CreateAccount, owned by
// the candy machine program, sized from the line template) and initializes it
// bound to the collection, both in one transaction. The fresh machine keypair
// co-signs the account creation.
func (s *MachineService) CreateMachine(ctx context.Context, payer, machine deploy.Identity, m cmdom.CandyMachine) (string, error) {
	payerAcc, err := accountFromIdentity(payer)
	if err != nil {
		return "", err
	}
	machineAcc, err := accountFromIdentity(machine)
	if err != nil {
		return "", err
	}

	data := machineData(m)
	space, err := cmprog.SpaceFor(data)
	if err != nil {
		return "", fmt.Errorf("machine service: %w", err)
	}

	rent, err := s.chain.GetMinimumBalanceForRentExemption(ctx, space)
	if err != nil {
		return "", fmt.Errorf("machine service: GetMinimumBalanceForRentExemption: %w", err)
	}

	authorityPDA, _, err := cmprog.FindAuthorityPDA(machineAcc.PublicKey)
	if err != nil {
		return "", fmt.Errorf("machine service: FindAuthorityPDA: %w", err)
	}

	initIx, err := cmprog.Initialize(cmprog.InitializeParam{
		CandyMachine:              machineAcc.PublicKey,
		AuthorityPDA:              authorityPDA,
		Authority:                 common.PublicKeyFromString(m.Authority),
		Payer:                     payerAcc.PublicKey,
		Collection:                common.PublicKeyFromString(m.CollectionMint),
		CollectionUpdateAuthority: payerAcc.PublicKey,
		Data:                      data,
	})
	if err != nil {
		return "", fmt.Errorf("machine service: %w", err)
	}

	ins := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     payerAcc.PublicKey,
			New:      machineAcc.PublicKey,
			Owner:    cmprog.ProgramID,
			Lamports: rent,
			Space:    space,
		}),
		initIx,
	}

	sig, err := s.submitter.SubmitAndConfirm(ctx, payerAcc, []types.Account{machineAcc}, ins)
	if err != nil {
		return "", err
	}

	log.Printf("[machine] created machine=%s collection=%s capacity=%d space=%d sig=%s",
		machine.Address, m.CollectionMint, m.ItemsAvailable, space, sig)
	return sig, nil
}

// LoadLines inserts config lines starting at index. One batch = one
// transaction; the on-chain itemsLoaded counter advances by len(lines).
func (s *MachineService) LoadLines(ctx context.Context, payer deploy.Identity, machine string, index uint32, lines []cmdom.ConfigLine) (string, error) {
	payerAcc, err := accountFromIdentity(payer)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("machine service: no config lines to load")
	}

	progLines := make([]cmprog.ConfigLine, 0, len(lines))
	for _, l := range lines {
		progLines = append(progLines, cmprog.ConfigLine{Name: l.Name, URI: l.URI})
	}

	ix, err := cmprog.AddConfigLines(cmprog.AddConfigLinesParam{
		CandyMachine: common.PublicKeyFromString(machine),
		Authority:    payerAcc.PublicKey,
		Index:        index,
		Lines:        progLines,
	})
	if err != nil {
		return "", fmt.Errorf("machine service: %w", err)
	}

	sig, err := s.submitter.SubmitAndConfirm(ctx, payerAcc, nil, []types.Instruction{ix})
	if err != nil {
		return "", err
	}

	log.Printf("[machine] loaded lines machine=%s index=%d count=%d sig=%s", machine, index, len(lines), sig)
	return sig, nil
}

// DeleteMachine withdraws the machine: the account closes and its rent goes
// back to the authority.
func (s *MachineService) DeleteMachine(ctx context.Context, payer deploy.Identity, machine string) (string, error) {
	payerAcc, err := accountFromIdentity(payer)
	if err != nil {
		return "", err
	}

	ix := cmprog.Withdraw(cmprog.WithdrawParam{
		CandyMachine: common.PublicKeyFromString(machine),
		Authority:    payerAcc.PublicKey,
	})

	sig, err := s.submitter.SubmitAndConfirm(ctx, payerAcc, nil, []types.Instruction{ix})
	if err != nil {
		return "", err
	}

	log.Printf("[machine] withdrawn machine=%s sig=%s", machine, sig)
	return sig, nil
}

// machineData maps the domain machine onto the program's initialize payload.
func machineData(m cmdom.CandyMachine) cmprog.Data {
	return cmprog.Data{
		ItemsAvailable: m.ItemsAvailable,
		IsMutable:      m.IsMutable,
		ConfigLineSettings: &cmprog.ConfigLineSettings{
			PrefixName:   m.Settings.PrefixName,
			NameLength:   m.Settings.NameLength,
			PrefixURI:    m.Settings.PrefixURI,
			URILength:    m.Settings.URILength,
			IsSequential: m.Settings.IsSequential,
		},
	}
}
