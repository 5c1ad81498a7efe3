// internal/application/deploy/usecase_test.go
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	assetdom "github.com/joaotav/mpl-core/internal/domain/asset"
	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
	depdom "github.com/joaotav/mpl-core/internal/domain/deployment"
)

// ------------------------------------------------------
// Fakes
// ------------------------------------------------------

const b58alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// fakeKeys hands out deterministic, well-formed base58 addresses.
type fakeKeys struct{ n int }

func (k *fakeKeys) Generate() Identity {
	ch := string(b58alphabet[k.n%len(b58alphabet)])
	k.n++
	return Identity{
		Address: "Fake" + ch + strings.Repeat("2", 27),
		Secret:  make([]byte, 64),
	}
}

const (
	fakeFee    = uint64(5_000)     // burned per accepted submission
	fakeRefund = uint64(1_000_000) // rent credited back on withdraw
)

// fakeLedger plays the chain: it tracks the payer balance, the machine
// account, loaded config lines and minted assets, entirely in memory.
type fakeLedger struct {
	balance uint64

	collections  map[string]bool
	machines     map[string]*cmdom.CandyMachine
	loaded       map[string][]cmdom.ConfigLine
	lastSettings cmdom.ConfigLineSettings
	assets       []assetdom.Asset

	mintCalls   int
	failMintAt  int // 1-based mint call to reject; 0 = never
	submissions int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balance:     10 * LamportsPerSOL,
		collections: map[string]bool{},
		machines:    map[string]*cmdom.CandyMachine{},
		loaded:      map[string][]cmdom.ConfigLine{},
	}
}

func (f *fakeLedger) spend() {
	f.submissions++
	if f.balance >= fakeFee {
		f.balance -= fakeFee
	}
}

func (f *fakeLedger) Balance(ctx context.Context, address string) (uint64, error) {
	return f.balance, nil
}

func (f *fakeLedger) CreateCollection(ctx context.Context, payer, collection Identity, c colldom.Collection) (string, error) {
	f.spend()
	f.collections[collection.Address] = true
	return "sig-collection", nil
}

func (f *fakeLedger) CreateMachine(ctx context.Context, payer, machine Identity, m cmdom.CandyMachine) (string, error) {
	f.spend()
	cp := m
	f.machines[machine.Address] = &cp
	f.lastSettings = m.Settings
	return "sig-machine", nil
}

func (f *fakeLedger) LoadLines(ctx context.Context, payer Identity, machine string, index uint32, lines []cmdom.ConfigLine) (string, error) {
	f.spend()
	m, ok := f.machines[machine]
	if !ok {
		return "", fmt.Errorf("machine %s: %w", machine, cmdom.ErrNotFound)
	}
	if err := m.LoadLines(lines); err != nil {
		return "", err
	}
	f.loaded[machine] = append(f.loaded[machine], lines...)
	return "sig-lines", nil
}

func (f *fakeLedger) DeleteMachine(ctx context.Context, payer Identity, machine string) (string, error) {
	f.spend()
	if _, ok := f.machines[machine]; !ok {
		return "", fmt.Errorf("machine %s: %w", machine, cmdom.ErrNotFound)
	}
	delete(f.machines, machine)
	f.balance += fakeRefund
	return "sig-withdraw", nil
}

func (f *fakeLedger) MintAsset(ctx context.Context, payer, asset Identity, machine, collection, treasury string, priceLamports uint64) (string, error) {
	f.mintCalls++
	if f.failMintAt != 0 && f.mintCalls == f.failMintAt {
		return "", errors.New("node rejected transaction")
	}
	f.spend()

	m, ok := f.machines[machine]
	if !ok {
		return "", fmt.Errorf("machine %s: %w", machine, cmdom.ErrNotFound)
	}
	if err := m.Redeem(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d", m.ItemsRedeemed)
	uri := ""
	if lines := f.loaded[machine]; int(m.ItemsRedeemed) <= len(lines) {
		line := lines[m.ItemsRedeemed-1]
		name = m.Settings.FullName(line.Name)
		uri = m.Settings.FullURI(line.URI)
	}

	f.assets = append(f.assets, assetdom.Asset{
		Address:    asset.Address,
		Collection: collection,
		Owner:      payer.Address,
		Name:       name,
		URI:        uri,
	})
	return fmt.Sprintf("sig-mint-%d", f.mintCalls), nil
}

func (f *fakeLedger) ReadMachine(ctx context.Context, address string) (cmdom.CandyMachine, error) {
	m, ok := f.machines[address]
	if !ok {
		return cmdom.CandyMachine{}, fmt.Errorf("machine %s: %w", address, cmdom.ErrNotFound)
	}
	return *m, nil
}

func (f *fakeLedger) AssetsByCollection(ctx context.Context, collection string) ([]assetdom.Asset, error) {
	var out []assetdom.Asset
	for _, a := range f.assets {
		if a.BelongsTo(collection) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeUploader struct {
	calls int
	fail  bool
}

func (f *fakeUploader) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("gateway timeout")
	}
	return fmt.Sprintf("https://gateway.test/item-%d", f.calls), nil
}

type fakeArchiver struct{ saved []depdom.Deployment }

func (f *fakeArchiver) Save(ctx context.Context, d depdom.Deployment) (depdom.Deployment, error) {
	d.ID = fmt.Sprintf("run-%d", len(f.saved)+1)
	f.saved = append(f.saved, d)
	return d, nil
}

type fakeMailer struct {
	from, to, subject, body string
}

func (f *fakeMailer) Send(ctx context.Context, from, to, subject, body string) error {
	f.from, f.to, f.subject, f.body = from, to, subject, body
	return nil
}

// ------------------------------------------------------
// Helpers
// ------------------------------------------------------

func testParams() Params {
	return Params{
		Network:            "devnet",
		CollectionName:     "Numbers",
		CollectionURI:      "https://example.com/collection.json",
		ItemCount:          3,
		MintCount:          3,
		NamePrefix:         "Number #",
		URIPrefix:          "https://example.com/items/",
		Mutable:            true,
		Sequential:         true,
		PriceLamports:      1_000,
		RoyaltyBasisPoints: 500,
	}
}

func newTestUsecase(ledger *fakeLedger) (*Usecase, Identity, *fakeKeys) {
	keys := &fakeKeys{}
	payer := keys.Generate()
	uc := NewUsecase(payer, keys, ledger, ledger, ledger, ledger, ledger, ledger)
	return uc, payer, keys
}

func stepByLabel(t *testing.T, steps []StepResult, label string) StepResult {
	t.Helper()
	for _, s := range steps {
		if s.Label == label {
			return s
		}
	}
	t.Fatalf("step %q not found", label)
	return StepResult{}
}

// ------------------------------------------------------
// Tests
// ------------------------------------------------------

func TestDeployFullRun(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, payer, _ := newTestUsecase(ledger)

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)

	require.True(report.Succeeded())
	require.Len(report.Steps, 11)
	require.Equal(uint64(3), report.ItemsLoaded)
	require.Equal(uint64(3), report.ItemsRedeemed)

	require.Len(report.Assets, 3)
	for i, a := range report.Assets {
		require.True(a.BelongsTo(report.Collection))
		require.Equal(payer.Address, a.Owner)
		require.Equal(fmt.Sprintf("Number #%d", i+1), a.Name)
		require.Equal(fmt.Sprintf("https://example.com/items/%d.json", i+1), a.URI)
	}

	// 7 accepted submissions at fakeFee each, one fakeRefund on withdraw
	wantCost := (7.0*float64(fakeFee) - float64(fakeRefund)) / float64(LamportsPerSOL)
	require.InDelta(wantCost, report.TotalCost, 1e-9)

	del := stepByLabel(t, report.Steps, "delete candy machine")
	require.True(del.OK)
	require.Negative(del.Cost)

	// the machine account is gone after the withdraw
	require.Empty(ledger.machines)
	require.True(ledger.collections[report.Collection])

	rendered := report.Render()
	require.Contains(rendered, report.Machine)
	require.Contains(rendered, "minted assets (3)")
}

func TestDeployStepIndicesAreSequential(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)
	for i, s := range report.Steps {
		require.Equal(i+1, s.Index)
	}
}

func TestDeployToleratesOneFailedMint(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	ledger.failMintAt = 2
	uc, _, _ := newTestUsecase(ledger)

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)

	require.False(report.Succeeded())
	require.Len(report.Steps, 11)

	failed := stepByLabel(t, report.Steps, "mint asset 2/3")
	require.False(failed.OK)
	require.Equal(KindSubmit, failed.Kind)
	require.Contains(failed.Err, "node rejected transaction")

	// the third attempt still ran and succeeded
	require.True(stepByLabel(t, report.Steps, "mint asset 3/3").OK)

	// only successes count; post-mint verification expects the real total
	require.Equal(uint64(2), report.ItemsRedeemed)
	require.Len(report.Assets, 2)
	require.True(stepByLabel(t, report.Steps, "verify machine state (post-mint)").OK)
}

func TestDeployRejectsBadRoyaltyConfig(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, keys := newTestUsecase(ledger)

	p := testParams()
	p.Creators = []colldom.Creator{
		{Address: keys.Generate().Address, Percentage: 60},
		{Address: keys.Generate().Address, Percentage: 30},
	}

	_, err := uc.Deploy(ctx, p)
	require.ErrorIs(err, colldom.ErrCreatorShareSum)
	require.Zero(ledger.submissions)
}

func TestDeployRejectsZeroCapacity(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)

	p := testParams()
	p.ItemCount = 0

	_, err := uc.Deploy(ctx, p)
	require.ErrorIs(err, cmdom.ErrZeroCapacity)
	require.Zero(ledger.submissions)
}

func TestDeployClampsMintCountToLoaded(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)

	p := testParams()
	p.MintCount = 10 // only 3 loaded

	report, err := uc.Deploy(ctx, p)
	require.NoError(err)
	require.True(report.Succeeded())
	require.Equal(uint64(3), report.ItemsRedeemed)
	require.Len(report.Steps, 11)
}

func TestDeployStagesMetadataWhenUploaderSet(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)
	up := &fakeUploader{}
	uc.SetMetadataUploader(up)

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)
	require.True(report.Succeeded())
	require.Len(report.Steps, 12)
	require.Equal(3, up.calls)

	staging := stepByLabel(t, report.Steps, "stage item metadata")
	require.True(staging.OK)
	require.Equal("uploaded=3", staging.Detail)

	// staged lines carry their full uploaded uri, no template prefix
	require.Empty(ledger.lastSettings.PrefixURI)
	lines := ledger.loaded[report.Machine]
	require.Len(lines, 3)
	for i, l := range lines {
		require.Equal(fmt.Sprintf("https://gateway.test/item-%d", i+1), l.URI)
	}

	require.Len(report.Assets, 3)
	require.Equal("https://gateway.test/item-1", report.Assets[0].URI)
}

func TestDeployFallsBackToTemplateWhenStagingFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)
	uc.SetMetadataUploader(&fakeUploader{fail: true})

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)

	staging := stepByLabel(t, report.Steps, "stage item metadata")
	require.False(staging.OK)
	require.Contains(staging.Err, "gateway timeout")

	// the run itself still completes on the template uris
	require.Equal(uint64(3), report.ItemsRedeemed)
	lines := ledger.loaded[report.Machine]
	require.Len(lines, 3)
	require.Equal("1.json", lines[0].URI)
	require.Equal("https://example.com/items/", ledger.lastSettings.PrefixURI)
}

func TestDeployArchivesAndMailsReport(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ledger := newFakeLedger()
	uc, _, _ := newTestUsecase(ledger)

	archive := &fakeArchiver{}
	mailer := &fakeMailer{}
	uc.AddArchiver(archive)
	uc.SetReportMailer(mailer, "deploy@example.com", "ops@example.com")

	report, err := uc.Deploy(ctx, testParams())
	require.NoError(err)

	require.Len(archive.saved, 1)
	saved := archive.saved[0]
	require.Equal("run-1", saved.ID)
	require.Equal("devnet", saved.Network)
	require.Equal(uint64(3), saved.ItemsRedeemed)
	require.Len(saved.Assets, 3)
	require.Len(saved.Steps, len(report.Steps))
	require.True(saved.Succeeded())

	require.Equal("ops@example.com", mailer.to)
	require.Contains(mailer.subject, report.Machine)
	require.Contains(mailer.body, "deployment report")
	require.Contains(mailer.body, report.Collection)
}
