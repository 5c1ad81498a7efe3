// internal/application/deploy/usecase.go
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	assetdom "github.com/joaotav/mpl-core/internal/domain/asset"
	cmdom "github.com/joaotav/mpl-core/internal/domain/candymachine"
	colldom "github.com/joaotav/mpl-core/internal/domain/collection"
	depdom "github.com/joaotav/mpl-core/internal/domain/deployment"
)

// ============================================================
// Deploy usecase（パイプラインドライバ本体）
// ============================================================
//
// 状態列: Init → CollectionCreated → MachineCreated → ItemsLoaded →
// PostLoadVerified → Minting → PostMintVerified → Deleted → SummaryEmitted。
// 設定エラーだけが fatal。各ステップの失敗はタグ付きで記録して先へ進む。

// Params are the run parameters. Config-level validation failures abort
// before any submission; everything after is recorded per step.
type Params struct {
	Network string // devnet / testnet / mainnet-beta; informational

	CollectionName string
	CollectionURI  string

	ItemCount uint64 // candy machine capacity, fixed at creation
	MintCount uint64 // mint attempts; clamped to loaded − redeemed

	NamePrefix string // "Item #" -> on-chain names "Item #1", "Item #2", ...
	URIPrefix  string // template base; ignored when metadata staging is active

	Mutable    bool
	Sequential bool // mint order follows insertion order

	PriceLamports uint64 // paid to the treasury inside each mint tx

	RoyaltyBasisPoints uint16
	Creators           []colldom.Creator // defaults to the payer at 100%

	MinPayerLamports uint64 // funding warn threshold; 0 disables the check

	ItemImageURL string // optional image url embedded in staged metadata
}

// Usecase drives one full deployment run. Required collaborators come in
// through the constructor; optional ones (metadata staging, archive, mail)
// are injected later, the same way the DI layer wires everything else.
type Usecase struct {
	payer Identity

	keys        IdentityGenerator
	balances    BalanceReader
	collections CollectionCreator
	machines    MachineAdmin
	minter      AssetMinter
	verifier    *Verifier
	assets      AssetEnumerator

	// 任意依存（Setter で後から差し込む）
	uploader  MetadataUploader
	archivers []depdom.RepositoryPort
	mailer    ReportMailer
	mailFrom  string
	mailTo    string
}

func NewUsecase(
	payer Identity,
	keys IdentityGenerator,
	balances BalanceReader,
	collections CollectionCreator,
	machines MachineAdmin,
	minter AssetMinter,
	reader MachineReader,
	assets AssetEnumerator,
) *Usecase {
	return &Usecase{
		payer:       payer,
		keys:        keys,
		balances:    balances,
		collections: collections,
		machines:    machines,
		minter:      minter,
		verifier:    NewVerifier(reader),
		assets:      assets,
	}
}

// SetMetadataUploader enables per-item metadata staging before the config
// lines are loaded.
func (u *Usecase) SetMetadataUploader(up MetadataUploader) {
	if u == nil {
		return
	}
	u.uploader = up
}

// AddArchiver registers a deployment-run archive destination. Best-effort;
// several may be registered (Firestore and Postgres side by side).
func (u *Usecase) AddArchiver(r depdom.RepositoryPort) {
	if u == nil || r == nil {
		return
	}
	u.archivers = append(u.archivers, r)
}

// SetReportMailer enables mailing the final report. Best-effort.
func (u *Usecase) SetReportMailer(m ReportMailer, from, to string) {
	if u == nil {
		return
	}
	u.mailer = m
	u.mailFrom = strings.TrimSpace(from)
	u.mailTo = strings.TrimSpace(to)
}

// Deploy runs the whole pipeline. The only fatal outcomes are nil wiring and
// parameter validation failures, both surfaced before the first submission.
// Every on-chain step after that is recorded in the report, pass or fail.
func (u *Usecase) Deploy(ctx context.Context, p Params) (Report, error) {
	start := time.Now().UTC()

	if u == nil {
		return Report{}, errors.New("deploy: usecase is nil")
	}
	if err := u.checkWiring(); err != nil {
		return Report{}, err
	}

	// --- config validation (fatal; nothing submitted yet) ---
	creators := p.Creators
	if len(creators) == 0 {
		creators = []colldom.Creator{{Address: u.payer.Address, Percentage: 100}}
	}
	royalties, err := colldom.NewRoyalties(p.RoyaltyBasisPoints, creators)
	if err != nil {
		return Report{}, err
	}
	coll, err := colldom.New(p.CollectionName, p.CollectionURI, u.payer.Address, royalties)
	if err != nil {
		return Report{}, err
	}
	if p.ItemCount == 0 {
		return Report{}, cmdom.ErrZeroCapacity
	}

	log.Printf("[deploy] run start network=%s payer=%s items=%d mints=%d price=%d",
		p.Network, u.payer.Address, p.ItemCount, p.MintCount, p.PriceLamports)

	u.checkFunding(ctx, p.MinPayerLamports)

	tracker := NewCostTracker(u.balances, u.payer.Address)
	runner := NewRunner(tracker)

	report := Report{
		Network:   p.Network,
		Payer:     u.payer.Address,
		StartedAt: start,
	}

	// --- 1) identities ---
	var collectionID, machineID, treasuryID Identity
	runner.Run(ctx, "initialize identities", func(ctx context.Context) (string, error) {
		collectionID = u.keys.Generate()
		machineID = u.keys.Generate()
		treasuryID = u.keys.Generate()
		return fmt.Sprintf("collection=%s machine=%s treasury=%s",
			collectionID.Address, machineID.Address, treasuryID.Address), nil
	})
	report.Collection = collectionID.Address
	report.Machine = machineID.Address
	report.Treasury = treasuryID.Address

	// --- 2) optional metadata staging ---
	stagedURIs := u.stageMetadata(ctx, runner, p, coll)

	// --- 3) collection ---
	runner.Run(ctx, "create collection", func(ctx context.Context) (string, error) {
		sig, err := u.collections.CreateCollection(ctx, u.payer, collectionID, coll)
		if err != nil {
			return "", err
		}
		return "sig=" + sig, nil
	})

	// --- 4) candy machine ---
	settings, lines := buildConfigLines(p, stagedURIs)
	local, err := cmdom.New(u.payer.Address, collectionID.Address, p.ItemCount, p.Mutable, settings)
	if err != nil {
		// addresses are freshly generated keypairs; broken settings mean a bug
		return Report{}, err
	}
	local.Address = machineID.Address
	local.MintAuthority = u.payer.Address

	runner.Run(ctx, "create candy machine", func(ctx context.Context) (string, error) {
		sig, err := u.machines.CreateMachine(ctx, u.payer, machineID, local)
		if err != nil {
			return "", err
		}
		return "sig=" + sig, nil
	})

	// --- 5) config lines ---
	runner.Run(ctx, "load config lines", func(ctx context.Context) (string, error) {
		sig, err := u.machines.LoadLines(ctx, u.payer, machineID.Address, 0, lines)
		if err != nil {
			return "", err
		}
		if err := local.LoadLines(lines); err != nil {
			log.Printf("[deploy] WARN: local line bookkeeping failed err=%v", err)
		}
		return fmt.Sprintf("lines=%d sig=%s", len(lines), sig), nil
	})

	// --- 6) post-load verification ---
	runner.Run(ctx, "verify machine state (post-load)", func(ctx context.Context) (string, error) {
		want := expectedFrom(local)
		if err := u.verifier.Verify(ctx, machineID.Address, want); err != nil {
			return "", err
		}
		return fmt.Sprintf("itemsLoaded=%d itemsRedeemed=%d", want.ItemsLoaded, want.ItemsRedeemed), nil
	})

	// --- 7) mint loop ---
	attempts := p.MintCount
	if remaining := local.Remaining(); attempts > remaining {
		log.Printf("[deploy] WARN: mint count clamped requested=%d remaining=%d", attempts, remaining)
		attempts = remaining
	}
	for i := uint64(0); i < attempts; i++ {
		assetID := u.keys.Generate()
		label := fmt.Sprintf("mint asset %d/%d", i+1, attempts)
		res := runner.Run(ctx, label, func(ctx context.Context) (string, error) {
			sig, err := u.minter.MintAsset(ctx, u.payer, assetID,
				machineID.Address, collectionID.Address, treasuryID.Address, p.PriceLamports)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("asset=%s sig=%s", assetID.Address, sig), nil
		})
		if res.OK {
			if err := local.Redeem(); err != nil {
				log.Printf("[deploy] WARN: local redeem bookkeeping failed err=%v", err)
			}
		}
	}

	// --- 8) post-mint verification ---
	runner.Run(ctx, "verify machine state (post-mint)", func(ctx context.Context) (string, error) {
		want := expectedFrom(local)
		if err := u.verifier.Verify(ctx, machineID.Address, want); err != nil {
			return "", err
		}
		return fmt.Sprintf("itemsLoaded=%d itemsRedeemed=%d", want.ItemsLoaded, want.ItemsRedeemed), nil
	})

	// --- 9) withdraw / delete ---
	runner.Run(ctx, "delete candy machine", func(ctx context.Context) (string, error) {
		sig, err := u.machines.DeleteMachine(ctx, u.payer, machineID.Address)
		if err != nil {
			return "", err
		}
		return "sig=" + sig, nil
	})

	// --- 10) summary enumeration ---
	var enumerated []assetdom.Asset
	runner.Run(ctx, "enumerate minted assets", func(ctx context.Context) (string, error) {
		list, err := u.assets.AssetsByCollection(ctx, collectionID.Address)
		if err != nil {
			return "", err
		}
		enumerated = list
		return fmt.Sprintf("assets=%d", len(list)), nil
	})

	report.Steps = runner.Results()
	report.ItemsLoaded = local.ItemsLoaded
	report.ItemsRedeemed = local.ItemsRedeemed
	report.Assets = enumerated
	report.TotalCost = totalCost(report.Steps)
	report.FinishedAt = time.Now().UTC()

	log.Printf("[deploy] run done network=%s steps=%d ok=%t redeemed=%d totalCost=%.9f elapsed=%s",
		p.Network, len(report.Steps), report.Succeeded(), report.ItemsRedeemed,
		report.TotalCost, time.Since(start))

	u.archive(ctx, report)
	u.mail(ctx, report)

	return report, nil
}

func (u *Usecase) checkWiring() error {
	switch {
	case u.keys == nil:
		return errors.New("deploy: identity generator is nil")
	case u.balances == nil:
		return errors.New("deploy: balance reader is nil")
	case u.collections == nil:
		return errors.New("deploy: collection creator is nil")
	case u.machines == nil:
		return errors.New("deploy: machine admin is nil")
	case u.minter == nil:
		return errors.New("deploy: asset minter is nil")
	case u.verifier == nil:
		return errors.New("deploy: verifier is nil")
	case u.assets == nil:
		return errors.New("deploy: asset enumerator is nil")
	case strings.TrimSpace(u.payer.Address) == "":
		return errors.New("deploy: payer address is empty")
	}
	return nil
}

// checkFunding warns when the payer balance sits below the configured
// minimum. Read-only; never blocks the run.
func (u *Usecase) checkFunding(ctx context.Context, minLamports uint64) {
	if minLamports == 0 {
		return
	}
	lamports, err := u.balances.Balance(ctx, u.payer.Address)
	if err != nil {
		log.Printf("[deploy] WARN: funding check skipped payer=%s err=%v", u.payer.Address, err)
		return
	}
	if lamports < minLamports {
		log.Printf("[deploy] WARN: payer balance below minimum payer=%s balance=%.9f min=%.9f (devnet: request an airdrop first)",
			u.payer.Address, LamportsToSOL(lamports), LamportsToSOL(minLamports))
		return
	}
	log.Printf("[deploy] funding ok payer=%s balance=%.9f", u.payer.Address, LamportsToSOL(lamports))
}

// stageMetadata uploads one metadata JSON per item and returns the public
// URIs, in item order. Returns nil when no uploader is configured or the
// staging step failed; config lines then fall back to the URI template.
func (u *Usecase) stageMetadata(ctx context.Context, runner *Runner, p Params, coll colldom.Collection) []string {
	if u.uploader == nil {
		return nil
	}

	var uris []string
	res := runner.Run(ctx, "stage item metadata", func(ctx context.Context) (string, error) {
		uris = make([]string, 0, p.ItemCount)
		for i := uint64(0); i < p.ItemCount; i++ {
			data, err := itemMetadataJSON(p, coll, i)
			if err != nil {
				return "", fmt.Errorf("deploy: build metadata %d: %w", i+1, err)
			}
			uri, err := u.uploader.UploadMetadata(ctx, data)
			if err != nil {
				return "", fmt.Errorf("deploy: upload metadata %d: %w", i+1, err)
			}
			uris = append(uris, uri)
		}
		return fmt.Sprintf("uploaded=%d", len(uris)), nil
	})
	if !res.OK {
		return nil
	}
	return uris
}

func itemMetadataJSON(p Params, coll colldom.Collection, i uint64) ([]byte, error) {
	meta := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Image       string `json:"image,omitempty"`
	}{
		Name:        fmt.Sprintf("%s%d", p.NamePrefix, i+1),
		Description: coll.Name,
		Image:       p.ItemImageURL,
	}
	return json.Marshal(meta)
}

// buildConfigLines derives the line template and the N config lines. With
// staged metadata the template URI prefix is empty and every line carries its
// full uploaded URI; otherwise lines are numbered suffixes under the template.
func buildConfigLines(p Params, stagedURIs []string) (cmdom.ConfigLineSettings, []cmdom.ConfigLine) {
	nameLen := uint32(len(strconv.FormatUint(p.ItemCount, 10)))

	settings := cmdom.ConfigLineSettings{
		PrefixName:   p.NamePrefix,
		NameLength:   nameLen,
		IsSequential: p.Sequential,
	}

	lines := make([]cmdom.ConfigLine, 0, p.ItemCount)
	if uint64(len(stagedURIs)) == p.ItemCount {
		var maxURILen uint32
		for _, uri := range stagedURIs {
			if l := uint32(len(uri)); l > maxURILen {
				maxURILen = l
			}
		}
		settings.PrefixURI = ""
		settings.URILength = maxURILen
		for i := uint64(0); i < p.ItemCount; i++ {
			lines = append(lines, settings.Line(i, stagedURIs[i]))
		}
		return settings, lines
	}

	settings.PrefixURI = p.URIPrefix
	settings.URILength = uint32(len(fmt.Sprintf("%d.json", p.ItemCount)))
	for i := uint64(0); i < p.ItemCount; i++ {
		lines = append(lines, settings.Line(i, fmt.Sprintf("%d.json", i+1)))
	}
	return settings, lines
}

// expectedFrom snapshots the local bookkeeping entity into the ephemeral
// comparison record. The local mirror is what the chain SHOULD say.
func expectedFrom(m cmdom.CandyMachine) cmdom.ExpectedState {
	return cmdom.ExpectedState{
		ItemsRedeemed:  m.ItemsRedeemed,
		ItemsLoaded:    m.ItemsLoaded,
		Authority:      m.Authority,
		CollectionMint: m.CollectionMint,
	}
}

func totalCost(steps []StepResult) float64 {
	var sum float64
	for _, s := range steps {
		sum += s.Cost
	}
	return sum
}

// archive persists the run record to every registered destination.
// 失敗してもログだけ（レポート自体は既に手元にある）。
func (u *Usecase) archive(ctx context.Context, r Report) {
	if len(u.archivers) == 0 {
		return
	}
	d, err := r.ToDeployment()
	if err != nil {
		log.Printf("[deploy] WARN: archive skipped reason=record_build_failed err=%v", err)
		return
	}
	for _, repo := range u.archivers {
		saved, err := repo.Save(ctx, d)
		if err != nil {
			log.Printf("[deploy] WARN: archive failed repo=%T err=%v", repo, err)
			continue
		}
		log.Printf("[deploy] archived id=%s repo=%T steps=%d", saved.ID, repo, len(saved.Steps))
	}
}

// mail sends the rendered report. Best-effort.
func (u *Usecase) mail(ctx context.Context, r Report) {
	if u.mailer == nil || u.mailFrom == "" || u.mailTo == "" {
		return
	}
	subject := fmt.Sprintf("deployment report (%s): machine %s", r.Network, r.Machine)
	if err := u.mailer.Send(ctx, u.mailFrom, u.mailTo, subject, r.Render()); err != nil {
		log.Printf("[deploy] WARN: report mail failed to=%s err=%v", u.mailTo, err)
		return
	}
	log.Printf("[deploy] report mailed to=%s", u.mailTo)
}
