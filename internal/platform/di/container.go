// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blocto/solana-go-sdk/client"
	"google.golang.org/api/option"

	dbadapter "github.com/joaotav/mpl-core/internal/adapters/out/db"
	fsadapter "github.com/joaotav/mpl-core/internal/adapters/out/firestore"
	gcsadapter "github.com/joaotav/mpl-core/internal/adapters/out/gcs"
	mailadapter "github.com/joaotav/mpl-core/internal/adapters/out/mail"
	"github.com/joaotav/mpl-core/internal/application/deploy"
	arweaveinfra "github.com/joaotav/mpl-core/internal/infra/arweave"
	appcfg "github.com/joaotav/mpl-core/internal/infra/config"
	"github.com/joaotav/mpl-core/internal/infra/database"
	firestoreinfra "github.com/joaotav/mpl-core/internal/infra/firestore"
	solanainfra "github.com/joaotav/mpl-core/internal/infra/solana"
)

// Container is the runtime wiring for one deployment run.
// - owns external clients (RPC/Firestore/GCS/Postgres) and closes them
// - strict init: RPC client + payer keypair (the run cannot start without them)
// - best-effort init: metadata staging, archives, report mail (WARN + continue)
type Container struct {
	Config  *appcfg.Config
	Payer   deploy.Identity
	Usecase *deploy.Usecase

	// Clients (owned; Close-managed)
	firestore *firestoreinfra.ClientWrapper
	gcs       *storage.Client
	db        *database.DB
}

// NewContainer initializes the full pipeline wiring.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := appcfg.Load()
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}

	// --- strict: payer keypair (config/load errors abort before the pipeline) ---
	payerAcc, err := solanainfra.LoadPayer(ctx, cfg.PayerKeypairPath, cfg.PayerSecretName)
	if err != nil {
		return nil, err
	}
	payer := solanainfra.IdentityFromAccount(payerAcc)

	// --- strict: RPC wiring ---
	rpc := solanainfra.NewJSONRPCClient(cfg.RPCEndpoint)
	chain := client.NewClient(rpc.Endpoint)
	submitter := solanainfra.NewSubmitter(rpc, chain, cfg.Commitment, cfg.SkipPreflight)
	reader := solanainfra.NewReader(rpc, cfg.Commitment)

	uc := deploy.NewUsecase(
		payer,
		solanainfra.KeypairGenerator{},
		reader,
		solanainfra.NewCollectionService(submitter),
		solanainfra.NewMachineService(submitter, chain),
		solanainfra.NewMintService(submitter),
		reader,
		reader,
	)

	c := &Container{
		Config:  cfg,
		Payer:   payer,
		Usecase: uc,
	}

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
	}

	// --- best-effort: metadata staging (GCS first, then Irys/Arweave) ---
	switch {
	case strings.TrimSpace(cfg.GCSBucket) != "":
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[di] WARN: storage.NewClient failed: %v (metadata staging disabled)", err)
			break
		}
		c.gcs = gcsClient
		uc.SetMetadataUploader(gcsadapter.NewMetadataRepositoryGCS(gcsClient, cfg.GCSBucket))
		log.Printf("[di] metadata staging via GCS bucket=%s", cfg.GCSBucket)
	case strings.TrimSpace(cfg.ArweaveBaseURL) != "":
		uc.SetMetadataUploader(arweaveinfra.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey))
		log.Printf("[di] metadata staging via Arweave baseURL=%s", cfg.ArweaveBaseURL)
	default:
		log.Printf("[di] metadata staging not configured (GCS_BUCKET / ARWEAVE_BASE_URL empty)")
	}

	// --- best-effort: deployment archive (Firestore and/or Postgres) ---
	if pid := strings.TrimSpace(cfg.FirestoreProjectID); pid != "" {
		fsw, err := firestoreinfra.NewClient(ctx, pid, credFile)
		if err != nil {
			log.Printf("[di] WARN: firestore init failed: %v (archive disabled)", err)
		} else {
			c.firestore = fsw
			uc.AddArchiver(fsadapter.NewDeploymentRepositoryFS(fsw.Client))
		}
	}
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := database.NewConnection(dsn)
		if err != nil {
			log.Printf("[di] WARN: postgres init failed: %v (archive disabled)", err)
		} else {
			c.db = pg
			uc.AddArchiver(dbadapter.NewDeploymentRepositoryPG(pg.Client))
		}
	}

	// --- best-effort: report mail ---
	if key := strings.TrimSpace(cfg.SendGridAPIKey); key != "" {
		if cfg.ReportMailFrom == "" || cfg.ReportMailTo == "" {
			log.Printf("[di] WARN: SENDGRID_API_KEY set but REPORT_MAIL_FROM/TO missing (mail disabled)")
		} else {
			uc.SetReportMailer(mailadapter.NewSendGridClient(key), cfg.ReportMailFrom, cfg.ReportMailTo)
		}
	}

	return c, nil
}

// Params builds the pipeline run parameters from the loaded config.
func (c *Container) Params() deploy.Params {
	cfg := c.Config
	network := strings.TrimSpace(cfg.RPCEndpoint)
	if network == "" {
		network = solanainfra.DevnetEndpoint
	}
	return deploy.Params{
		Network:            network,
		CollectionName:     cfg.CollectionName,
		CollectionURI:      cfg.CollectionURI,
		ItemCount:          cfg.ItemCount,
		MintCount:          cfg.MintCount,
		NamePrefix:         cfg.NamePrefix,
		URIPrefix:          cfg.URIPrefix,
		Mutable:            cfg.Mutable,
		Sequential:         cfg.Sequential,
		PriceLamports:      cfg.PriceLamports,
		RoyaltyBasisPoints: cfg.RoyaltyBasisPoints,
		MinPayerLamports:   cfg.MinPayerLamports,
		ItemImageURL:       cfg.ItemImageURL,
	}
}

// Close releases every owned client. Safe on a partially built container.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.firestore != nil {
		if err := c.firestore.Close(); err != nil {
			log.Printf("[di] WARN: firestore close: %v", err)
		}
	}
	if c.gcs != nil {
		if err := c.gcs.Close(); err != nil {
			log.Printf("[di] WARN: gcs close: %v", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Printf("[di] WARN: db close: %v", err)
		}
	}
}
