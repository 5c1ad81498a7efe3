// internal/infra/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
)

// Config はデプロイパイプライン全体の環境変数設定を保持します。
type Config struct {
	// Solana RPC
	RPCEndpoint   string // SOLANA_RPC_ENDPOINT（空なら devnet）
	Commitment    string // fast / balanced / slow または processed / confirmed / finalized
	SkipPreflight bool

	// Payer keypair の取得元（file 優先、無ければ Secret Manager）
	PayerKeypairPath string // solana-keygen の JSON ファイル ([u8;64])
	PayerSecretName  string // projects/<id>/secrets/<id>/versions/latest

	// Pipeline parameters
	CollectionName     string
	CollectionURI      string
	ItemCount          uint64
	MintCount          uint64
	NamePrefix         string
	URIPrefix          string
	Mutable            bool
	Sequential         bool
	PriceLamports      uint64
	RoyaltyBasisPoints uint16
	MinPayerLamports   uint64
	ItemImageURL       string

	// ★ Metadata ステージング（どちらも未設定ならスキップ）
	GCSBucket      string // item metadata JSON の公開バケット
	ArweaveBaseURL string // Irys Uploader (Cloud Run) などの HTTP API の URL
	ArweaveAPIKey  string // 認証が必要な場合に使用（不要なら空でOK）

	// Deployment archive（未設定なら保存しない）
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	DatabaseURL              string // lib/pq の DSN / URL

	// Report mail（未設定なら送らない）
	SendGridAPIKey string
	ReportMailFrom string
	ReportMailTo   string

	GCPCreds string // GOOGLE_APPLICATION_CREDENTIALS
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	cfg := &Config{
		RPCEndpoint:   os.Getenv("SOLANA_RPC_ENDPOINT"),
		Commitment:    getenvDefault("SOLANA_COMMITMENT", "balanced"),
		SkipPreflight: getenvBool("SOLANA_SKIP_PREFLIGHT", false),

		PayerKeypairPath: os.Getenv("PAYER_KEYPAIR_PATH"),
		PayerSecretName:  os.Getenv("PAYER_SECRET_NAME"),

		CollectionName:     getenvDefault("COLLECTION_NAME", "My Core Collection"),
		CollectionURI:      getenvDefault("COLLECTION_URI", "https://example.com/collection.json"),
		ItemCount:          getenvUint64("ITEM_COUNT", 3),
		MintCount:          getenvUint64("MINT_COUNT", 3),
		NamePrefix:         getenvDefault("NAME_PREFIX", "Item #"),
		URIPrefix:          getenvDefault("URI_PREFIX", "https://example.com/items/"),
		Mutable:            getenvBool("MACHINE_MUTABLE", true),
		Sequential:         getenvBool("MACHINE_SEQUENTIAL", true),
		PriceLamports:      getenvUint64("PRICE_LAMPORTS", 0),
		RoyaltyBasisPoints: uint16(getenvUint64("ROYALTY_BASIS_POINTS", 500)),
		MinPayerLamports:   getenvUint64("MIN_PAYER_LAMPORTS", 0),
		ItemImageURL:       os.Getenv("ITEM_IMAGE_URL"),

		GCSBucket:      os.Getenv("GCS_BUCKET"),
		ArweaveBaseURL: os.Getenv("ARWEAVE_BASE_URL"),
		ArweaveAPIKey:  os.Getenv("ARWEAVE_API_KEY"),

		FirestoreProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		ReportMailFrom: os.Getenv("REPORT_MAIL_FROM"),
		ReportMailTo:   os.Getenv("REPORT_MAIL_TO"),

		GCPCreds: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvUint64(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		log.Printf("[config] WARN: %s=%q is not a number, using default %d", key, v, def)
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] WARN: %s=%q is not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
