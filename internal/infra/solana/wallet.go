// internal/infra/solana/wallet.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joaotav/mpl-core/internal/application/deploy"
)

// ErrNoPayerSource means neither a keypair file nor a Secret Manager secret
// was configured.
var ErrNoPayerSource = errors.New("wallet: no payer keypair source configured")

// LoadPayer restores the payer keypair. Resolution order:
// 1) keypairPath (solana-keygen JSON file), if set
// 2) secretName (Secret Manager version full path), if set
func LoadPayer(ctx context.Context, keypairPath, secretName string) (types.Account, error) {
	keypairPath = strings.TrimSpace(keypairPath)
	secretName = strings.TrimSpace(secretName)

	switch {
	case keypairPath != "":
		return LoadPayerFromFile(keypairPath)
	case secretName != "":
		return LoadPayerFromSecretManager(ctx, secretName)
	default:
		return types.Account{}, ErrNoPayerSource
	}
}

// LoadPayerFromFile restores a keypair from a solana-keygen file
// (JSON 配列 [u8;64])。エラーには必ずパスを含める。
func LoadPayerFromFile(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: read keypair file %s: %w", path, err)
	}

	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: keypair file %s: %w", path, err)
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: keypair file %s: AccountFromBytes: %w", path, err)
	}

	log.Printf("[wallet] loaded payer from file: path=%s pubkey=%s", path, acc.PublicKey.ToBase58())
	return acc, nil
}

// LoadPayerFromSecretManager restores the payer keypair from the Secret
// Manager version named by secretName:
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
func LoadPayerFromSecretManager(ctx context.Context, secretName string) (types.Account, error) {
	if secretName == "" {
		return types.Account{}, fmt.Errorf("wallet: secret name is empty")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Account{}, fmt.Errorf("wallet: secret %s does not exist: %w", secretName, err)
		}
		return types.Account{}, fmt.Errorf("wallet: AccessSecretVersion %s: %w", secretName, err)
	}

	keyBytes, err := decodeKeypairJSON(resp.Payload.Data)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: secret %s: %w", secretName, err)
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: secret %s: AccountFromBytes: %w", secretName, err)
	}

	log.Printf("[wallet] loaded payer from Secret Manager: secret=%s pubkey=%s", secretName, acc.PublicKey.ToBase58())
	return acc, nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元する。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
		// 長さが想定外の場合は後続のパスでエラーにする
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}

	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		keyBytes[i] = byte(v)
	}

	return keyBytes, nil
}

// ------------------------------------------------------
// Identity bridging
// ------------------------------------------------------

// KeypairGenerator mints fresh ed25519 keypairs for the collection, machine,
// treasury and asset accounts.
type KeypairGenerator struct{}

var _ deploy.IdentityGenerator = KeypairGenerator{}

func (KeypairGenerator) Generate() deploy.Identity {
	acc := types.NewAccount()
	return IdentityFromAccount(acc)
}

// IdentityFromAccount converts an SDK account into the application-side
// identity record.
func IdentityFromAccount(acc types.Account) deploy.Identity {
	secret := make([]byte, len(acc.PrivateKey))
	copy(secret, acc.PrivateKey)
	return deploy.Identity{
		Address: acc.PublicKey.ToBase58(),
		Secret:  secret,
	}
}

// accountFromIdentity restores the signing account from an identity. The
// secret must be the 64-byte ed25519 keypair.
func accountFromIdentity(id deploy.Identity) (types.Account, error) {
	acc, err := types.AccountFromBytes(id.Secret)
	if err != nil {
		return types.Account{}, fmt.Errorf("wallet: identity %s: AccountFromBytes: %w", id.Address, err)
	}
	if got := acc.PublicKey.ToBase58(); got != id.Address {
		return types.Account{}, fmt.Errorf("wallet: identity %s: secret restores to %s", id.Address, got)
	}
	return acc, nil
}
