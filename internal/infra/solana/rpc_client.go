// internal/infra/solana/rpc_client.go
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = "https://api.devnet.solana.com"

// Commitment levels accepted by the RPC nodes.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// NormalizeCommitment maps the speed presets onto commitment levels and
// passes canonical values through. Anything unrecognized falls back to
// confirmed.
//
//	fast     -> processed
//	balanced -> confirmed
//	slow     -> finalized
func NormalizeCommitment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast", CommitmentProcessed:
		return CommitmentProcessed
	case "slow", CommitmentFinalized:
		return CommitmentFinalized
	case "balanced", CommitmentConfirmed, "":
		return CommitmentConfirmed
	default:
		return CommitmentConfirmed
	}
}

// ErrAccountNotFound marks a getAccountInfo/getBalance target that does not
// exist at the requested commitment.
var ErrAccountNotFound = errors.New("solana rpc: account not found")

// RPCClient defines the minimal Solana RPC methods this pipeline needs.
// Submission config (skipPreflight, preflightCommitment) must be explicit,
// which is why sendTransaction is spoken raw instead of through the typed
// SDK client.
type RPCClient interface {
	GetAccountInfo(ctx context.Context, address string, commitment string) (AccountInfo, error)
	GetProgramAccounts(ctx context.Context, program string, filters []Filter, commitment string) ([]KeyedAccount, error)
	SendTransaction(ctx context.Context, txBase64 string, cfg SendTransactionConfig) (string, error)
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
	GetBalance(ctx context.Context, address string, commitment string) (uint64, error)
}

// AccountInfo is a decoded account: raw data plus the owning program.
type AccountInfo struct {
	Data     []byte
	Owner    string
	Lamports uint64
}

// Filter narrows getProgramAccounts server-side.
type Filter struct {
	DataSize uint64  `json:"dataSize,omitempty"`
	Memcmp   *Memcmp `json:"memcmp,omitempty"`
}

// Memcmp matches raw bytes (base58-encoded) at a byte offset.
type Memcmp struct {
	Offset uint64 `json:"offset"`
	Bytes  string `json:"bytes"`
}

// KeyedAccount is one getProgramAccounts row.
type KeyedAccount struct {
	Pubkey   string
	Data     []byte
	Owner    string
	Lamports uint64
}

// SendTransactionConfig controls submission behavior.
type SendTransactionConfig struct {
	SkipPreflight       bool
	PreflightCommitment string
}

// SignatureStatus is one getSignatureStatuses row (nil when unknown).
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// Failed reports whether the cluster recorded an execution error.
func (s *SignatureStatus) Failed() bool {
	if s == nil {
		return false
	}
	return len(s.Err) > 0 && string(s.Err) != "null"
}

// Reached reports whether the status satisfies the wanted commitment.
// processed < confirmed < finalized.
func (s *SignatureStatus) Reached(commitment string) bool {
	if s == nil {
		return false
	}
	rank := map[string]int{
		CommitmentProcessed: 1,
		CommitmentConfirmed: 2,
		CommitmentFinalized: 3,
	}
	return rank[s.ConfirmationStatus] >= rank[NormalizeCommitment(commitment)]
}

// JSONRPCClient is a simple HTTP JSON-RPC client for Solana.
type JSONRPCClient struct {
	Endpoint string
	HTTP     *http.Client
}

var _ RPCClient = (*JSONRPCClient)(nil)

// NewJSONRPCClient creates a Solana JSON-RPC client.
// Endpoint resolution order:
// 1) the endpoint argument (if set)
// 2) SOLANA_RPC_ENDPOINT env (if set)
// 3) DevnetEndpoint (default)
func NewJSONRPCClient(endpoint string) *JSONRPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = os.Getenv("SOLANA_RPC_ENDPOINT")
	}
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &JSONRPCClient{
		Endpoint: ep,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return fmt.Errorf("solana rpc: client not configured")
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana rpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("solana rpc: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("solana rpc: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("solana rpc: http status=%d", resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("solana rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		return fmt.Errorf("solana rpc: error code=%d message=%s", rr.Error.Code, rr.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("solana rpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// rawAccount is the wire shape of an account with base64 encoding: data is a
// ["<base64>", "base64"] tuple.
type rawAccount struct {
	Data     []string `json:"data"`
	Owner    string   `json:"owner"`
	Lamports uint64   `json:"lamports"`
}

func (a rawAccount) decode() (AccountInfo, error) {
	out := AccountInfo{Owner: a.Owner, Lamports: a.Lamports}
	if len(a.Data) == 0 {
		return out, nil
	}
	raw, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return AccountInfo{}, fmt.Errorf("solana rpc: decode account data: %w", err)
	}
	out.Data = raw
	return out, nil
}

// GetAccountInfo fetches one account's raw data. Returns ErrAccountNotFound
// (wrapped with the address) when the account does not exist.
func (c *JSONRPCClient) GetAccountInfo(ctx context.Context, address string, commitment string) (AccountInfo, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return AccountInfo{}, fmt.Errorf("solana rpc: address is empty")
	}

	var out struct {
		Value *rawAccount `json:"value"`
	}
	params := []any{
		address,
		map[string]any{
			"encoding":   "base64",
			"commitment": NormalizeCommitment(commitment),
		},
	}
	if err := c.call(ctx, "getAccountInfo", params, &out); err != nil {
		return AccountInfo{}, err
	}
	if out.Value == nil {
		return AccountInfo{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return out.Value.decode()
}

// GetProgramAccounts lists the accounts owned by a program that pass the
// given filters.
func (c *JSONRPCClient) GetProgramAccounts(ctx context.Context, program string, filters []Filter, commitment string) ([]KeyedAccount, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil, fmt.Errorf("solana rpc: program is empty")
	}

	cfg := map[string]any{
		"encoding":   "base64",
		"commitment": NormalizeCommitment(commitment),
	}
	if len(filters) > 0 {
		cfg["filters"] = filters
	}

	var out []struct {
		Pubkey  string     `json:"pubkey"`
		Account rawAccount `json:"account"`
	}
	if err := c.call(ctx, "getProgramAccounts", []any{program, cfg}, &out); err != nil {
		return nil, err
	}

	accounts := make([]KeyedAccount, 0, len(out))
	for _, row := range out {
		decoded, err := row.Account.decode()
		if err != nil {
			return nil, fmt.Errorf("solana rpc: account %s: %w", row.Pubkey, err)
		}
		accounts = append(accounts, KeyedAccount{
			Pubkey:   row.Pubkey,
			Data:     decoded.Data,
			Owner:    decoded.Owner,
			Lamports: decoded.Lamports,
		})
	}
	return accounts, nil
}

// SendTransaction submits a signed, base64-encoded transaction and returns
// its signature. One call = one submission; retrying is the caller's call.
func (c *JSONRPCClient) SendTransaction(ctx context.Context, txBase64 string, cfg SendTransactionConfig) (string, error) {
	if strings.TrimSpace(txBase64) == "" {
		return "", fmt.Errorf("solana rpc: transaction is empty")
	}

	params := []any{
		txBase64,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       cfg.SkipPreflight,
			"preflightCommitment": NormalizeCommitment(cfg.PreflightCommitment),
		},
	}

	var signature string
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// GetSignatureStatuses returns one status (or nil when unknown) per
// signature, in request order.
func (c *JSONRPCClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	var out struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{
		signatures,
		map[string]any{"searchTransactionHistory": true},
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// GetBalance returns an address balance in lamports.
func (c *JSONRPCClient) GetBalance(ctx context.Context, address string, commitment string) (uint64, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, fmt.Errorf("solana rpc: address is empty")
	}

	var out struct {
		Value uint64 `json:"value"`
	}
	params := []any{
		address,
		map[string]any{"commitment": NormalizeCommitment(commitment)},
	}
	if err := c.call(ctx, "getBalance", params, &out); err != nil {
		return 0, err
	}
	return out.Value, nil
}
