package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// rpcStub serves canned JSON-RPC responses keyed by method name.
func rpcStub(t *testing.T, handlers map[string]func(params json.RawMessage) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		h, ok := handlers[req.Method]
		require.True(t, ok, "unexpected method %s", req.Method)

		resp := map[string]any{"jsonrpc": "2.0", "id": 1, "result": h(req.Params)}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNormalizeCommitment(t *testing.T) {
	require := require.New(t)

	require.Equal(CommitmentProcessed, NormalizeCommitment("fast"))
	require.Equal(CommitmentConfirmed, NormalizeCommitment("balanced"))
	require.Equal(CommitmentFinalized, NormalizeCommitment("slow"))
	require.Equal(CommitmentConfirmed, NormalizeCommitment(""))
	require.Equal(CommitmentConfirmed, NormalizeCommitment("whatever"))
	require.Equal(CommitmentFinalized, NormalizeCommitment(" Finalized "))
}

func TestGetAccountInfo(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	data := []byte{0x05, 0x01, 0x02}
	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"getAccountInfo": func(json.RawMessage) any {
			return map[string]any{"value": map[string]any{
				"data":     []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"owner":    "11111111111111111111111111111111",
				"lamports": 1_500_000,
			}}
		},
	})
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	info, err := c.GetAccountInfo(ctx, "SomeAddress1111111111111111111111111111111", CommitmentConfirmed)
	require.NoError(err)
	require.Equal(data, info.Data)
	require.Equal("11111111111111111111111111111111", info.Owner)
	require.EqualValues(1_500_000, info.Lamports)
}

func TestGetAccountInfoNotFound(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"getAccountInfo": func(json.RawMessage) any {
			return map[string]any{"value": nil}
		},
	})
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	_, err := c.GetAccountInfo(ctx, "Missing11111111111111111111111111111111111", CommitmentConfirmed)
	require.ErrorIs(err, ErrAccountNotFound)
	// the error names the address being fetched
	require.Contains(err.Error(), "Missing11111111111111111111111111111111111")
}

func TestRPCErrorIsSurfaced(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	_, err := c.GetBalance(ctx, "SomeAddress1111111111111111111111111111111", CommitmentConfirmed)
	require.Error(err)
	require.NotErrorIs(err, ErrAccountNotFound)
	require.Contains(err.Error(), "invalid params")
	require.Contains(err.Error(), "-32602")
}

func TestHTTPFailureIsSurfaced(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	_, err := c.GetAccountInfo(ctx, "SomeAddress1111111111111111111111111111111", CommitmentConfirmed)
	require.Error(err)
	require.NotErrorIs(err, ErrAccountNotFound)
	require.Contains(err.Error(), "status=500")
}

func TestSendTransactionConfig(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	var gotParams json.RawMessage
	srv := rpcStub(t, map[string]func(json.RawMessage) any{
		"sendTransaction": func(params json.RawMessage) any {
			gotParams = params
			return "5igSig111"
		},
	})
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	sig, err := c.SendTransaction(ctx, "dHg=", SendTransactionConfig{
		SkipPreflight:       true,
		PreflightCommitment: "fast",
	})
	require.NoError(err)
	require.Equal("5igSig111", sig)

	// the submission config must be explicit on the wire
	var params []json.RawMessage
	require.NoError(json.Unmarshal(gotParams, &params))
	require.Len(params, 2)
	var cfg struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}
	require.NoError(json.Unmarshal(params[1], &cfg))
	require.True(cfg.SkipPreflight)
	require.Equal(CommitmentProcessed, cfg.PreflightCommitment)
}

func TestSignatureStatus(t *testing.T) {
	require := require.New(t)

	var nilStatus *SignatureStatus
	require.False(nilStatus.Failed())
	require.False(nilStatus.Reached(CommitmentConfirmed))

	ok := &SignatureStatus{ConfirmationStatus: CommitmentConfirmed, Err: json.RawMessage("null")}
	require.False(ok.Failed())
	require.True(ok.Reached(CommitmentProcessed))
	require.True(ok.Reached(CommitmentConfirmed))
	require.False(ok.Reached(CommitmentFinalized))

	failed := &SignatureStatus{ConfirmationStatus: CommitmentFinalized, Err: json.RawMessage(`{"InstructionError":[0,"Custom"]}`)}
	require.True(failed.Failed())
	require.True(failed.Reached("slow"))
}

func TestGetSignatureStatusesEmpty(t *testing.T) {
	require := require.New(t)

	c := NewJSONRPCClient("http://unused.invalid")
	got, err := c.GetSignatureStatuses(context.Background(), nil)
	require.NoError(err)
	require.Nil(got)
}
