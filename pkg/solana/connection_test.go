package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcEnvelope struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer answers JSON-RPC calls with the result returned by handle.
func newRPCServer(t *testing.T, handle func(method string, call int) string) *httptest.Server {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n := int(atomic.AddInt32(&calls, 1))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + handle(req.Method, n) + `}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRPCConnectionGetBalance(t *testing.T) {
	server := newRPCServer(t, func(method string, _ int) string {
		assert.Equal(t, "getBalance", method)
		return `{"context":{"slot":1},"value":5000000}`
	})

	balance, err := NewRPCConnection(server.URL, "").GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), balance)
}

func TestRPCConnectionConfirmByPolling(t *testing.T) {
	sig := solana.Signature{9}

	t.Run("waits for confirmed", func(t *testing.T) {
		server := newRPCServer(t, func(method string, call int) string {
			assert.Equal(t, "getSignatureStatuses", method)
			if call == 1 {
				return `{"context":{"slot":1},"value":[null]}`
			}
			return `{"context":{"slot":2},"value":[{"slot":2,"confirmations":1,"err":null,"confirmationStatus":"confirmed"}]}`
		})

		conn := NewRPCConnection(server.URL, "")
		conn.pollInterval = 10 * time.Millisecond
		conf, err := conn.ConfirmTransaction(context.Background(), sig)
		require.NoError(t, err)
		assert.False(t, conf.Failed())
		assert.Equal(t, uint64(2), conf.Slot)
	})

	t.Run("landed with error", func(t *testing.T) {
		server := newRPCServer(t, func(string, int) string {
			return `{"context":{"slot":3},"value":[{"slot":3,"confirmations":0,"err":{"InstructionError":[0,"InvalidAccountData"]},"confirmationStatus":"processed"}]}`
		})

		conf, err := NewRPCConnection(server.URL, "").ConfirmTransaction(context.Background(), sig)
		require.NoError(t, err)
		assert.True(t, conf.Failed())
		assert.Equal(t, `{"InstructionError":[0,"InvalidAccountData"]}`, conf.ErrorJSON())
	})

	t.Run("times out", func(t *testing.T) {
		server := newRPCServer(t, func(string, int) string {
			return `{"context":{"slot":1},"value":[null]}`
		})

		conn := NewRPCConnection(server.URL, "")
		conn.pollInterval = 10 * time.Millisecond
		conn.confirmWait = 50 * time.Millisecond
		_, err := conn.ConfirmTransaction(context.Background(), sig)
		assert.ErrorIs(t, err, ErrConfirmationTimeout)
	})

	t.Run("caller cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		server := newRPCServer(t, func(_ string, call int) string {
			if call == 2 {
				cancel()
			}
			return `{"context":{"slot":1},"value":[null]}`
		})

		conn := NewRPCConnection(server.URL, "")
		conn.pollInterval = 10 * time.Millisecond
		_, err := conn.ConfirmTransaction(ctx, sig)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrConfirmationTimeout)
	})
}

func TestRPCConnectionPrefersWatcher(t *testing.T) {
	ws, _ := newSignatureServer(t, `{"jsonrpc":"2.0","method":"signatureNotification","params":{"result":{"context":{"slot":11},"value":{"err":null}},"subscription":42}}`)
	httpServer := newRPCServer(t, func(string, int) string {
		t.Error("status polling should not run when the subscription succeeds")
		return `{"context":{"slot":1},"value":[null]}`
	})

	conf, err := NewRPCConnection(httpServer.URL, wsURL(ws)).ConfirmTransaction(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), conf.Slot)
}
