package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthServer(t *testing.T, delay time.Duration, healthy bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getHealth", req.Method)
		time.Sleep(delay)
		if !healthy {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"Node is behind"}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSelectHealthyEndpoint(t *testing.T) {
	slow := newHealthServer(t, 50*time.Millisecond, true)
	fast := newHealthServer(t, 0, true)
	sick := newHealthServer(t, 0, false)

	t.Run("prefers fastest healthy", func(t *testing.T) {
		url, err := SelectHealthyEndpoint(context.Background(), []string{sick.URL, slow.URL, fast.URL}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, fast.URL, url)
	})

	t.Run("single candidate is not probed", func(t *testing.T) {
		url, err := SelectHealthyEndpoint(context.Background(), []string{"http://unused.invalid"}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "http://unused.invalid", url)
	})

	t.Run("all unhealthy", func(t *testing.T) {
		_, err := SelectHealthyEndpoint(context.Background(), []string{sick.URL, sick.URL}, time.Second)
		assert.Error(t, err)
	})
}

func TestCheckRPCListAsyncKeepsOrder(t *testing.T) {
	ok := newHealthServer(t, 0, true)
	sick := newHealthServer(t, 0, false)

	results := CheckRPCListAsync(context.Background(), []string{sick.URL, ok.URL}, time.Second)
	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Error, "Node is behind")
	assert.True(t, results[1].OK)
}
