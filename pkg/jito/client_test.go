package jito

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tlsolana "tokenlaunch/pkg/solana"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBundle(t *testing.T) {
	var received tlsolana.RPCRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"jsonrpc":"2.0","result":"2id3YC2jK9G5Wo2phDx4gJVAew8DcY5NAojnVuao8rkxwPYPe8cSwE5GzhEgJA2y8fVjDEo6iR6ykBvDxrTQrtpb","id":1}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL).SendBundle(context.Background(), []string{"tx1", "tx2", "tx3"})
	require.NoError(t, err)
	assert.Equal(t, "2id3YC2jK9G5Wo2phDx4gJVAew8DcY5NAojnVuao8rkxwPYPe8cSwE5GzhEgJA2y8fVjDEo6iR6ykBvDxrTQrtpb", id)

	assert.Equal(t, "2.0", received.Jsonrpc)
	assert.Equal(t, 1, received.ID)
	assert.Equal(t, "sendBundle", received.Method)
	require.Len(t, received.Params, 1)
	assert.Equal(t, []interface{}{"tx1", "tx2", "tx3"}, received.Params[0])
}

func TestSendBundleErrors(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"bundle contains an already processed transaction"},"id":1}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).SendBundle(context.Background(), []string{"tx"})
		require.Error(t, err)
		var rpcErr *tlsolana.RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, -32602, rpcErr.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).SendBundle(context.Background(), []string{"tx"})
		assert.ErrorContains(t, err, "429")
	})

	t.Run("size limits", func(t *testing.T) {
		client := NewClient("http://unused.invalid")
		_, err := client.SendBundle(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyBundle)

		_, err = client.SendBundle(context.Background(), make([]string, 6))
		assert.Error(t, err)
	})
}

func TestGetBundleStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"context":{"slot":242806119},"value":[{"bundle_id":"b1","transactions":["s1","s2"],"slot":242804011,"confirmation_status":"finalized","err":{"Ok":null}},null]},"id":1}`))
	}))
	defer server.Close()

	statuses, err := NewClient(server.URL).GetBundleStatuses(context.Background(), []string{"b1", "b2"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "finalized", statuses["b1"].ConfirmationStatus)
	assert.Equal(t, []string{"s1", "s2"}, statuses["b1"].Transactions)
}
