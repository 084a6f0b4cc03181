package solana

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyManager(t *testing.T) {
	dir := t.TempDir()
	km := NewKeyManager(dir, "test-password")

	t.Run("Encrypt and Decrypt Private Key", func(t *testing.T) {
		account := types.NewAccount()

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey)
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := km.DecryptPrivateKey(encrypted)
		require.NoError(t, err)
		assert.Equal(t, []byte(account.PrivateKey), decrypted)
	})

	t.Run("Generate and Load Signer", func(t *testing.T) {
		key, err := km.GenerateSigner()
		require.NoError(t, err)
		assert.Len(t, key, 64)

		address := key.PublicKey().String()
		raw, err := os.ReadFile(filepath.Join(dir, address+".json"))
		require.NoError(t, err)

		var entry KeyStoreEntry
		require.NoError(t, json.Unmarshal(raw, &entry))
		assert.Equal(t, address, entry.Address)
		assert.Equal(t, 1, entry.Version)

		loaded, err := km.LoadSigner(address)
		require.NoError(t, err)
		assert.Equal(t, key, loaded)
	})

	t.Run("Resolve Signers keeps order", func(t *testing.T) {
		first, err := km.GenerateSigner()
		require.NoError(t, err)
		second, err := km.GenerateSigner()
		require.NoError(t, err)

		signers, err := km.ResolveSigners(context.Background(), []string{second.PublicKey().String(), first.PublicKey().String()})
		require.NoError(t, err)
		require.Len(t, signers, 2)
		assert.Equal(t, second.PublicKey(), signers[0].PublicKey())
		assert.Equal(t, first.PublicKey(), signers[1].PublicKey())
	})

	t.Run("Error Cases", func(t *testing.T) {
		key, err := km.GenerateSigner()
		require.NoError(t, err)

		wrong := NewKeyManager(dir, "other-password")
		_, err = wrong.LoadSigner(key.PublicKey().String())
		assert.Error(t, err)

		_, err = km.LoadSigner("nonexistent")
		assert.Error(t, err)

		_, err = km.ResolveSigners(context.Background(), []string{key.PublicKey().String(), "nonexistent"})
		assert.Error(t, err)
	})

	t.Run("Multiple Key Generation", func(t *testing.T) {
		keys := make(map[string]bool)
		for i := 0; i < 10; i++ {
			key, err := km.GenerateSigner()
			require.NoError(t, err)

			address := key.PublicKey().String()
			assert.False(t, keys[address], "Generated duplicate address")
			keys[address] = true
		}
	})
}
