package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet signs transactions for a payer identity. Implementations that
// front an interactive signer return an error containing
// "User rejected the request." when the holder declines.
type Wallet interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction, extraSigners ...solana.PrivateKey) error
}

// KeypairWallet signs with a locally held key.
type KeypairWallet struct {
	key solana.PrivateKey
}

func NewKeypairWallet(key solana.PrivateKey) *KeypairWallet {
	return &KeypairWallet{key: key}
}

func (w *KeypairWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// PrivateKey exposes the key for paths that sign remote-built
// transactions themselves.
func (w *KeypairWallet) PrivateKey() solana.PrivateKey {
	return w.key
}

func (w *KeypairWallet) SignTransaction(_ context.Context, tx *solana.Transaction, extraSigners ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.key.PublicKey()) {
			return &w.key
		}
		for i := range extraSigners {
			if key.Equals(extraSigners[i].PublicKey()) {
				return &extraSigners[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
