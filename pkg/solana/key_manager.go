package solana

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
)

// KeyStoreEntry is the on-disk form of one encrypted signer.
type KeyStoreEntry struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Version      int    `json:"version"`
}

// KeyManager stores launch signers as AES-256-GCM encrypted JSON files,
// one per address, under dir.
type KeyManager struct {
	dir      string
	password string
}

func NewKeyManager(dir, password string) *KeyManager {
	return &KeyManager{dir: dir, password: password}
}

// GenerateSigner creates a new keypair and stores it.
func (km *KeyManager) GenerateSigner() (solana.PrivateKey, error) {
	account := types.NewAccount()
	if err := km.SaveKeyStoreEntry(&account); err != nil {
		return nil, err
	}
	return solana.PrivateKey(account.PrivateKey), nil
}

func (km *KeyManager) EncryptPrivateKey(privateKey []byte) (string, error) {
	block, err := aes.NewCipher(deriveKey(km.password))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || ciphertext
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, privateKey, nil)), nil
}

func (km *KeyManager) DecryptPrivateKey(encryptedKey string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(km.password))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (km *KeyManager) SaveKeyStoreEntry(account *types.Account) error {
	encrypted, err := km.EncryptPrivateKey(account.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt private key: %w", err)
	}

	address := account.PublicKey.ToBase58()
	jsonData, err := json.MarshalIndent(KeyStoreEntry{
		Address:      address,
		EncryptedKey: encrypted,
		Version:      1,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore entry: %w", err)
	}

	if err := os.MkdirAll(km.dir, 0700); err != nil {
		return fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(km.dir, address+".json"), jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write keystore entry to file: %w", err)
	}
	return nil
}

// LoadSigner decrypts the stored key for address.
func (km *KeyManager) LoadSigner(address string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(filepath.Join(km.dir, address+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore entry: %w", err)
	}

	var entry KeyStoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	if entry.Address != address {
		return nil, fmt.Errorf("address mismatch: expected %s, got %s", address, entry.Address)
	}

	privateKey, err := km.DecryptPrivateKey(entry.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}

	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create account from private key: %w", err)
	}
	if account.PublicKey.ToBase58() != address {
		return nil, fmt.Errorf("keystore entry %s holds key for %s", address, account.PublicKey.ToBase58())
	}
	return solana.PrivateKey(account.PrivateKey), nil
}

// ResolveSigners loads every address in order.
func (km *KeyManager) ResolveSigners(_ context.Context, addresses []string) ([]solana.PrivateKey, error) {
	signers := make([]solana.PrivateKey, 0, len(addresses))
	for _, address := range addresses {
		key, err := km.LoadSigner(address)
		if err != nil {
			return nil, fmt.Errorf("signer %s: %w", address, err)
		}
		signers = append(signers, key)
	}
	return signers, nil
}

// deriveKey creates a 32-byte key from a password using SHA-256
func deriveKey(password string) []byte {
	hash := sha256.Sum256([]byte(password))
	return hash[:]
}
