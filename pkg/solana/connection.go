package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

// Confirmation is the outcome of waiting on a signature. Err carries the
// on-chain error object unchanged when the transaction landed but failed.
type Confirmation struct {
	Slot uint64
	Err  interface{}
}

// Failed reports whether the transaction landed with an error.
func (c *Confirmation) Failed() bool {
	return c != nil && c.Err != nil
}

// ErrorJSON renders the on-chain error for messages and logs.
func (c *Confirmation) ErrorJSON() string {
	if c == nil || c.Err == nil {
		return ""
	}
	b, err := json.Marshal(c.Err)
	if err != nil {
		return fmt.Sprintf("%v", c.Err)
	}
	return string(b)
}

// SignatureState is the landing state of one signature.
type SignatureState struct {
	Found              bool
	Slot               uint64
	Err                interface{}
	ConfirmationStatus string
}

// ChainQuerier is the read side the transaction builders need.
type ChainQuerier interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Connection is the ledger access used by the launch pipeline.
type Connection interface {
	ChainQuerier
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, signature solana.Signature) (*Confirmation, error)
	GetSignatureStates(ctx context.Context, signatures []solana.Signature) ([]SignatureState, error)
}

// ErrConfirmationTimeout is returned when a signature is not confirmed in time.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// RPCConnection implements Connection on top of the solana-go rpc client.
// When a watcher is set, confirmation uses signatureSubscribe and falls
// back to status polling.
type RPCConnection struct {
	client       *rpc.Client
	watcher      *SignatureWatcher
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	confirmWait  time.Duration
}

// NewRPCConnection connects to rpcURL. wsURL may be empty.
func NewRPCConnection(rpcURL, wsURL string) *RPCConnection {
	conn := &RPCConnection{
		client:       rpc.New(rpcURL),
		commitment:   rpc.CommitmentConfirmed,
		pollInterval: 500 * time.Millisecond,
		confirmWait:  60 * time.Second,
	}
	if wsURL != "" {
		conn.watcher = NewSignatureWatcher(wsURL)
	}
	return conn
}

func (c *RPCConnection) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := c.client.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return res.Value, nil
}

func (c *RPCConnection) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	lamports, err := c.client.GetMinimumBalanceForRentExemption(ctx, dataLen, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption: %w", err)
	}
	return lamports, nil
}

func (c *RPCConnection) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	bh, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return bh.Value.Blockhash, nil
}

func (c *RPCConnection) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, err
	}
	log.WithField("signature", sig.String()).Info("Transaction submitted")
	return sig, nil
}

// ConfirmTransaction waits until signature reaches confirmed commitment.
// It returns ErrConfirmationTimeout when the confirmation window expires
// and the parent context's error when ctx ends first.
func (c *RPCConnection) ConfirmTransaction(ctx context.Context, signature solana.Signature) (*Confirmation, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmWait)
	defer cancel()

	if c.watcher != nil {
		conf, err := c.watcher.Wait(waitCtx, signature, string(c.commitment))
		if err == nil {
			return conf, nil
		}
		if waitCtx.Err() != nil {
			return nil, waitError(ctx)
		}
		log.WithError(err).Warn("Signature subscription failed, polling status instead")
	}

	conf, err := c.pollConfirmation(waitCtx, signature)
	if errors.Is(err, ErrConfirmationTimeout) {
		return nil, waitError(ctx)
	}
	return conf, err
}

func waitError(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrConfirmationTimeout
}

func (c *RPCConnection) pollConfirmation(ctx context.Context, signature solana.Signature) (*Confirmation, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		states, err := c.GetSignatureStates(ctx, []solana.Signature{signature})
		if err != nil {
			log.WithError(err).Debug("Signature status query failed")
		} else if len(states) == 1 && states[0].Found {
			state := states[0]
			if state.Err != nil {
				return &Confirmation{Slot: state.Slot, Err: state.Err}, nil
			}
			switch state.ConfirmationStatus {
			case string(rpc.ConfirmationStatusConfirmed), string(rpc.ConfirmationStatusFinalized):
				return &Confirmation{Slot: state.Slot}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

func (c *RPCConnection) GetSignatureStates(ctx context.Context, signatures []solana.Signature) ([]SignatureState, error) {
	res, err := c.client.GetSignatureStatuses(ctx, true, signatures...)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}

	states := make([]SignatureState, len(signatures))
	for i := range signatures {
		if i >= len(res.Value) || res.Value[i] == nil {
			continue
		}
		status := res.Value[i]
		states[i] = SignatureState{
			Found:              true,
			Slot:               status.Slot,
			Err:                status.Err,
			ConfirmationStatus: string(status.ConfirmationStatus),
		}
	}
	return states, nil
}
