package pumpfun

import (
	"context"
	"errors"
	"fmt"

	tlsolana "tokenlaunch/pkg/solana"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxBundleSigners caps create plus buys at the block engine bundle size.
	MaxBundleSigners = 5

	DefaultDevBuySOL         = 1.0
	DefaultSlippagePercent   = 10.0
	DefaultPriorityFeeSOL    = 0.0005
	DefaultBundlePriorityFee = 0.0001
	BundleBuyPriorityFee     = 0.00005
	BundleTokenAmount        = 10_000_000
)

var (
	ErrSignerCount    = errors.New("must provide 1-5 signer keypairs for bundling")
	ErrMetadataUpload = errors.New("token metadata upload failed")
)

// BundleRelay submits an atomic bundle of base58 encoded transactions.
type BundleRelay interface {
	SendBundle(ctx context.Context, encodedTxs []string) (string, error)
}

// TransactionSender submits a single signed transaction.
type TransactionSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// LaunchOptions describes a bonding-curve coin and the creator's trade.
type LaunchOptions struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string
	Image       []byte
	ImageName   string

	DevBuySOL       float64
	SlippagePercent float64
	PriorityFeeSOL  float64
}

func (o LaunchOptions) withDefaults(priorityFee float64) LaunchOptions {
	if o.DevBuySOL <= 0 {
		o.DevBuySOL = DefaultDevBuySOL
	}
	if o.SlippagePercent <= 0 {
		o.SlippagePercent = DefaultSlippagePercent
	}
	if o.PriorityFeeSOL <= 0 {
		o.PriorityFeeSOL = priorityFee
	}
	return o
}

// LaunchResult reports a submitted bonding-curve launch. Signatures[0]
// is the create transaction.
type LaunchResult struct {
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	MetadataURI  string
	Signatures   []solana.Signature
	BundleID     string
}

// Coordinator launches coins through the local transaction API, either as
// a single create-and-buy transaction or as a Jito bundle.
type Coordinator struct {
	portal *Client
	relay  BundleRelay
	sender TransactionSender
}

func NewCoordinator(portal *Client, relay BundleRelay, sender TransactionSender) *Coordinator {
	return &Coordinator{portal: portal, relay: relay, sender: sender}
}

func (c *Coordinator) uploadMetadata(ctx context.Context, opts LaunchOptions) (string, error) {
	res, err := c.portal.UploadMetadata(ctx, MetadataUpload{
		Image:       opts.Image,
		ImageName:   opts.ImageName,
		Name:        opts.Name,
		Symbol:      opts.Symbol,
		Description: opts.Description,
		Twitter:     opts.Twitter,
		Telegram:    opts.Telegram,
		Website:     opts.Website,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadataUpload, err)
	}
	return res.MetadataURI, nil
}

// BuildBundleRequests returns the create request for signers[0] followed
// by one buy per remaining signer.
func BuildBundleRequests(opts LaunchOptions, signers []solana.PublicKey, mint solana.PublicKey, metadataURI string) []TradeRequest {
	opts = opts.withDefaults(DefaultBundlePriorityFee)

	requests := make([]TradeRequest, 0, len(signers))
	for i, signer := range signers {
		req := TradeRequest{
			PublicKey:        signer.String(),
			Action:           ActionBuy,
			Mint:             mint.String(),
			DenominatedInSol: "false",
			Amount:           BundleTokenAmount,
			Slippage:         opts.SlippagePercent,
			PriorityFee:      BundleBuyPriorityFee,
			Pool:             PoolPump,
		}
		if i == 0 {
			req.Action = ActionCreate
			req.TokenMetadata = &TokenMetadata{Name: opts.Name, Symbol: opts.Symbol, URI: metadataURI}
			req.PriorityFee = opts.PriorityFeeSOL
		}
		requests = append(requests, req)
	}
	return requests
}

// CreateWithBundle uploads metadata, has the API build create plus buy
// transactions, signs each and submits them as one bundle. The signer
// count is checked before any network call.
func (c *Coordinator) CreateWithBundle(ctx context.Context, opts LaunchOptions, signers []solana.PrivateKey, mint solana.PrivateKey) (*LaunchResult, error) {
	if len(signers) == 0 || len(signers) > MaxBundleSigners {
		return nil, ErrSignerCount
	}

	uri, err := c.uploadMetadata(ctx, opts)
	if err != nil {
		return nil, err
	}

	pubkeys := make([]solana.PublicKey, len(signers))
	for i := range signers {
		pubkeys[i] = signers[i].PublicKey()
	}
	requests := BuildBundleRequests(opts, pubkeys, mint.PublicKey(), uri)

	encoded, err := c.portal.TradeLocalBundle(ctx, requests)
	if err != nil {
		return nil, err
	}

	keys := append([]solana.PrivateKey{mint}, signers...)
	signedTxs := make([]string, len(encoded))
	signatures := make([]solana.Signature, len(encoded))
	for i, tx58 := range encoded {
		raw, err := base58.Decode(tx58)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bundle transaction %d: %w", i, err)
		}
		tx, err := signRemoteTransaction(raw, keys)
		if err != nil {
			return nil, fmt.Errorf("bundle transaction %d: %w", i, err)
		}
		out, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize bundle transaction %d: %w", i, err)
		}
		signedTxs[i] = base58.Encode(out)
		signatures[i] = tx.Signatures[0]
	}

	bundleID, err := c.relay.SendBundle(ctx, signedTxs)
	if err != nil {
		return nil, err
	}

	for i, sig := range signatures {
		log.WithFields(log.Fields{
			"index":     i,
			"signature": sig.String(),
			"bundle_id": bundleID,
		}).Info("Bundled transaction")
	}

	return c.result(mint.PublicKey(), uri, signatures, bundleID), nil
}

// CreateSingle uploads metadata and submits one create transaction that
// includes the creator's dev buy.
func (c *Coordinator) CreateSingle(ctx context.Context, opts LaunchOptions, signer, mint solana.PrivateKey) (*LaunchResult, error) {
	uri, err := c.uploadMetadata(ctx, opts)
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults(DefaultPriorityFeeSOL)
	raw, err := c.portal.TradeLocal(ctx, TradeRequest{
		PublicKey:        signer.PublicKey().String(),
		Action:           ActionCreate,
		TokenMetadata:    &TokenMetadata{Name: opts.Name, Symbol: opts.Symbol, URI: uri},
		Mint:             mint.PublicKey().String(),
		DenominatedInSol: "true",
		Amount:           opts.DevBuySOL,
		Slippage:         opts.SlippagePercent,
		PriorityFee:      opts.PriorityFeeSOL,
		Pool:             PoolPump,
	})
	if err != nil {
		return nil, err
	}

	tx, err := signRemoteTransaction(raw, []solana.PrivateKey{mint, signer})
	if err != nil {
		return nil, err
	}

	sig, err := c.sender.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"signature": sig.String(),
		"mint":      mint.PublicKey().String(),
	}).Info("Submitted create transaction")

	return c.result(mint.PublicKey(), uri, []solana.Signature{sig}, ""), nil
}

func (c *Coordinator) result(mint solana.PublicKey, uri string, signatures []solana.Signature, bundleID string) *LaunchResult {
	res := &LaunchResult{
		Mint:        mint,
		MetadataURI: uri,
		Signatures:  signatures,
		BundleID:    bundleID,
	}
	if curve, _, err := tlsolana.GetBondingCurvePDA(mint); err == nil {
		res.BondingCurve = curve
	}
	return res
}

// signRemoteTransaction decodes an API-built transaction and signs it.
// Placeholder signatures from the API are dropped first.
func signRemoteTransaction(raw []byte, keys []solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	tx.Signatures = nil
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if key.Equals(keys[i].PublicKey()) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}
