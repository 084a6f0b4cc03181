// Package app wires the launch pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"tokenlaunch/internal/launch"
	"tokenlaunch/pkg/config"
	"tokenlaunch/pkg/helius"
	"tokenlaunch/pkg/jito"
	tlsolana "tokenlaunch/pkg/solana"
	"tokenlaunch/pkg/solana/pumpfun"
	"tokenlaunch/pkg/storage/gcs"
	"tokenlaunch/pkg/storage/ipfs"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const rpcHealthTimeout = 5 * time.Second

// Services holds the collaborators shared by the binaries.
type Services struct {
	Config   *config.LaunchConfig
	Conn     *tlsolana.RPCConnection
	Keys     *tlsolana.KeyManager
	Store    *launch.GormResultStore
	Jito     *jito.Client
	Helius   *helius.Client
	Launcher *launch.Launcher

	closers []func() error
}

// New connects to the first healthy RPC endpoint, loads the payer from
// the keystore and assembles the Launcher. events may be nil.
func New(ctx context.Context, cfg *config.LaunchConfig, db *gorm.DB, events launch.EventPublisher) (*Services, error) {
	rpcURL, err := tlsolana.SelectHealthyEndpoint(ctx, cfg.Endpoints.RPC, rpcHealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("no healthy RPC endpoint for %s: %w", cfg.Network, err)
	}
	log.WithFields(log.Fields{"network": cfg.Network, "rpc": rpcURL}).Info("Selected RPC endpoint")

	s := &Services{
		Config: cfg,
		Conn:   tlsolana.NewRPCConnection(rpcURL, cfg.Endpoints.WebSocket),
		Keys:   tlsolana.NewKeyManager(cfg.KeystoreDir, cfg.KeystorePassword),
		Store:  launch.NewGormResultStore(db),
		Jito:   jito.NewClient(cfg.Endpoints.JitoBundle),
	}
	if cfg.HeliusAPIKey != "" {
		s.Helius = helius.NewClient(cfg.HeliusAPIKey)
	}

	payer, err := s.Keys.LoadSigner(cfg.PayerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to load payer %s: %w", cfg.PayerAddress, err)
	}

	uploader, err := s.newUploader(ctx)
	if err != nil {
		return nil, err
	}

	coordinator := pumpfun.NewCoordinator(
		pumpfun.NewClient(cfg.Endpoints.TradeLocal, cfg.Endpoints.PumpIPFS),
		s.Jito,
		s.Conn,
	)

	deps := launch.Deps{
		Network:        cfg.Network,
		Conn:           s.Conn,
		Wallet:         tlsolana.NewKeypairWallet(payer),
		Uploader:       uploader,
		BondingCurve:   coordinator,
		Signers:        s.Keys,
		Store:          s.Store,
		Events:         events,
		MinimumBalance: cfg.MinimumBalanceLamports,
	}
	s.Launcher = launch.NewLauncher(deps)
	return s, nil
}

// newUploader prefers Pinata and falls back to a GCS bucket.
func (s *Services) newUploader(ctx context.Context) (launch.Uploader, error) {
	if s.Config.PinataJWT != "" {
		return ipfs.NewPinataUploader(s.Config.PinataJWT, s.Config.PinataGateway), nil
	}
	uploader, err := gcs.NewUploader(ctx, s.Config.GCSBucket)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, uploader.Close)
	return uploader, nil
}

// Reconciler checks pending bundles against the block engine, then the
// RPC node, then Helius when configured.
func (s *Services) Reconciler(dropAfter time.Duration) *launch.Reconciler {
	checkers := []launch.LandingChecker{launch.RPCLandingChecker{Conn: s.Conn}}
	if s.Helius != nil {
		checkers = append(checkers, launch.HeliusLandingChecker{Client: s.Helius})
	}
	return launch.NewReconciler(s.Store, s.Jito, dropAfter, checkers...)
}

func (s *Services) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("Failed to close service")
		}
	}
}
