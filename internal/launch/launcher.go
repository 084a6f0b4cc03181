package launch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tokenlaunch/pkg/config"
	tlsolana "tokenlaunch/pkg/solana"
	"tokenlaunch/pkg/solana/pumpfun"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// postCreationTimeout bounds the follow-up work once a token exists on
// chain: deferred supply, revocation and recording.
const postCreationTimeout = 2 * time.Minute

// detached returns a context that ignores cancellation of ctx but keeps
// its values. It expires after postCreationTimeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), postCreationTimeout)
}

// Uploader stores a file and returns a URI that resolves to it.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// BondingCurveLauncher creates coins on the bonding curve.
type BondingCurveLauncher interface {
	CreateWithBundle(ctx context.Context, opts pumpfun.LaunchOptions, signers []solana.PrivateKey, mint solana.PrivateKey) (*pumpfun.LaunchResult, error)
	CreateSingle(ctx context.Context, opts pumpfun.LaunchOptions, signer, mint solana.PrivateKey) (*pumpfun.LaunchResult, error)
}

// SignerResolver loads keypairs by address.
type SignerResolver interface {
	ResolveSigners(ctx context.Context, addresses []string) ([]solana.PrivateKey, error)
}

// ResultStore persists launch results keyed by mint.
type ResultStore interface {
	Save(ctx context.Context, result *Result) error
}

// EventPublisher sends a message to a named queue.
type EventPublisher interface {
	Publish(queueName string, message interface{}) error
}

// keyHolder is a wallet whose key can sign transactions built remotely.
type keyHolder interface {
	PrivateKey() solana.PrivateKey
}

// Deps are the collaborators of a Launcher. Store and Events are
// optional.
type Deps struct {
	Network      config.Network
	Conn         tlsolana.Connection
	Wallet       tlsolana.Wallet
	Uploader     Uploader
	BondingCurve BondingCurveLauncher
	Signers      SignerResolver
	Store        ResultStore
	Events       EventPublisher

	// MinimumBalance is the payer balance below which no launch starts.
	MinimumBalance uint64
	// NewMintKey generates the mint keypair; solana.NewRandomPrivateKey
	// when nil.
	NewMintKey func() (solana.PrivateKey, error)
}

// Launcher runs token creation intents to a single terminal outcome.
type Launcher struct {
	deps     Deps
	inFlight sync.Map
}

func NewLauncher(deps Deps) *Launcher {
	if deps.NewMintKey == nil {
		deps.NewMintKey = solana.NewRandomPrivateKey
	}
	if deps.MinimumBalance == 0 {
		deps.MinimumBalance = config.DefaultMinimumBalanceLamports
	}
	return &Launcher{deps: deps}
}

// Launch validates intent, dispatches it to its protocol path and reports
// the outcome. Failures are *Error values.
func (l *Launcher) Launch(ctx context.Context, intent Intent) (*Result, error) {
	if err := Validate(intent); err != nil {
		return nil, err
	}
	if l.deps.Wallet == nil {
		return nil, configurationError(messageWalletMissing)
	}

	payer := l.deps.Wallet.PublicKey().String()
	if _, busy := l.inFlight.LoadOrStore(payer, struct{}{}); busy {
		return nil, configurationError(messageInProgress)
	}
	defer l.inFlight.Delete(payer)

	logger := log.WithFields(log.Fields{
		"protocol": intent.Protocol(),
		"network":  l.deps.Network,
		"symbol":   intent.Details().Symbol,
		"payer":    payer,
	})
	logger.Info("Starting token launch")

	var (
		result *Result
		err    error
	)
	switch in := intent.(type) {
	case *DirectMintIntent:
		result, err = l.launchDirect(ctx, in)
	case *BondingCurveIntent:
		result, err = l.launchBondingCurve(ctx, in)
	default:
		err = configurationError(fmt.Sprintf("Unsupported launch protocol %q.", intent.Protocol()))
	}
	if err != nil {
		if IsCancelled(err) {
			logger.WithError(err).Info("Token launch cancelled")
		} else {
			logger.WithError(err).WithField("kind", KindOf(err)).Error("Token launch failed")
		}
		return nil, err
	}

	recordCtx, cancel := detached(ctx)
	l.record(recordCtx, result)
	cancel()
	logger.WithFields(log.Fields{
		"mint":      result.Mint,
		"signature": result.Signature(),
		"warnings":  len(result.Warnings),
	}).Info("Token launch completed")
	return result, nil
}

// checkBalance fails before any state changes when account cannot cover
// the launch.
func (l *Launcher) checkBalance(ctx context.Context, account solana.PublicKey) error {
	balance, err := l.deps.Conn.GetBalance(ctx, account)
	if err != nil {
		return ClassifySubmitError(fmt.Errorf("failed to fetch balance: %w", err))
	}
	if balance < l.deps.MinimumBalance {
		return &Error{
			Kind: KindPrecondition,
			Message: fmt.Sprintf("Insufficient SOL balance. You need at least %g SOL to create a token.",
				float64(l.deps.MinimumBalance)/float64(solana.LAMPORTS_PER_SOL)),
		}
	}
	return nil
}

// record persists result and publishes the completion event. The token
// already exists on chain, so failures only become warnings.
func (l *Launcher) record(ctx context.Context, result *Result) {
	result.ExplorerURL = l.deps.Network.ExplorerURL(result.Signature())

	if l.deps.Store != nil {
		if err := l.deps.Store.Save(ctx, result); err != nil {
			log.WithError(err).WithField("mint", result.Mint).Error("Failed to save launch result")
			result.warn("Launch result could not be saved.")
		}
	}
	if l.deps.Events != nil {
		if err := l.deps.Events.Publish(config.LaunchEventQueue, Event{Type: EventLaunchCompleted, Result: result}); err != nil {
			log.WithError(err).WithField("mint", result.Mint).Warn("Failed to publish launch event")
		}
	}
}

func uploadError(message string, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return ClassifySubmitError(err)
	}
	return &Error{Kind: KindUpload, Message: message, Cause: err}
}
