package launch

import (
	"bytes"
	"context"
	"time"

	"tokenlaunch/internal/models"
	"tokenlaunch/pkg/helius"
	"tokenlaunch/pkg/jito"
	tlsolana "tokenlaunch/pkg/solana"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// Outcome is what a landing check learned about a transaction.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeLanded
	OutcomeFailed
)

// LandingChecker looks up whether a signature made it on chain.
type LandingChecker interface {
	Check(ctx context.Context, signature string) (Outcome, error)
}

// RPCLandingChecker asks the cluster for the signature status.
type RPCLandingChecker struct {
	Conn tlsolana.Connection
}

func (c RPCLandingChecker) Check(ctx context.Context, signature string) (Outcome, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return OutcomeUnknown, err
	}
	states, err := c.Conn.GetSignatureStates(ctx, []solana.Signature{sig})
	if err != nil {
		return OutcomeUnknown, err
	}
	if len(states) == 0 || !states[0].Found {
		return OutcomeUnknown, nil
	}
	if states[0].Err != nil {
		return OutcomeFailed, nil
	}
	return OutcomeLanded, nil
}

// EnhancedTransactionFetcher is the indexer lookup behind
// HeliusLandingChecker.
type EnhancedTransactionFetcher interface {
	GetEnhancedTransactions(ctx context.Context, signatures []string) ([]helius.EnhancedTransaction, error)
}

// HeliusLandingChecker finds signatures through the enhanced
// transactions API, which keeps history the RPC node may have pruned.
type HeliusLandingChecker struct {
	Client EnhancedTransactionFetcher
}

func (c HeliusLandingChecker) Check(ctx context.Context, signature string) (Outcome, error) {
	txs, err := c.Client.GetEnhancedTransactions(ctx, []string{signature})
	if err != nil {
		return OutcomeUnknown, err
	}
	for _, tx := range txs {
		if tx.Signature != signature {
			continue
		}
		if tx.Failed() {
			return OutcomeFailed, nil
		}
		return OutcomeLanded, nil
	}
	return OutcomeUnknown, nil
}

// BundleStatusSource reports landed bundles by id.
type BundleStatusSource interface {
	GetBundleStatuses(ctx context.Context, bundleIDs []string) (map[string]jito.BundleStatus, error)
}

// PendingStore is the part of the result store reconciliation uses.
type PendingStore interface {
	PendingBundles(ctx context.Context, limit int) ([]models.TokenLaunch, error)
	UpdateLandingStatus(ctx context.Context, mint, landing string, status Status) error
}

// ReconcileStats counts what one reconciliation pass decided.
type ReconcileStats struct {
	Checked int
	Landed  int
	Failed  int
	Dropped int
}

// Reconciler settles bundle launches whose inclusion was unknown at
// submission time.
type Reconciler struct {
	store     PendingStore
	bundles   BundleStatusSource
	checkers  []LandingChecker
	dropAfter time.Duration
	batchSize int
	now       func() time.Time
}

// NewReconciler builds a Reconciler. bundles may be nil; checkers are
// consulted in order until one gives a decisive answer. Launches still
// unknown after dropAfter are marked dropped.
func NewReconciler(store PendingStore, bundles BundleStatusSource, dropAfter time.Duration, checkers ...LandingChecker) *Reconciler {
	return &Reconciler{
		store:     store,
		bundles:   bundles,
		checkers:  checkers,
		dropAfter: dropAfter,
		batchSize: 50,
		now:       time.Now,
	}
}

// Run performs one reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	pending, err := r.store.PendingBundles(ctx, r.batchSize)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	bundleStatuses := r.fetchBundleStatuses(ctx, pending)

	for _, row := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Checked++

		outcome := OutcomeUnknown
		if status, ok := bundleStatuses[row.BundleID]; ok {
			outcome = bundleOutcome(status)
		}
		if outcome == OutcomeUnknown && len(row.Signatures) > 0 {
			outcome = r.checkSignature(ctx, row.Signatures[0])
		}

		landing, status := "", StatusCompleted
		switch {
		case outcome == OutcomeLanded:
			landing = models.LandingLanded
			stats.Landed++
		case outcome == OutcomeFailed:
			landing, status = models.LandingFailed, StatusFailed
			stats.Failed++
		case r.now().Sub(row.LaunchedAt) > r.dropAfter:
			landing, status = models.LandingDropped, StatusFailed
			stats.Dropped++
		default:
			continue
		}

		if err := r.store.UpdateLandingStatus(ctx, row.Mint, landing, status); err != nil {
			log.WithError(err).WithField("mint", row.Mint).Error("Failed to update landing status")
			continue
		}
		log.WithFields(log.Fields{
			"mint":      row.Mint,
			"bundle_id": row.BundleID,
			"landing":   landing,
		}).Info("Bundle launch reconciled")
	}
	return stats, nil
}

func (r *Reconciler) fetchBundleStatuses(ctx context.Context, rows []models.TokenLaunch) map[string]jito.BundleStatus {
	if r.bundles == nil {
		return nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BundleID)
	}
	statuses, err := r.bundles.GetBundleStatuses(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch bundle statuses")
		return nil
	}
	return statuses
}

func (r *Reconciler) checkSignature(ctx context.Context, signature string) Outcome {
	for _, checker := range r.checkers {
		outcome, err := checker.Check(ctx, signature)
		if err != nil {
			log.WithError(err).WithField("signature", signature).Warn("Landing check failed")
			continue
		}
		if outcome != OutcomeUnknown {
			return outcome
		}
	}
	return OutcomeUnknown
}

// bundleOutcome reads a block engine status. A landed bundle reports
// {"Ok":null} as its err.
func bundleOutcome(status jito.BundleStatus) Outcome {
	errJSON := bytes.TrimSpace(status.Err)
	if len(errJSON) == 0 || bytes.Equal(errJSON, []byte("null")) || bytes.Contains(errJSON, []byte(`"Ok"`)) {
		if status.Slot > 0 {
			return OutcomeLanded
		}
		return OutcomeUnknown
	}
	return OutcomeFailed
}
