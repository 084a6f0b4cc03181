package jito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	tlsolana "tokenlaunch/pkg/solana"

	log "github.com/sirupsen/logrus"
)

// MaxBundleSize is the block engine's limit on transactions per bundle.
const MaxBundleSize = 5

// ErrEmptyBundle is returned when SendBundle is called without transactions.
var ErrEmptyBundle = errors.New("bundle contains no transactions")

// Client submits bundles to a Jito block engine.
type Client struct {
	bundleURL  string
	httpClient *http.Client
}

func NewClient(bundleURL string) *Client {
	return &Client{
		bundleURL:  bundleURL,
		httpClient: tlsolana.SharedHTTPClient(),
	}
}

// SendBundle submits base58 encoded signed transactions as one atomic
// bundle and returns the bundle id.
func (c *Client) SendBundle(ctx context.Context, encodedTxs []string) (string, error) {
	if len(encodedTxs) == 0 {
		return "", ErrEmptyBundle
	}
	if len(encodedTxs) > MaxBundleSize {
		return "", fmt.Errorf("bundle has %d transactions, limit is %d", len(encodedTxs), MaxBundleSize)
	}

	resp, err := tlsolana.PostRPC(ctx, c.httpClient, c.bundleURL, tlsolana.NewRPCRequest("sendBundle", encodedTxs))
	if err != nil {
		return "", fmt.Errorf("failed to send bundle: %w", err)
	}

	var bundleID string
	if err := json.Unmarshal(resp.Result, &bundleID); err != nil {
		return "", fmt.Errorf("failed to decode bundle id: %w", err)
	}

	log.WithFields(log.Fields{
		"bundle_id":    bundleID,
		"transactions": len(encodedTxs),
	}).Info("Bundle submitted")
	return bundleID, nil
}

// BundleStatus is one entry of getBundleStatuses.
type BundleStatus struct {
	BundleID           string          `json:"bundle_id"`
	Transactions       []string        `json:"transactions"`
	Slot               uint64          `json:"slot"`
	ConfirmationStatus string          `json:"confirmation_status"`
	Err                json.RawMessage `json:"err"`
}

// GetBundleStatuses looks up landed bundles. Unknown ids are omitted from
// the returned map.
func (c *Client) GetBundleStatuses(ctx context.Context, bundleIDs []string) (map[string]BundleStatus, error) {
	resp, err := tlsolana.PostRPC(ctx, c.httpClient, c.bundleURL, tlsolana.NewRPCRequest("getBundleStatuses", bundleIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get bundle statuses: %w", err)
	}

	var result struct {
		Value []*BundleStatus `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode bundle statuses: %w", err)
	}

	statuses := make(map[string]BundleStatus, len(result.Value))
	for _, status := range result.Value {
		if status != nil {
			statuses[status.BundleID] = *status
		}
	}
	return statuses, nil
}
