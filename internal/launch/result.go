package launch

import (
	"time"

	"tokenlaunch/pkg/config"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one launch. Signatures[0] is the creation
// transaction; MetadataURI is empty for bonding-curve launches.
type Result struct {
	Mint        string         `json:"mint"`
	Signatures  []string       `json:"signatures"`
	MetadataURI string         `json:"metadataUri"`
	Timestamp   time.Time      `json:"timestamp"`
	Status      Status         `json:"status"`
	Protocol    Protocol       `json:"protocol"`
	Network     config.Network `json:"network"`
	ExplorerURL string         `json:"explorerUrl"`

	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description,omitempty"`
	Decimals    uint8       `json:"decimals"`
	Supply      uint64      `json:"supply"`
	Links       SocialLinks `json:"links"`
	Payer       string      `json:"payer"`

	SupplySignature     string `json:"supplySignature,omitempty"`
	RevocationSignature string `json:"revocationSignature,omitempty"`

	BundleID             string  `json:"bundleId,omitempty"`
	BondingCurve         string  `json:"bondingCurve,omitempty"`
	LandingStatus        string  `json:"landingStatus,omitempty"`
	ExpectedDevBuyTokens float64 `json:"expectedDevBuyTokens,omitempty"`

	// Warnings collects non-fatal problems after the token was created.
	Warnings []string `json:"warnings,omitempty"`
}

// Signature returns the creation signature.
func (r *Result) Signature() string {
	if len(r.Signatures) == 0 {
		return ""
	}
	return r.Signatures[0]
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func newResult(d *TokenDetails, protocol Protocol, network config.Network, payer string) *Result {
	return &Result{
		Timestamp:   time.Now().UTC(),
		Status:      StatusCompleted,
		Protocol:    protocol,
		Network:     network,
		Name:        d.Name,
		Symbol:      d.Symbol,
		Description: d.Description,
		Decimals:    d.Decimals,
		Supply:      d.Supply,
		Links:       d.Links,
		Payer:       payer,
	}
}

// Event is published for every launch that reached the chain.
type Event struct {
	Type   string  `json:"type"`
	Result *Result `json:"result"`
}

const EventLaunchCompleted = "token_launch.completed"
