package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client represents a Helius API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.helius.xyz/v0",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:       10 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// WithBaseURL overrides the enhanced API root.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// TokenTransfer represents a token transfer in the transaction
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
	Mint            string  `json:"mint"`
}

// EnhancedTransaction is the parsed form of a landed transaction.
type EnhancedTransaction struct {
	Description      string          `json:"description"`
	Type             string          `json:"type"`
	Source           string          `json:"source"`
	Fee              int64           `json:"fee"`
	FeePayer         string          `json:"feePayer"`
	Signature        string          `json:"signature"`
	Slot             uint64          `json:"slot"`
	Timestamp        int64           `json:"timestamp"`
	TokenTransfers   []TokenTransfer `json:"tokenTransfers"`
	TransactionError interface{}     `json:"transactionError"`
}

// Failed reports whether the transaction landed with an error.
func (t EnhancedTransaction) Failed() bool {
	return t.TransactionError != nil
}

// GetEnhancedTransactions retrieves enhanced transactions by their
// signatures. Signatures that have not landed are absent from the result.
func (c *Client) GetEnhancedTransactions(ctx context.Context, signatures []string) ([]EnhancedTransaction, error) {
	url := fmt.Sprintf("%s/transactions/?api-key=%s", c.baseURL, c.apiKey)

	jsonData, err := json.Marshal(map[string]interface{}{
		"transactions": signatures,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status code: %d", resp.StatusCode)
	}

	var transactions []EnhancedTransaction
	if err := json.NewDecoder(resp.Body).Decode(&transactions); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return transactions, nil
}
