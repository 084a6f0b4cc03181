package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client talks to the pump.fun metadata upload endpoint and the
// PumpPortal local transaction API.
type Client struct {
	tradeLocalURL string
	ipfsURL       string
	httpClient    *http.Client
}

func NewClient(tradeLocalURL, ipfsURL string) *Client {
	return &Client{
		tradeLocalURL: tradeLocalURL,
		ipfsURL:       ipfsURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// MetadataUpload is the form pump.fun stores on IPFS for a new coin.
type MetadataUpload struct {
	Image       []byte
	ImageName   string
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string
}

type MetadataResponse struct {
	MetadataURI string `json:"metadataUri"`
	Metadata    struct {
		Name        string `json:"name"`
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
		Image       string `json:"image"`
		ShowName    bool   `json:"showName"`
		CreatedOn   string `json:"createdOn"`
		Twitter     string `json:"twitter"`
		Telegram    string `json:"telegram"`
		Website     string `json:"website"`
	} `json:"metadata"`
}

// UploadMetadata posts the coin image and descriptive fields as a
// multipart form and returns the stored metadata uri.
func (c *Client) UploadMetadata(ctx context.Context, m MetadataUpload) (*MetadataResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	imageName := m.ImageName
	if imageName == "" {
		imageName = "logo.png"
	}
	part, err := writer.CreateFormFile("file", imageName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(m.Image); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	fields := []struct{ key, value string }{
		{"name", m.Name},
		{"symbol", m.Symbol},
		{"description", m.Description},
		{"twitter", m.Twitter},
		{"telegram", m.Telegram},
		{"website", m.Website},
		{"showName", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.key, f.value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ipfsURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata upload failed with status code: %d", resp.StatusCode)
	}

	var result MetadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode metadata response: %w", err)
	}
	if result.MetadataURI == "" {
		return nil, fmt.Errorf("metadata upload returned no uri")
	}

	log.WithField("uri", result.MetadataURI).Info("Uploaded pump.fun metadata")
	return &result, nil
}

type TokenMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// TradeRequest is one trade intent for the local transaction API.
type TradeRequest struct {
	PublicKey        string         `json:"publicKey"`
	Action           string         `json:"action"`
	TokenMetadata    *TokenMetadata `json:"tokenMetadata,omitempty"`
	Mint             string         `json:"mint"`
	DenominatedInSol string         `json:"denominatedInSol"`
	Amount           float64        `json:"amount"`
	Slippage         float64        `json:"slippage"`
	PriorityFee      float64        `json:"priorityFee"`
	Pool             string         `json:"pool"`
}

const (
	ActionCreate = "create"
	ActionBuy    = "buy"
	PoolPump     = "pump"
)

func (c *Client) postJSON(ctx context.Context, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tradeLocalURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send trade request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trade request failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

// TradeLocal returns the serialized unsigned transaction for one request.
func (c *Client) TradeLocal(ctx context.Context, request TradeRequest) ([]byte, error) {
	data, err := c.postJSON(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("trade request returned an empty transaction")
	}
	return data, nil
}

// TradeLocalBundle returns one base58 encoded unsigned transaction per
// request, in request order.
func (c *Client) TradeLocalBundle(ctx context.Context, requests []TradeRequest) ([]string, error) {
	data, err := c.postJSON(ctx, requests)
	if err != nil {
		return nil, err
	}

	var encoded []string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode bundle transactions: %w", err)
	}
	if len(encoded) != len(requests) {
		return nil, fmt.Errorf("trade api returned %d transactions for %d requests", len(encoded), len(requests))
	}
	return encoded, nil
}
