package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	sharedHTTPClient *http.Client
	clientOnce       sync.Once
)

// SharedHTTPClient returns the pooled client used for JSON-RPC style calls
// made outside the solana-go rpc client.
func SharedHTTPClient() *http.Client {
	clientOnce.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		sharedHTTPClient = &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		}
	})
	return sharedHTTPClient
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// NewRPCRequest builds a JSON-RPC 2.0 request with id 1.
func NewRPCRequest(method string, params ...interface{}) RPCRequest {
	if params == nil {
		params = []interface{}{}
	}
	return RPCRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params}
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int             `json:"id"`
}

// PostRPC sends req to url and decodes the response envelope. A JSON-RPC
// error object is returned as *RPCError.
func PostRPC(ctx context.Context, client *http.Client, url string, req RPCRequest) (*RPCResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result RPCResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && result.Error != nil {
			return nil, result.Error
		}
		return nil, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &result, nil
}

// RPCCheckResult represents the result of checking an RPC endpoint
type RPCCheckResult struct {
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

func checkRPC(ctx context.Context, url string, timeout time.Duration) RPCCheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	_, err := PostRPC(ctx, SharedHTTPClient(), url, NewRPCRequest("getHealth"))
	latency := time.Since(start)
	if err != nil {
		return RPCCheckResult{URL: url, OK: false, Latency: latency, Error: err.Error()}
	}
	return RPCCheckResult{URL: url, OK: true, Latency: latency}
}

// CheckRPCListAsync probes every endpoint concurrently with getHealth.
// Results keep the order of rpcList.
func CheckRPCListAsync(ctx context.Context, rpcList []string, timeout time.Duration) []RPCCheckResult {
	results := make([]RPCCheckResult, len(rpcList))

	var wg sync.WaitGroup
	for i, url := range rpcList {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = checkRPC(ctx, url, timeout)
		}(i, url)
	}
	wg.Wait()

	return results
}

// SelectHealthyEndpoint returns the fastest healthy endpoint. A single
// candidate is returned without probing.
func SelectHealthyEndpoint(ctx context.Context, candidates []string, timeout time.Duration) (string, error) {
	switch len(candidates) {
	case 0:
		return "", errors.New("no rpc endpoints configured")
	case 1:
		return candidates[0], nil
	}

	results := CheckRPCListAsync(ctx, candidates, timeout)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].OK != results[j].OK {
			return results[i].OK
		}
		return results[i].Latency < results[j].Latency
	})

	if !results[0].OK {
		return "", fmt.Errorf("no healthy rpc endpoint among %d candidates: %s", len(candidates), results[0].Error)
	}

	log.WithFields(log.Fields{
		"url":     results[0].URL,
		"latency": results[0].Latency,
	}).Info("Selected rpc endpoint")
	return results[0].URL, nil
}
