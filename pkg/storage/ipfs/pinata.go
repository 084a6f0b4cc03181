package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultPinataAPI = "https://api.pinata.cloud"

// PinataUploader pins files to IPFS through Pinata and returns gateway uris.
type PinataUploader struct {
	jwt        string
	apiURL     string
	gatewayURL string
	httpClient *http.Client
}

func NewPinataUploader(jwt, gatewayURL string) *PinataUploader {
	return &PinataUploader{
		jwt:        jwt,
		apiURL:     defaultPinataAPI,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithAPIURL points the uploader at another Pinata compatible API.
func (p *PinataUploader) WithAPIURL(apiURL string) *PinataUploader {
	p.apiURL = strings.TrimRight(apiURL, "/")
	return p
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins data under name and returns its gateway uri.
func (p *PinataUploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	metadata, _ := json.Marshal(map[string]string{"name": name})
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to pin file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pin request failed with status code: %d", resp.StatusCode)
	}

	var result pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("pin response carried no hash")
	}

	uri := p.gatewayURL + "/ipfs/" + result.IpfsHash
	log.WithFields(log.Fields{
		"name": name,
		"size": result.PinSize,
		"uri":  uri,
	}).Info("Pinned file to IPFS")
	return uri, nil
}
