package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HostClient talks to the remote blob host. The host accepts multipart
// uploads and serves the stored bytes at the returned URL over plain GET;
// it offers no delete operation.
type HostClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

// NewHostClient creates a client for the remote blob host at endpoint.
// apiKey may be empty if the host does not require one.
func NewHostClient(endpoint, apiKey string, logger *zap.Logger) *HostClient {
	return &HostClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}
}

// uploadResponse is the host's reply to a successful upload.
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload pushes data to the blob host under the given name and returns the
// publicly resolvable URL.
func (c *HostClient) Upload(ctx context.Context, data []byte, name string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}
	if err := mw.WriteField("name", name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Include the provider's diagnostic payload in the error.
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstreamUpload, resp.StatusCode, string(diag))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUpstreamUpload, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: host returned no URL", ErrUpstreamUpload)
	}

	c.logger.Debug("uploaded blob to remote host",
		zap.String("name", name),
		zap.Int("size", len(data)))

	return out.URL, nil
}

// Fetch retrieves the bytes served at url. The caller owns the returned
// reader.
func (c *HostClient) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrUpstreamFetch, url, resp.StatusCode)
	}

	return resp.Body, nil
}
