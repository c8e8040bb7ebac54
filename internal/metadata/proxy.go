package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const proxyMetadataPath = "/api/v1/proxy/metadata"

// maxProxyResponse caps how much of a proxy reply is decoded.
const maxProxyResponse = 4 << 20

// ProxyClient asks the media worker for metadata of a batch of URLs.
type ProxyClient struct {
	baseURL  string
	adminKey string
	http     *http.Client
}

// NewProxyClient creates a client for the worker at baseURL. Every call is
// bounded by timeout regardless of the caller's context.
func NewProxyClient(baseURL, adminKey string, timeout time.Duration) *ProxyClient {
	return &ProxyClient{
		baseURL:  baseURL,
		adminKey: adminKey,
		http:     &http.Client{Timeout: timeout},
	}
}

func (p *ProxyClient) Fetch(ctx context.Context, urls []string) ([]Result, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("encoding urls: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+proxyMetadataPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.adminKey != "" {
		req.Header.Set("Authorization", p.adminKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling metadata proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("metadata proxy returned non-success status", "status", resp.StatusCode, "urls", len(urls))
		return nil, nil
	}

	var results []Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProxyResponse)).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding proxy response: %w", err)
	}
	return results, nil
}
