// HTTP transport for the myMPD JSON-RPC endpoint
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// Transport performs raw HTTP requests against the myMPD web server.
//
// Outgoing requests are paced by an optional [rate.Limiter] so a burst of screen refreshes
// cannot flood the server.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTransport creates a [Transport] for baseURL. A nil client uses [http.DefaultClient] and a
// nil limiter disables pacing.
func NewTransport(baseURL string, client *http.Client, limiter *rate.Limiter) *Transport {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Transport{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
	}
}

// NewLimiter builds the request limiter from requests per second and burst. A non-positive
// rate disables pacing.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// BaseURL returns the server URL without a trailing slash.
func (t *Transport) BaseURL() string { return t.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (t *Transport) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return t.do(ctx, req)
}

// PostJSON performs a POST request with the given JSON body and returns the raw response.
func (t *Transport) PostJSON(ctx context.Context, path string, body []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(ctx, req)
}

func (t *Transport) do(ctx context.Context, req *http.Request) (*APIResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
