// Package apiframe is a REST client for the APIframe Midjourney gateway.
// It covers the two calls a one-shot generation needs, /imagine and /fetch,
// plus plain downloads of the result URLs the gateway hands back.
package apiframe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public APIframe endpoint.
const DefaultBaseURL = "https://api.apiframe.pro"

// maxDownloadBytes caps a single result image.
const maxDownloadBytes = 64 << 20

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("APIframe API key is empty")

// StatusError is returned for any non-2xx gateway response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("apiframe returned status %d", e.Code)
	}
	return fmt.Sprintf("apiframe returned status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the APIframe gateway.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. A nil HTTPClient falls back to a 60s-timeout client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the gateway root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Imagine submits a prompt and returns the gateway's task id.
func (c *Client) Imagine(ctx context.Context, req ImagineRequest) (ImagineResponse, error) {
	var resp ImagineResponse
	if err := c.post(ctx, "/imagine", req, &resp); err != nil {
		return ImagineResponse{}, err
	}
	return resp, nil
}

// Fetch returns the current state of a task.
func (c *Client) Fetch(ctx context.Context, taskID string) (FetchResponse, error) {
	var resp FetchResponse
	if err := c.post(ctx, "/fetch", FetchRequest{TaskID: taskID}, &resp); err != nil {
		return FetchResponse{}, err
	}
	return resp, nil
}

// Download fetches a result URL. Result URLs are public CDN links, so no
// credentials are attached.
func (c *Client) Download(ctx context.Context, rawURL string) (*Download, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: truncateString(strings.TrimSpace(string(body)), 200)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxDownloadBytes)
	}

	log.Debug().
		Str("url", truncateString(rawURL, 120)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(startTime)).
		Msg("Downloaded result image")

	return &Download{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("APIframe call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: truncateString(strings.TrimSpace(string(respBody)), 200)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
