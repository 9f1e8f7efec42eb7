// Package rest implements platform.Platform against a hosted backend exposing
// PostgREST-style record endpoints, a WebSocket change feed, and an HTTP object
// store. All requests carry the project API key and the session bearer token.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/platform"
)

// Options configures the hosted-backend client.
type Options struct {
	// BaseURL is the project root, e.g. https://example.backend.co.
	BaseURL string
	// APIKey is the project's public API key, sent with every request.
	APIKey string
	// AccessToken is the session JWT for the signed-in user.
	AccessToken string
	// Bucket is the object-store bucket for chat attachments.
	Bucket string
	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the hosted backend. It implements platform.Platform.
type Client struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
	log     *zerolog.Logger

	mu    sync.RWMutex
	token string // cleared by SignOut while other requests may be in flight
}

// New builds a hosted-backend client.
func New(opts Options, logger *zerolog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "chat-files"
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		token:   opts.AccessToken,
		bucket:  bucket,
		http:    httpClient,
		log:     logger,
	}, nil
}

// Close implements platform.Platform. The HTTP client holds no state to release.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) restURL(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setAuthHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return platform.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

var _ platform.Platform = (*Client)(nil)
