// Package pocketbase provides an HTTP client for a PocketBase backend.
//
// Requests are JSON over HTTP. Error responses carry the envelope
// {"code": 400, "message": "...", "data": {...}} and surface as *APIError.
// Records travel as map[string]any documents; typed mapping is left to the
// calling layer.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client talks to a single PocketBase instance. Safe for concurrent use;
// the session token lives in the AuthStore.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthStore
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithToken pre-loads a session token, e.g. one persisted from an earlier run.
func WithToken(token string) Option {
	return func(c *Client) { c.auth.Save(token, nil, false) }
}

// New creates a client for the PocketBase instance at baseURL
// (e.g. "http://127.0.0.1:8090").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		auth:    &AuthStore{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// AuthStore returns the client's session store.
func (c *Client) AuthStore() *AuthStore { return c.auth }

// Health checks service reachability via GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// ------------------------------------------------------------------
// Low-level protocol
// ------------------------------------------------------------------

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pocketbase: marshal request %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, query, reader, "application/json", out)
}

// sendMultipart writes body fields and file parts as multipart/form-data.
// String fields go through verbatim; everything else is JSON-encoded, which
// the record API accepts for numbers, bools, and nested values alike.
func (c *Client) sendMultipart(ctx context.Context, method, path string, body map[string]any, files []File, out any) error {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for key, value := range body {
		var field string
		switch v := value.(type) {
		case string:
			field = v
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("pocketbase: marshal form field %q: %w", key, err)
			}
			field = string(data)
		}
		if err := w.WriteField(key, field); err != nil {
			return fmt.Errorf("pocketbase: write form field %q: %w", key, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return fmt.Errorf("pocketbase: create form file %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("pocketbase: write form file %q: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("pocketbase: close multipart body: %w", err)
	}
	return c.do(ctx, method, path, nil, buf, w.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("pocketbase: build request %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.auth.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pocketbase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pocketbase: read response %s: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("pocketbase: unmarshal response %s: %w", path, err)
	}
	return nil
}

func parseAPIError(status int, data []byte) error {
	apiErr := &APIError{Status: status}
	var envelope struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Data = envelope.Data
	} else {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
