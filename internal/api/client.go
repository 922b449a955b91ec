// Package api is the HTTP client for the expense tracking backend
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/findosh/moneymanager/internal/config"
	"github.com/findosh/moneymanager/internal/middleware"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 8 << 20

// TokenSource supplies the bearer token of the current session
type TokenSource = middleware.TokenSource

// Client talks to the backend REST API. Every request carries a request id
// and, when a session is held, its bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	logger    *log.Logger
}

// WithTransport replaces the underlying transport
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithLogger sets the request logger
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// New creates a client for cfg.APIBaseURL. tokens may be nil for
// unauthenticated use.
func New(cfg *config.Config, tokens TokenSource, opts ...Option) *Client {
	o := clientOptions{
		transport: http.DefaultTransport,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := middleware.Chain(o.transport,
		middleware.RequestID,
		middleware.BearerAuth(tokens),
		middleware.Logger(o.logger),
	)

	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends body as JSON and decodes the response into out
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	return c.send(ctx, method, path, query, reader, "application/json", out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A caller that gave up is not a connectivity failure
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFor(path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
