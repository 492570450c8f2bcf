// Package apiclient talks to the representative desk REST backend. Every
// call is a single attempt; failures come back as *APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a typed REST client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	bench   benchmarkCache
}

// Option customises a Client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for baseURL, which already includes the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request. route is the documented path template used in
// error messages; path is the concrete path.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
	header http.Header
}

type problem struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (c *Client) do(ctx context.Context, in call, out any) error {
	_, err := c.raw(ctx, in, out)
	return err
}

// raw performs the request. When out is a *[]byte the body is copied
// verbatim; otherwise it is decoded as JSON.
func (c *Client) raw(ctx context.Context, in call, out any) (http.Header, error) {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	var body io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s %s: %w", in.method, in.route, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s %s: %w", in.method, in.route, err)
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, vs := range in.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := transportError(in.method, in.route, err)
		c.logger.Error("backend request failed",
			slog.String("method", in.method), slog.String("route", in.route), slog.Any("error", err))
		return nil, apiErr
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(in.method, in.route, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var p problem
		_ = json.Unmarshal(payload, &p)
		msg := p.Message
		if msg == "" {
			msg = p.Detail
		}
		apiErr := classify(in.method, in.route, resp.StatusCode, msg)
		c.logger.Error("backend request failed",
			slog.String("method", in.method),
			slog.String("route", in.route),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return nil, apiErr
	}

	switch dst := out.(type) {
	case nil:
	case *[]byte:
		*dst = payload
	default:
		if len(bytes.TrimSpace(payload)) == 0 {
			return resp.Header, nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, fmt.Errorf("apiclient: decode %s %s: %w", in.method, in.route, err)
		}
	}
	return resp.Header, nil
}
