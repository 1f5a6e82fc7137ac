// Package backend talks JSON over HTTP to the store backend: product list,
// sale submission and terminal status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/grocery-pos/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

type Config struct {
	BaseURL            string
	ProductListPath    string
	SaleSubmitPath     string
	TerminalStatusPath string
	// SessionCookie is an optional "name=value" cookie sent with every request.
	SessionCookie  string
	RequestTimeout time.Duration
}

type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	breaker *circuitbreaker.Breaker
	log     *zap.Logger
}

// NewClient builds the backend client. Backend refusals never count as
// breaker failures regardless of breaker.Ignore.
func NewClient(cfg Config, breaker circuitbreaker.Config, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, cfg.BaseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if breaker.Name == "" {
		breaker.Name = "backend"
	}
	if breaker.Logger == nil {
		breaker.Logger = log
	}
	breaker.Ignore = isRefusal

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cfg.SessionCookie != "" {
		name, value, ok := strings.Cut(cfg.SessionCookie, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: session cookie must be name=value", ErrInvalidConfig)
		}
		jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}

	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Jar:       jar,
			Timeout:   cfg.RequestTimeout,
		},
		breaker: circuitbreaker.New(breaker),
		log:     log,
	}, nil
}

// BreakerState reports the circuit breaker state for diagnostics.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// do sends one request through the breaker and returns the body of a 2xx
// response. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, header http.Header) ([]byte, error) {
	return circuitbreaker.Do(c.breaker, func() ([]byte, error) {
		return c.send(ctx, method, path, query, payload, header)
	})
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload any, header http.Header) ([]byte, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Refused: resp.StatusCode < 500,
		}
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Message))
		return nil, apiErr
	}
	return raw, nil
}

// errorMessage extracts the "error" (or "message") field of a JSON error body.
func errorMessage(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if v, ok := lookup(body, key); ok {
			var s string
			if json.Unmarshal(v, &s) == nil {
				return s
			}
		}
	}
	return ""
}

// lookup finds key in a JSON object regardless of key casing.
func lookup(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// envelope checks the {"success": bool, ...} wrapper. A missing success field
// is accepted; success=false becomes a refusal.
func envelope(raw []byte) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if v, ok := lookup(body, "success"); ok {
		var success bool
		if err := json.Unmarshal(v, &success); err != nil {
			return nil, fmt.Errorf("%w: success is not a boolean", ErrMalformedResponse)
		}
		if !success {
			return nil, &APIError{Status: http.StatusOK, Message: errorMessage(raw), Refused: true}
		}
	}
	return body, nil
}
