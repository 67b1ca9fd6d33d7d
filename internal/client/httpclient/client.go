// Package httpclient is the single request issuer for the book API. It owns
// the base address and the default headers, including the bearer
// Authorization header that the session manager sets and removes.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"

	maxBodyBytes = 4 << 20
)

// Client issues every request against one base address. Default headers are
// shared by all requests; there is no per-request override.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  zerolog.Logger

	mu      sync.RWMutex
	headers http.Header

	insecureTLS bool
	registerer  prometheus.Registerer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Transport is
// wrapped, not replaced, when metrics are enabled.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger logs every request at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithInsecureTLS skips certificate verification, for the self-signed
// certificate a local API serves on https://localhost.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) { c.insecureTLS = insecure }
}

// WithMetrics instruments the transport and registers the collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.registerer = reg }
}

// New parses baseURL once and returns a Client with JSON default headers.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q: missing host", baseURL)
	}

	c := &Client{
		base: u,
		log:  zerolog.Nop(),
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}

	transport := c.hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if c.insecureTLS {
		if t, ok := transport.(*http.Transport); ok {
			t = t.Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local dev certificates
			transport = t
		}
	}
	if c.registerer != nil {
		m, err := newClientMetrics(c.registerer)
		if err != nil {
			return nil, err
		}
		transport = m.instrument(transport)
	}
	hc := *c.hc
	hc.Transport = transport
	c.hc = &hc

	return c, nil
}

// BaseURL returns the resolved base address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetAuthHeader sets the default bearer header. An empty token removes the
// header so later requests carry no Authorization at all.
func (c *Client) SetAuthHeader(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.headers.Del(HeaderAuthorization)
		return
	}
	c.headers.Set(HeaderAuthorization, "Bearer "+token)
}

// AuthHeader returns the current default Authorization value, or "".
func (c *Client) AuthHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(HeaderAuthorization)
}

func (c *Client) defaultHeaders() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Clone()
}

// Do sends one request. body, when non-nil, is encoded as JSON; a 2xx JSON
// response is decoded into out when out is non-nil. Status codes >= 400 come
// back as *APIError. Nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.defaultHeaders() {
		req.Header[k] = v
	}
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", reqID).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
