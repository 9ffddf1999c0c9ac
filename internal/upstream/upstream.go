// Package upstream forwards proxied requests to an LLM provider and
// exposes the minimal client contract the cache engine's surrounding
// handler depends on: post(headers, provider, body) -> (status, headers,
// body) or a network error.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/blueberrycongee/semcache/internal/provider"
)

// Response is the upstream's answer to a forwarded request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client forwards a request body to a provider's upstream URL.
type Client interface {
	Post(ctx context.Context, p provider.Type, url string, header http.Header, body []byte) (*Response, error)
}

// HTTPClient is the net/http-backed Client implementation, with an
// optional per-provider token-bucket throttle.
type HTTPClient struct {
	http *http.Client

	mu           sync.Mutex
	limiters     map[provider.Type]*rate.Limiter
	defaultLimit rate.Limit
	defaultBurst int
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the underlying http.Client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithRateLimit sets the requests-per-second/burst throttle applied to
// every provider that doesn't have a more specific limiter configured via
// WithProviderRateLimit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		c.defaultLimit = rate.Limit(rps)
		c.defaultBurst = burst
	}
}

// WithProviderRateLimit overrides the throttle for a single provider,
// the Go-generics-era analogue of the teacher's per-tenant rate limiter
// map, keyed here by upstream provider rather than tenant id since
// semcache has no multi-tenant concept.
func WithProviderRateLimit(p provider.Type, rps float64, burst int) Option {
	return func(c *HTTPClient) {
		c.limiters[p] = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPClient constructs an upstream HTTPClient.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		http:         &http.Client{Timeout: 60 * time.Second},
		limiters:     make(map[provider.Type]*rate.Limiter),
		defaultLimit: rate.Inf,
		defaultBurst: 0,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post forwards body to url as an HTTP POST, waiting on the provider's
// throttle first. header is forwarded verbatim; callers are expected to
// have already stripped hop-by-hop headers (the httpapi proxy does so
// via prepareUpstreamHeaders).
func (c *HTTPClient) Post(ctx context.Context, p provider.Type, url string, header http.Header, body []byte) (*Response, error) {
	if err := c.limiterFor(p).Wait(ctx); err != nil {
		return nil, fmt.Errorf("upstream: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func (c *HTTPClient) limiterFor(p provider.Type) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[p]; ok {
		return l
	}
	l := rate.NewLimiter(c.defaultLimit, c.defaultBurst)
	c.limiters[p] = l
	return l
}
