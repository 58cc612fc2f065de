// Package client provides the HTTP layer for talking to registry APIs:
// a retrying JSON client with DNS caching, optional rate limiting, and a
// circuit breaker adapter.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
)

// DefaultUserAgent is the User-Agent header sent until the caller sets a
// descriptive one with WithUserAgent.
const DefaultUserAgent = "checklatest"

// Getter fetches documents from a registry API. It is the single retrieval
// contract the rest of the library depends on; *Client and *BreakerClient
// are interchangeable implementations, and tests inject fakes.
type Getter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// RateLimiter controls request pacing.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Client is an HTTP client with retry logic for registry APIs.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	limiter    RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter sets a rate limiter applied before every request.
func WithRateLimiter(l RateLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithBaseDelay sets the base delay for exponential backoff between retries.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return NewClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: cachingTransport(),
		},
		userAgent:  DefaultUserAgent,
		maxRetries: 5,
		baseDelay:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cachingTransport builds an http.Transport that dials through a cached
// DNS resolver, refreshed every 5 minutes.
func cachingTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to dial any resolved IP")
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// WithUserAgent returns a copy of the client that sends the given
// User-Agent header. crates.io rejects requests without a descriptive one.
func (c *Client) WithUserAgent(ua string) *Client {
	clone := *c
	clone.userAgent = ua
	return &clone
}

// UserAgent returns the User-Agent header the client sends.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// GetJSON fetches the URL and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// GetBody fetches the URL and returns the raw response body, retrying on
// 429 and 5xx responses with exponential backoff.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}
		}

		body, retryable, err := c.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// Head issues a HEAD request and returns the response headers.
func (c *Client) Head(ctx context.Context, url string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head request: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Header, nil
}

// doGet performs a single GET. The second return value reports whether the
// failure is worth retrying.
func (c *Client) doGet(ctx context.Context, url string) ([]byte, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("reading response from %s: %w", url, err)
		}
		return body, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if n, err := strconv.Atoi(ra); err == nil {
				retryAfter = n
			}
		}
		return nil, true, &RateLimitError{RetryAfter: retryAfter}

	case resp.StatusCode >= 500:
		return nil, true, &HTTPError{StatusCode: resp.StatusCode, URL: url}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, false, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(body),
		}
	}
}

// IntervalLimiter is a RateLimiter that enforces a minimum interval
// between requests. Call Stop when the limiter is no longer needed to
// release the underlying ticker.
type IntervalLimiter struct {
	ticker *time.Ticker
}

// NewIntervalLimiter creates a limiter allowing one request per interval.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{ticker: time.NewTicker(interval)}
}

func (l *IntervalLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
		return nil
	}
}

// Stop releases the limiter's ticker. Wait must not be called after Stop.
func (l *IntervalLimiter) Stop() {
	l.ticker.Stop()
}
