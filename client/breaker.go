package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// BreakerClient wraps a Client with per-host circuit breakers. While a
// breaker is open, requests to that host fail fast instead of hitting an
// upstream that is already struggling.
type BreakerClient struct {
	client   *Client
	breakers *breakerGroup
}

// breakerGroup holds per-host breakers, shared between BreakerClient
// copies so trip state survives WithUserAgent.
type breakerGroup struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewBreakerClient creates a circuit breaker wrapper for a client.
func NewBreakerClient(c *Client) *BreakerClient {
	return &BreakerClient{
		client: c,
		breakers: &breakerGroup{
			breakers: make(map[string]*circuit.Breaker),
		},
	}
}

// WithUserAgent returns a copy of the client that sends the given
// User-Agent header. Breaker state is shared with the original.
func (b *BreakerClient) WithUserAgent(ua string) *BreakerClient {
	return &BreakerClient{
		client:   b.client.WithUserAgent(ua),
		breakers: b.breakers,
	}
}

// UserAgent returns the User-Agent header the wrapped client sends.
func (b *BreakerClient) UserAgent() string {
	return b.client.UserAgent()
}

// get returns or creates a circuit breaker for the given host.
func (g *breakerGroup) get(host string) *circuit.Breaker {
	g.mu.RLock()
	breaker, exists := g.breakers[host]
	g.mu.RUnlock()

	if exists {
		return breaker
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := g.breakers[host]; exists {
		return breaker
	}

	// Trips after 5 consecutive failures, resets on an exponential schedule
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	opts := &circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	}
	breaker = circuit.NewBreakerWithOptions(opts)

	g.breakers[host] = breaker
	return breaker
}

// GetJSON wraps the underlying client's GetJSON with circuit breaker logic.
func (b *BreakerClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	host := extractHost(rawURL)
	breaker := b.breakers.get(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for %s", host)
	}

	return breaker.Call(func() error {
		return b.client.GetJSON(ctx, rawURL, out)
	}, 0)
}

// GetBody wraps the underlying client's GetBody with circuit breaker logic.
func (b *BreakerClient) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	host := extractHost(rawURL)
	breaker := b.breakers.get(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s", host)
	}

	var body []byte
	err := breaker.Call(func() error {
		var getErr error
		body, getErr = b.client.GetBody(ctx, rawURL)
		return getErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// BreakerStates returns the current state of circuit breakers, keyed by
// host (for health checks).
func (b *BreakerClient) BreakerStates() map[string]string {
	b.breakers.mu.RLock()
	defer b.breakers.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range b.breakers.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// extractHost extracts a host from a URL for circuit breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		// Fallback to simple truncation
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
