// Package client provides the HTTP transport shared by registry clients: JSON
// GETs with status mapping, a DNS-cached dialer and per-host circuit breakers.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

const (
	defaultUserAgent = "pkgcompare"
	maxErrorBody     = 1024
)

// Client is an HTTP client for registry JSON APIs.
//
// A Client makes exactly one attempt per request. Requests to a host whose
// breaker is open fail immediately with ErrCircuitOpen.
type Client struct {
	http      *http.Client
	userAgent string
	breakers  *Breakers
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Zero leaves the platform default
// (no client-side timeout).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithBreakers sets the circuit breaker set. Pass nil to disable breaking.
func WithBreakers(b *Breakers) Option {
	return func(c *Client) {
		c.breakers = b
	}
}

var (
	resolver     = &dnscache.Resolver{}
	resolverOnce sync.Once
)

// sharedResolver returns the process-wide DNS cache, refreshed every 5 minutes.
func sharedResolver() *dnscache.Resolver {
	resolverOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				resolver.Refresh(true)
			}
		}()
	})
	return resolver
}

func newTransport() *http.Transport {
	r := sharedResolver()
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := r.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient creates a client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Transport: newTransport()},
		userAgent: defaultUserAgent,
		breakers:  NewBreakers(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultClient returns a client with no timeout override and circuit
// breaking enabled.
func DefaultClient() *Client {
	return NewClient()
}

// WithUserAgent returns a copy of the client that sends the given User-Agent.
func (c *Client) WithUserAgent(ua string) *Client {
	cp := *c
	cp.userAgent = ua
	return &cp
}

// Breakers returns the client's circuit breaker set, or nil.
func (c *Client) Breakers() *Breakers {
	return c.breakers
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// GetBody fetches url and returns the body of a 2xx response.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.guard(url, func() (bool, error) {
		var upstream bool
		var err error
		body, upstream, err = c.get(ctx, url)
		return upstream, err
	})
	return body, err
}

// guard runs fn under the breaker for url's host. fn reports whether its
// error reflects upstream health; client errors such as 404 never trip.
func (c *Client) guard(url string, fn func() (upstream bool, err error)) error {
	if c.breakers == nil {
		_, err := fn()
		return err
	}
	return c.breakers.Do(url, fn)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// A cancelled context is the caller's doing, not the registry's.
		return nil, ctx.Err() == nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("reading %s: %w", url, err)
		}
		return body, false, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, &NotFoundError{URL: url}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, &RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode >= 500, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(body),
		}
	}
}

func retryAfter(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
