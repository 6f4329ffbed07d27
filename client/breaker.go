package client

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// tripThreshold is the number of consecutive upstream failures that opens a
// host's breaker.
const tripThreshold = 5

// Breakers holds one circuit breaker per registry host.
type Breakers struct {
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewBreakers creates an empty breaker set.
func NewBreakers() *Breakers {
	return &Breakers{
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (b *Breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, exists := b.breakers[host]
	b.mu.RUnlock()

	if exists {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, exists := b.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(tripThreshold),
	})
	b.breakers[host] = breaker
	return breaker
}

// Do runs fn under the breaker for rawURL's host. Only errors that fn flags
// as upstream failures count towards tripping.
func (b *Breakers) Do(rawURL string, fn func() (upstream bool, err error)) error {
	host := hostOf(rawURL)
	breaker := b.get(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for %s: %w", host, ErrCircuitOpen)
	}

	upstream, err := fn()
	switch {
	case err == nil:
		breaker.Success()
	case upstream:
		breaker.Fail()
	}
	return err
}

// States reports "open" or "closed" for every host seen so far.
func (b *Breakers) States() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
