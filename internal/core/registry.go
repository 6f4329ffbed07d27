package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry is the interface implemented by ecosystem registry clients.
type Registry interface {
	// Ecosystem returns the PURL type for this registry (e.g. "npm").
	Ecosystem() string

	// FetchRecord retrieves metadata and recent download counts for a
	// package and merges them into one record. It either returns a complete
	// record or an error unwrapping to ErrFetchFailed.
	FetchRecord(ctx context.Context, name string) (PackageRecord, error)

	// URLs returns the URL builder for this registry.
	URLs() URLBuilder
}

// Endpoints are the base URLs a registry talks to.
type Endpoints struct {
	Registry  string
	Downloads string
}

// Factory creates a registry instance for the given endpoints.
type Factory func(ep Endpoints, client *Client) Registry

var (
	factories = make(map[string]Factory)
	defaults  = make(map[string]Endpoints)
	mu        sync.RWMutex
)

// Register adds a registry factory to the global registry.
func Register(ecosystem string, defaultEndpoints Endpoints, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[ecosystem] = factory
	defaults[ecosystem] = defaultEndpoints
}

// New creates a registry for the given ecosystem. Empty endpoint fields take
// the ecosystem's defaults; a nil client means DefaultClient().
func New(ecosystem string, ep Endpoints, client *Client) (Registry, error) {
	mu.RLock()
	factory, ok := factories[ecosystem]
	def := defaults[ecosystem]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown ecosystem: %s", ecosystem)
	}

	if ep.Registry == "" {
		ep.Registry = def.Registry
	}
	if ep.Downloads == "" {
		ep.Downloads = def.Downloads
	}

	if client == nil {
		client = DefaultClient()
	}

	return factory(ep, client), nil
}

// SupportedEcosystems returns all registered ecosystem types, sorted.
func SupportedEcosystems() []string {
	mu.RLock()
	defer mu.RUnlock()

	ecosystems := make([]string, 0, len(factories))
	for eco := range factories {
		ecosystems = append(ecosystems, eco)
	}
	sort.Strings(ecosystems)
	return ecosystems
}

// DefaultEndpoints returns the default endpoints for an ecosystem.
func DefaultEndpoints(ecosystem string) Endpoints {
	mu.RLock()
	defer mu.RUnlock()
	return defaults[ecosystem]
}
