// Package compare fetches npm package metadata and recent download counts
// and builds side-by-side comparisons of them.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/compare"
//		_ "github.com/git-pkgs/compare/all"
//	)
//
//	reg, err := compare.New("npm", compare.Endpoints{}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rec, err := reg.FetchRecord(context.Background(), "react")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(rec.Name, rec.Version, rec.TotalDownloads())
//
// To keep several packages side by side, feed records through a
// search.Controller and render the resulting state with the view package.
package compare

import (
	"context"
	"errors"

	"github.com/git-pkgs/compare/client"
	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/search"
	"github.com/git-pkgs/compare/store"
)

// Re-export types from internal/core
type (
	// Registry is the interface implemented by ecosystem registry clients.
	Registry = core.Registry

	// Endpoints are the base URLs a registry talks to.
	Endpoints = core.Endpoints

	// PackageRecord is the merged metadata and downloads of one package.
	PackageRecord = core.PackageRecord

	// DownloadSample is one day's download count.
	DownloadSample = core.DownloadSample
)

// Re-export types from client
type (
	// Client is an HTTP client with a per-host circuit breaker.
	Client = client.Client

	// URLBuilder constructs URLs for a registry.
	URLBuilder = client.URLBuilder

	// Option configures a Client.
	Option = client.Option
)

// Re-export errors
var (
	ErrFetchFailed = core.ErrFetchFailed
	ErrDuplicate   = core.ErrDuplicate
	ErrInvalidName = core.ErrInvalidName
)

// Error types
type (
	FetchError     = core.FetchError
	DuplicateError = core.DuplicateError
	HTTPError      = client.HTTPError
	NotFoundError  = client.NotFoundError
	RateLimitError = client.RateLimitError
)

// New creates a registry for the given ecosystem. Empty endpoint fields take
// the ecosystem's defaults; a nil client means DefaultClient().
func New(ecosystem string, ep Endpoints, c *Client) (Registry, error) {
	return core.New(ecosystem, ep, c)
}

// DefaultClient returns a client with no retries, the platform's default
// timeout and a circuit breaker per registry host.
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithBreakers replaces the client's circuit breakers; nil disables them.
var WithBreakers = client.WithBreakers

// SupportedEcosystems returns all registered ecosystem types.
// Note: ecosystems must be imported to be registered.
func SupportedEcosystems() []string {
	return core.SupportedEcosystems()
}

// DefaultEndpoints returns the default endpoints for an ecosystem.
func DefaultEndpoints(ecosystem string) Endpoints {
	return core.DefaultEndpoints(ecosystem)
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "metadata", "downloads", "registry" and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	return client.BuildURLs(urls, name, version)
}

// Compare fetches each name in turn into a fresh comparison and returns the
// result. Names that fail are left out; their errors are joined in err.
func Compare(ctx context.Context, reg Registry, names ...string) (store.Store, error) {
	ctrl := search.NewController(reg, search.WithEcosystem(reg.Ecosystem()))
	var errs []error
	for _, name := range names {
		if err := ctrl.Submit(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return ctrl.State().Store, errors.Join(errs...)
}
