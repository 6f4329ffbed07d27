package core

import (
	"github.com/git-pkgs/compare/client"
)

// Type aliases so ecosystem implementations only import core.
type (
	Client     = client.Client
	Option     = client.Option
	URLBuilder = client.URLBuilder
	BaseURLs   = client.BaseURLs
)

// Function aliases.
var (
	DefaultClient = client.DefaultClient
	NewClient     = client.NewClient
	WithTimeout   = client.WithTimeout
	WithBreakers  = client.WithBreakers
	BuildURLs     = client.BuildURLs
)
