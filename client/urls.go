package client

import "fmt"

// URLBuilder constructs URLs for a registry.
type URLBuilder interface {
	// Metadata is the JSON API URL for a package document.
	Metadata(name string) string
	// Downloads is the JSON API URL for the package's recent daily downloads.
	Downloads(name string) string
	// Registry is the human-facing package page.
	Registry(name, version string) string
	PURL(name, version string) string
}

// BaseURLs provides a default URLBuilder implementation.
type BaseURLs struct {
	MetadataFn  func(name string) string
	DownloadsFn func(name string) string
	RegistryFn  func(name, version string) string
	PURLFn      func(name, version string) string
}

func (b *BaseURLs) Metadata(name string) string {
	if b.MetadataFn != nil {
		return b.MetadataFn(name)
	}
	return ""
}

func (b *BaseURLs) Downloads(name string) string {
	if b.DownloadsFn != nil {
		return b.DownloadsFn(name)
	}
	return ""
}

func (b *BaseURLs) Registry(name, version string) string {
	if b.RegistryFn != nil {
		return b.RegistryFn(name, version)
	}
	return ""
}

func (b *BaseURLs) PURL(name, version string) string {
	if b.PURLFn != nil {
		return b.PURLFn(name, version)
	}
	if version != "" {
		return fmt.Sprintf("pkg:generic/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:generic/%s", name)
}

// BuildURLs returns a map of all non-empty URLs for a package.
// Keys are "metadata", "downloads", "registry" and "purl".
func BuildURLs(urls URLBuilder, name, version string) map[string]string {
	result := make(map[string]string)
	if v := urls.Metadata(name); v != "" {
		result["metadata"] = v
	}
	if v := urls.Downloads(name); v != "" {
		result["downloads"] = v
	}
	if v := urls.Registry(name, version); v != "" {
		result["registry"] = v
	}
	if v := urls.PURL(name, version); v != "" {
		result["purl"] = v
	}
	return result
}
