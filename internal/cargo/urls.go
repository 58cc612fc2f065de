package cargo

import (
	"fmt"
	"strings"
)

// URLs constructs crates.io related URLs for a crate.
type URLs struct {
	baseURL string
}

// NewURLs creates a URL builder for the given registry base URL.
// If baseURL is empty, crates.io is used.
func NewURLs(baseURL string) *URLs {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &URLs{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Registry returns the human-facing crate page.
func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/crates/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/crates/%s", u.baseURL, name)
}

// Download returns the crate file URL on the static CDN.
func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("https://static.crates.io/crates/%s/%s-%s.crate", name, name, version)
}

// Documentation returns the docs.rs URL.
func (u *URLs) Documentation(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://docs.rs/%s/%s", name, version)
	}
	return fmt.Sprintf("https://docs.rs/%s", name)
}

// PURL returns the package URL identifier.
func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:cargo/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:cargo/%s", name)
}

// BuildURLs returns a map of all non-empty URLs for a crate.
// Keys are "registry", "download", "docs", and "purl".
func BuildURLs(urls *URLs, name, version string) map[string]string {
	result := make(map[string]string)
	if v := urls.Registry(name, version); v != "" {
		result["registry"] = v
	}
	if v := urls.Download(name, version); v != "" {
		result["download"] = v
	}
	if v := urls.Documentation(name, version); v != "" {
		result["docs"] = v
	}
	if v := urls.PURL(name, version); v != "" {
		result["purl"] = v
	}
	return result
}
