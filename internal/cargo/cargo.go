// Package cargo fetches crate version lists from the crates.io API.
package cargo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/git-pkgs/checklatest/client"
	"github.com/git-pkgs/checklatest/internal/core"
)

// DefaultURL is the public crates.io registry.
const DefaultURL = "https://crates.io"

// Registry is a crates.io client producing core.VersionSet values.
type Registry struct {
	baseURL string
	client  client.Getter
	urls    *URLs
}

// New creates a Registry. If baseURL is empty, crates.io is used; if c is
// nil, client.DefaultClient() is used.
func New(baseURL string, c client.Getter) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if c == nil {
		c = client.DefaultClient()
	}
	r := &Registry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  c,
	}
	r.urls = NewURLs(r.baseURL)
	return r
}

// URLs returns the URL builder for this registry.
func (r *Registry) URLs() *URLs {
	return r.urls
}

type crateResponse struct {
	Crate    *crateInfo    `json:"crate"`
	Versions []versionInfo `json:"versions"`
}

type crateInfo struct {
	Name          string `json:"name"`
	MaxVersion    string `json:"max_version"`
	NewestVersion string `json:"newest_version"`
}

type versionInfo struct {
	Num       string `json:"num"`
	Yanked    bool   `json:"yanked"`
	CreatedAt string `json:"created_at"`
}

func (r *Registry) get(ctx context.Context, name string) (*crateResponse, error) {
	url := fmt.Sprintf("%s/api/v1/crates/%s", r.baseURL, name)

	var resp crateResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil, &core.NotFoundError{Name: name}
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, &core.DecodeError{Field: "body", Err: err}
		}
		return nil, err
	}
	return &resp, nil
}

// FetchVersions retrieves the crate's published versions as a VersionSet.
// Decoding is strict: a missing versions array, an unparseable version
// number, or a missing publication timestamp fails the whole call.
func (r *Registry) FetchVersions(ctx context.Context, name string) (*core.VersionSet, error) {
	resp, err := r.get(ctx, name)
	if err != nil {
		return nil, err
	}

	if resp.Versions == nil {
		return nil, &core.DecodeError{Field: "versions"}
	}

	releases := make([]core.Release, len(resp.Versions))
	for i, v := range resp.Versions {
		if v.Num == "" {
			return nil, &core.DecodeError{Field: "num"}
		}
		version, err := semver.StrictNewVersion(v.Num)
		if err != nil {
			return nil, &core.DecodeError{Field: "num", Err: fmt.Errorf("%q: %w", v.Num, err)}
		}
		if v.CreatedAt == "" {
			return nil, &core.DecodeError{Field: "created_at"}
		}
		publishedAt, err := time.Parse(time.RFC3339, v.CreatedAt)
		if err != nil {
			return nil, &core.DecodeError{Field: "created_at", Err: err}
		}

		releases[i] = core.Release{
			Version:     version,
			Yanked:      v.Yanked,
			PublishedAt: publishedAt,
		}
	}

	return core.NewVersionSet(releases), nil
}

// FetchSummary retrieves the two-field version summary from the top-level
// crate object.
//
// Deprecated: use FetchVersions; the summary cannot distinguish yanked
// releases or constrain by major/minor line.
func (r *Registry) FetchSummary(ctx context.Context, name string) (*core.CrateSummary, error) {
	resp, err := r.get(ctx, name)
	if err != nil {
		return nil, err
	}

	if resp.Crate == nil {
		return nil, &core.DecodeError{Field: "crate"}
	}
	maxVersion, err := semver.StrictNewVersion(resp.Crate.MaxVersion)
	if err != nil {
		return nil, &core.DecodeError{Field: "crate.max_version", Err: err}
	}
	newestVersion, err := semver.StrictNewVersion(resp.Crate.NewestVersion)
	if err != nil {
		return nil, &core.DecodeError{Field: "crate.newest_version", Err: err}
	}

	return &core.CrateSummary{
		MaxVersion:    maxVersion,
		NewestVersion: newestVersion,
	}, nil
}
