// Package checklatest queries the crates.io API for the published versions
// of a crate and answers "is there a newer release than mine?" questions,
// so command-line tools and long-running programs can self-report available
// updates.
//
// Basic usage:
//
//	import "github.com/git-pkgs/checklatest"
//
//	newer, err := checklatest.CheckMax(context.Background(), checklatest.Options{
//		Name:           "my-crate",
//		CurrentVersion: "1.0.0",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if newer != nil {
//		fmt.Printf("go get version %s!\n", newer)
//	}
//
// For finer-grained queries, fetch the full version set:
//
//	set, err := checklatest.Versions(ctx, checklatest.Options{Name: "my-crate"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if max := set.MaxUnyankedVersion(); max != nil {
//		fmt.Println(max)
//	}
//
// crates.io requires a descriptive User-Agent on every request; by default
// one is derived from Name and CurrentVersion ("my-crate/1.0.0").
package checklatest

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/git-pkgs/purl"

	"github.com/git-pkgs/checklatest/client"
	"github.com/git-pkgs/checklatest/internal/cargo"
	"github.com/git-pkgs/checklatest/internal/core"
)

// Re-export types from internal/core
type (
	// Release is one published version of a crate.
	Release = core.Release

	// VersionSet holds the published releases of one crate and answers
	// filter-and-select queries over them.
	VersionSet = core.VersionSet

	// CrateSummary is the deprecated two-field version summary.
	CrateSummary = core.CrateSummary

	// NotFoundError indicates the crate does not exist on the registry.
	NotFoundError = core.NotFoundError

	// DecodeError indicates the registry response could not be decoded.
	DecodeError = core.DecodeError

	// InputError indicates the caller's own current-version string is invalid.
	InputError = core.InputError
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for registry APIs.
	Client = client.Client

	// BreakerClient wraps a Client with per-host circuit breakers.
	BreakerClient = client.BreakerClient

	// Getter is the retrieval contract; Client, BreakerClient, and test
	// fakes are interchangeable implementations.
	Getter = client.Getter

	// Option configures a Client.
	Option = client.Option

	// RateLimiter controls request pacing.
	RateLimiter = client.RateLimiter

	// HTTPError represents an HTTP error response.
	HTTPError = client.HTTPError

	// RateLimitError is returned when the registry rate limits requests.
	RateLimitError = client.RateLimitError
)

// ErrNotFound is returned (wrapped) when a crate is not found.
var ErrNotFound = client.ErrNotFound

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
var DefaultClient = client.DefaultClient

// NewClient creates a new client with the given options.
var NewClient = client.NewClient

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// NewBreakerClient creates a circuit breaker wrapper for a client.
var NewBreakerClient = client.NewBreakerClient

// Options identifies the crate to check and how to talk to the registry.
// Only Name is always required; the Check functions also require
// CurrentVersion. Zero-value fields get documented defaults, replacing the
// many call-site permutations the library's callers used to hand-roll.
type Options struct {
	// Name is the crate to query. Required.
	Name string

	// CurrentVersion is the caller's own version, compared against the
	// registry's releases by the Check functions.
	CurrentVersion string

	// UserAgent, when set, is sent on every request, replacing whatever
	// the client would send. When empty, Name/CurrentVersion (e.g.
	// "my-crate/1.0.0") is derived, but a User-Agent the caller already
	// configured on their own Client or BreakerClient is kept. Getters
	// other than those two manage their own headers.
	UserAgent string

	// BaseURL defaults to https://crates.io.
	BaseURL string

	// Client defaults to DefaultClient(). Any Getter works: a plain
	// Client, a BreakerClient, or a test fake.
	Client Getter
}

func (o Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	if o.CurrentVersion != "" {
		return o.Name + "/" + o.CurrentVersion
	}
	return o.Name
}

// registry resolves defaults and builds the crates.io adapter.
func (o Options) registry() (*cargo.Registry, error) {
	if o.Name == "" {
		return nil, errors.New("checklatest: crate name is required")
	}

	c := o.Client
	if c == nil {
		c = client.DefaultClient().WithUserAgent(o.userAgent())
	} else {
		// An explicit UserAgent always wins. A derived one only replaces
		// the package default, never a User-Agent the caller configured
		// on the client themselves.
		switch hc := c.(type) {
		case *client.Client:
			if o.UserAgent != "" || hc.UserAgent() == client.DefaultUserAgent {
				c = hc.WithUserAgent(o.userAgent())
			}
		case *client.BreakerClient:
			if o.UserAgent != "" || hc.UserAgent() == client.DefaultUserAgent {
				c = hc.WithUserAgent(o.userAgent())
			}
		}
	}

	return cargo.New(o.BaseURL, c), nil
}

func (o Options) currentVersion() (*semver.Version, error) {
	if o.CurrentVersion == "" {
		return nil, &InputError{Value: "", Err: errors.New("current version is required")}
	}
	current, err := semver.StrictNewVersion(o.CurrentVersion)
	if err != nil {
		return nil, &InputError{Value: o.CurrentVersion, Err: err}
	}
	return current, nil
}

// Versions fetches the crate's published versions as a VersionSet.
func Versions(ctx context.Context, opts Options) (*VersionSet, error) {
	reg, err := opts.registry()
	if err != nil {
		return nil, err
	}
	return reg.FetchVersions(ctx, opts.Name)
}

// Summary fetches the two-field version summary from the top-level crate
// object.
//
// Deprecated: use Versions; the summary cannot distinguish yanked releases
// or constrain by major/minor line.
func Summary(ctx context.Context, opts Options) (*CrateSummary, error) {
	reg, err := opts.registry()
	if err != nil {
		return nil, err
	}
	return reg.FetchSummary(ctx, opts.Name)
}

// CheckMax reports the max unyanked version newer than CurrentVersion, or
// nil if the caller is up to date.
func CheckMax(ctx context.Context, opts Options) (*Release, error) {
	return check(ctx, opts, func(set *VersionSet, current *semver.Version) *Release {
		return set.MaxUnyankedVersion()
	})
}

// CheckMinor reports the max unyanked version newer than CurrentVersion
// within the same major line, or nil if none exists.
func CheckMinor(ctx context.Context, opts Options) (*Release, error) {
	return check(ctx, opts, func(set *VersionSet, current *semver.Version) *Release {
		return set.MaxUnyankedMinorVersion(current.Major())
	})
}

// CheckPatch reports the max unyanked version newer than CurrentVersion
// within the same major.minor line, or nil if none exists.
func CheckPatch(ctx context.Context, opts Options) (*Release, error) {
	return check(ctx, opts, func(set *VersionSet, current *semver.Version) *Release {
		return set.MaxUnyankedPatch(current.Major(), current.Minor())
	})
}

func check(ctx context.Context, opts Options, query func(*VersionSet, *semver.Version) *Release) (*Release, error) {
	current, err := opts.currentVersion()
	if err != nil {
		return nil, err
	}

	set, err := Versions(ctx, opts)
	if err != nil {
		return nil, err
	}

	candidate := query(set, current)
	if candidate == nil || !candidate.Version.GreaterThan(current) {
		return nil, nil
	}
	return candidate, nil
}

// CheckFromPURL runs CheckMax for a versioned cargo package URL, e.g.
// "pkg:cargo/serde@1.0.0". The PURL supplies Name and CurrentVersion;
// remaining fields of opts apply as usual.
func CheckFromPURL(ctx context.Context, purlStr string, opts Options) (*Release, error) {
	p, err := purl.Parse(purlStr)
	if err != nil {
		return nil, err
	}
	if p.Type != "cargo" {
		return nil, fmt.Errorf("unsupported purl type %q, want cargo", p.Type)
	}
	if p.Version == "" {
		return nil, fmt.Errorf("purl %q has no version to compare against", purlStr)
	}

	opts.Name = p.Name
	opts.CurrentVersion = p.Version
	return CheckMax(ctx, opts)
}

// BuildURLs returns a map of all non-empty URLs for a crate.
// Keys are "registry", "download", "docs", and "purl".
func BuildURLs(baseURL, name, version string) map[string]string {
	return cargo.BuildURLs(cargo.NewURLs(baseURL), name, version)
}
