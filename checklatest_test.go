package checklatest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/git-pkgs/checklatest"
)

func crateServer(t *testing.T, name string, versions []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/crates/"+name {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(404)
			return
		}
		resp := map[string]any{
			"crate":    map[string]any{"name": name},
			"versions": versions,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestCheckNewerAvailable(t *testing.T) {
	server := crateServer(t, "my-crate", []map[string]any{
		{"num": "1.0.0", "yanked": false, "created_at": "2024-01-01T00:00:00Z"},
		{"num": "1.1.0", "yanked": false, "created_at": "2024-02-01T00:00:00Z"},
		{"num": "2.0.0", "yanked": false, "created_at": "2024-03-01T00:00:00Z"},
	})
	defer server.Close()

	opts := checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
	}

	ctx := context.Background()

	max, err := checklatest.CheckMax(ctx, opts)
	if err != nil {
		t.Fatalf("CheckMax failed: %v", err)
	}
	if max == nil || max.Version.String() != "2.0.0" {
		t.Errorf("CheckMax = %v, want 2.0.0", max)
	}

	minor, err := checklatest.CheckMinor(ctx, opts)
	if err != nil {
		t.Fatalf("CheckMinor failed: %v", err)
	}
	if minor == nil || minor.Version.String() != "1.1.0" {
		t.Errorf("CheckMinor = %v, want 1.1.0", minor)
	}

	patch, err := checklatest.CheckPatch(ctx, opts)
	if err != nil {
		t.Fatalf("CheckPatch failed: %v", err)
	}
	if patch != nil {
		t.Errorf("CheckPatch = %v, want nil (no newer patch in 1.0.x)", patch)
	}
}

// A yanked release must never be recommended, even when it is numerically
// the greatest.
func TestCheckIgnoresYanked(t *testing.T) {
	server := crateServer(t, "my-crate", []map[string]any{
		{"num": "1.0.0", "yanked": true, "created_at": "2024-02-01T00:00:00Z"},
		{"num": "0.9.0", "yanked": false, "created_at": "2024-01-01T00:00:00Z"},
	})
	defer server.Close()

	opts := checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "0.9.0",
		BaseURL:        server.URL,
	}

	newer, err := checklatest.CheckMax(context.Background(), opts)
	if err != nil {
		t.Fatalf("CheckMax failed: %v", err)
	}
	if newer != nil {
		t.Errorf("CheckMax = %v, want nil despite yanked 1.0.0 existing", newer)
	}
}

func TestCheckUpToDate(t *testing.T) {
	server := crateServer(t, "my-crate", []map[string]any{
		{"num": "1.0.0", "yanked": false, "created_at": "2024-01-01T00:00:00Z"},
	})
	defer server.Close()

	newer, err := checklatest.CheckMax(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
	})
	if err != nil {
		t.Fatalf("CheckMax failed: %v", err)
	}
	if newer != nil {
		t.Errorf("CheckMax = %v, want nil when current equals max", newer)
	}
}

func TestCheckMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crate": {"name": "my-crate"}}`))
	}))
	defer server.Close()

	_, err := checklatest.CheckMax(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
	})

	var decodeErr *checklatest.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError for missing versions field, got %v", err)
	}
}

func TestCheckBadCurrentVersion(t *testing.T) {
	// Must fail before any request is made
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for invalid input")
	}))
	defer server.Close()

	_, err := checklatest.CheckMax(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "one-point-oh",
		BaseURL:        server.URL,
	})

	var inputErr *checklatest.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if inputErr.Value != "one-point-oh" {
		t.Errorf("InputError.Value = %q", inputErr.Value)
	}
}

func TestVersionsRequiresName(t *testing.T) {
	_, err := checklatest.Versions(context.Background(), checklatest.Options{})
	if err == nil {
		t.Fatal("expected error for missing crate name")
	}
}

func TestDefaultUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crate": {"name": "my-crate"}, "versions": []}`))
	}))
	defer server.Close()

	_, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
	})
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}

	if gotUA != "my-crate/1.0.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "my-crate/1.0.0")
	}
}

func TestUserAgentSentThroughBreakerClient(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crate": {"name": "my-crate"}, "versions": []}`))
	}))
	defer server.Close()

	ua := "my-crate/9.9.9 (contact@example.com)"
	_, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:      "my-crate",
		UserAgent: ua,
		BaseURL:   server.URL,
		Client:    checklatest.NewBreakerClient(checklatest.DefaultClient()),
	})
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}

	if gotUA != ua {
		t.Errorf("User-Agent = %q, want %q", gotUA, ua)
	}
}

func TestUserAgentConfiguredOnClientKept(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crate": {"name": "my-crate"}, "versions": []}`))
	}))
	defer server.Close()

	// Options.UserAgent is empty, so the client's own setting must survive
	_, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
		Client:         checklatest.DefaultClient().WithUserAgent("custom-tool/0.3.0"),
	})
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}

	if gotUA != "custom-tool/0.3.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "custom-tool/0.3.0")
	}
}

func TestUserAgentDerivedForUnconfiguredClient(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crate": {"name": "my-crate"}, "versions": []}`))
	}))
	defer server.Close()

	// A supplied client still on the package default picks up the derived
	// Name/CurrentVersion User-Agent
	_, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
		Client:         checklatest.DefaultClient(),
	})
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}

	if gotUA != "my-crate/1.0.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "my-crate/1.0.0")
	}
}

func TestVersionsEmptyList(t *testing.T) {
	server := crateServer(t, "my-crate", []map[string]any{})
	defer server.Close()

	set, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:    "my-crate",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}

	// A valid response with no versions is an empty set, not an error
	if set.Len() != 0 {
		t.Errorf("Len = %d, want 0", set.Len())
	}
	if max := set.MaxVersion(); max != nil {
		t.Errorf("MaxVersion = %v, want nil", max)
	}
}

func TestVersionsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer server.Close()

	_, err := checklatest.Versions(context.Background(), checklatest.Options{
		Name:    "no-such-crate",
		BaseURL: server.URL,
	})
	if !errors.Is(err, checklatest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"crate": {"name": "my-crate", "max_version": "2.0.0", "newest_version": "1.5.1"},
			"versions": []
		}`))
	}))
	defer server.Close()

	summary, err := checklatest.Summary(context.Background(), checklatest.Options{
		Name:    "my-crate",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.MaxVersion.String() != "2.0.0" {
		t.Errorf("MaxVersion = %s, want 2.0.0", summary.MaxVersion)
	}
	if summary.NewestVersion.String() != "1.5.1" {
		t.Errorf("NewestVersion = %s, want 1.5.1", summary.NewestVersion)
	}
}

func TestCheckFromPURL(t *testing.T) {
	server := crateServer(t, "serde", []map[string]any{
		{"num": "1.0.0", "yanked": false, "created_at": "2024-01-01T00:00:00Z"},
		{"num": "1.2.0", "yanked": false, "created_at": "2024-02-01T00:00:00Z"},
	})
	defer server.Close()

	newer, err := checklatest.CheckFromPURL(context.Background(), "pkg:cargo/serde@1.0.0", checklatest.Options{
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("CheckFromPURL failed: %v", err)
	}
	if newer == nil || newer.Version.String() != "1.2.0" {
		t.Errorf("CheckFromPURL = %v, want 1.2.0", newer)
	}
}

func TestCheckFromPURLRejectsOtherEcosystems(t *testing.T) {
	_, err := checklatest.CheckFromPURL(context.Background(), "pkg:npm/lodash@4.17.21", checklatest.Options{})
	if err == nil {
		t.Fatal("expected error for non-cargo purl")
	}
}

func TestCheckFromPURLRequiresVersion(t *testing.T) {
	_, err := checklatest.CheckFromPURL(context.Background(), "pkg:cargo/serde", checklatest.Options{})
	if err == nil {
		t.Fatal("expected error for purl without version")
	}
}

func TestCheckWithBreakerClient(t *testing.T) {
	server := crateServer(t, "my-crate", []map[string]any{
		{"num": "1.1.0", "yanked": false, "created_at": "2024-01-01T00:00:00Z"},
	})
	defer server.Close()

	breaker := checklatest.NewBreakerClient(checklatest.DefaultClient())
	newer, err := checklatest.CheckMax(context.Background(), checklatest.Options{
		Name:           "my-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
		Client:         breaker,
	})
	if err != nil {
		t.Fatalf("CheckMax via breaker failed: %v", err)
	}
	if newer == nil || newer.Version.String() != "1.1.0" {
		t.Errorf("CheckMax = %v, want 1.1.0", newer)
	}
}

func TestBuildURLs(t *testing.T) {
	urls := checklatest.BuildURLs("", "serde", "1.0.228")
	if urls["purl"] != "pkg:cargo/serde@1.0.228" {
		t.Errorf("purl = %q", urls["purl"])
	}
	if urls["registry"] != "https://crates.io/crates/serde/1.0.228" {
		t.Errorf("registry = %q", urls["registry"])
	}
}
