package checklatest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/git-pkgs/checklatest"
)

func benchmarkServer(n int) *httptest.Server {
	versions := make([]map[string]any, n)
	for i := range versions {
		versions[i] = map[string]any{
			"num":        fmt.Sprintf("1.%d.%d", i/10, i%10),
			"yanked":     i%7 == 0,
			"created_at": "2024-01-01T00:00:00Z",
		}
	}
	resp := map[string]any{
		"crate":    map[string]any{"name": "bench-crate"},
		"versions": versions,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func BenchmarkVersions(b *testing.B) {
	server := benchmarkServer(200)
	defer server.Close()

	opts := checklatest.Options{Name: "bench-crate", BaseURL: server.URL}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := checklatest.Versions(ctx, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCheckMax(b *testing.B) {
	server := benchmarkServer(200)
	defer server.Close()

	opts := checklatest.Options{
		Name:           "bench-crate",
		CurrentVersion: "1.0.0",
		BaseURL:        server.URL,
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := checklatest.CheckMax(ctx, opts); err != nil {
			b.Fatal(err)
		}
	}
}
