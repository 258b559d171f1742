package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const serpFixture = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links">
    <div class="result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgo-tutorial&amp;rut=abc">Go Tutorial</a>
      </h2>
      <a class="result__snippet" href="#">Learn Go from the ground up.</a>
    </div>
  </div>
  <div class="result results_links">
    <div class="result__body">
      <h2 class="result__title">
        <a class="result__a" href="https://direct.example/page">Direct Result</a>
      </h2>
      <div class="result__snippet">No redirect wrapper on this one.</div>
    </div>
  </div>
  <div class="result__body">
    <span>malformed block without an anchor</span>
  </div>
</div>
</body></html>`

func TestDuckDuckGo_AlwaysAvailable(t *testing.T) {
	// WHY: the free provider terminates the fallback chain, so it must never
	// report itself unavailable.
	if !NewDuckDuckGo(DuckDuckGoConfig{}).Available() {
		t.Error("DuckDuckGo reported unavailable")
	}
}

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go tutorial" {
			t.Errorf("q = %q", got)
		}
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			t.Errorf("User-Agent = %q, want browser-like", r.Header.Get("User-Agent"))
		}
		io.WriteString(w, serpFixture)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(DuckDuckGoConfig{BaseURL: srv.URL, Logger: discardLogger()})
	results, err := d.Search(context.Background(), "go tutorial", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results: %+v", len(results), results)
	}
	if results[0].Title != "Go Tutorial" {
		t.Errorf("title = %q", results[0].Title)
	}
	// Redirect wrappers are resolved to the destination URL.
	if results[0].Link != "https://example.com/go-tutorial" {
		t.Errorf("link = %q, want unwrapped destination", results[0].Link)
	}
	if results[0].Snippet != "Learn Go from the ground up." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
	if results[1].Link != "https://direct.example/page" {
		t.Errorf("direct link = %q", results[1].Link)
	}
}

func TestDuckDuckGo_CapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, serpFixture)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(DuckDuckGoConfig{BaseURL: srv.URL, Logger: discardLogger()})
	results, err := d.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(DuckDuckGoConfig{BaseURL: srv.URL, Logger: discardLogger()})
	if _, err := d.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"empty", "", ""},
		{"plain link", "https://example.com/page", "https://example.com/page"},
		{"protocol relative redirect", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%20b", "https://example.com/a b"},
		{"path relative redirect", "/l/?uddg=https%3A%2F%2Fexample.com%2Fx", "https://example.com/x"},
		{"redirect without uddg", "https://duckduckgo.com/l/?rut=abc", "https://duckduckgo.com/l/?rut=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapRedirect(tt.href); got != tt.want {
				t.Errorf("unwrapRedirect(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestParseSERP_Empty(t *testing.T) {
	results, err := parseSERP([]byte(`<html><body><div class="no-results">No results.</div></body></html>`))
	if err != nil {
		t.Fatalf("parseSERP: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}
