package search

import (
	"context"
	"errors"
	"testing"
)

// stubProvider is a scripted Provider for chain tests.
type stubProvider struct {
	name      string
	available bool
	results   []RawResult
	err       error

	calls  int
	gotMax int
	gotQ   string
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Search(_ context.Context, query string, maxResults int) ([]RawResult, error) {
	s.calls++
	s.gotQ = query
	s.gotMax = maxResults
	return s.results, s.err
}

func hits(n int) []RawResult {
	out := make([]RawResult, n)
	for i := range out {
		out[i] = RawResult{Title: "T", Link: "https://h.example", Snippet: "s"}
	}
	return out
}

func newTestOrchestrator(providers ...Provider) *Orchestrator {
	return New(Config{
		Providers: providers,
		Scrape:    stubScrape,
		Logger:    discardLogger(),
	})
}

func TestSearch_FirstProviderWins(t *testing.T) {
	// WHAT: the chain stops at the first provider with results; later
	// providers are never called.
	first := &stubProvider{name: "Serper API", available: true, results: hits(2)}
	second := &stubProvider{name: "DuckDuckGo (free fallback)", available: true, results: hits(2)}

	out := newTestOrchestrator(first, second).Search(context.Background(), "query", 5)

	if out.Source != "Serper API" {
		t.Errorf("source = %q", out.Source)
	}
	if out.Error != "" {
		t.Errorf("error = %q, want empty", out.Error)
	}
	if len(out.Results) != 2 {
		t.Fatalf("got %d results", len(out.Results))
	}
	if out.Results[0].Content != "content:https://h.example" {
		t.Errorf("results not enriched: %+v", out.Results[0])
	}
	if second.calls != 0 {
		t.Errorf("fallback provider called %d times, want 0", second.calls)
	}
	if first.gotQ != "query" || first.gotMax != 5 {
		t.Errorf("provider saw query=%q max=%d", first.gotQ, first.gotMax)
	}
}

func TestSearch_AdvancesOnError(t *testing.T) {
	// WHAT: a provider error is treated like an empty result list.
	broken := &stubProvider{name: "Serper API", available: true, err: errors.New("503")}
	fallback := &stubProvider{name: "Tavily API", available: true, results: hits(1)}

	out := newTestOrchestrator(broken, fallback).Search(context.Background(), "q", 5)

	if out.Source != "Tavily API" {
		t.Errorf("source = %q", out.Source)
	}
	if len(out.Results) != 1 {
		t.Errorf("got %d results", len(out.Results))
	}
	if broken.calls != 1 {
		t.Errorf("broken provider called %d times, want exactly 1", broken.calls)
	}
}

func TestSearch_AdvancesOnEmpty(t *testing.T) {
	empty := &stubProvider{name: "Serper API", available: true}
	fallback := &stubProvider{name: "DuckDuckGo (free fallback)", available: true, results: hits(1)}

	out := newTestOrchestrator(empty, fallback).Search(context.Background(), "q", 5)

	if out.Source != "DuckDuckGo (free fallback)" {
		t.Errorf("source = %q", out.Source)
	}
	if len(out.Results) != 1 {
		t.Errorf("got %d results", len(out.Results))
	}
}

func TestSearch_SkipsUnavailable(t *testing.T) {
	// WHAT: providers without credentials are skipped without being called,
	// and do not appear as the source.
	keyless := &stubProvider{name: "Serper API", available: false, results: hits(3)}
	free := &stubProvider{name: "DuckDuckGo (free fallback)", available: true, results: hits(1)}

	out := newTestOrchestrator(keyless, free).Search(context.Background(), "q", 5)

	if keyless.calls != 0 {
		t.Errorf("unavailable provider called %d times", keyless.calls)
	}
	if out.Source != "DuckDuckGo (free fallback)" {
		t.Errorf("source = %q", out.Source)
	}
}

func TestSearch_Exhausted(t *testing.T) {
	// WHAT: a fully exhausted chain yields a well-formed outcome with the
	// canonical error message, never a nil result slice.
	a := &stubProvider{name: "Serper API", available: true}
	b := &stubProvider{name: "DuckDuckGo (free fallback)", available: true}

	out := newTestOrchestrator(a, b).Search(context.Background(), "nothing anywhere", 5)

	if out.Error != ErrNoResults {
		t.Errorf("error = %q, want %q", out.Error, ErrNoResults)
	}
	if out.Results == nil || len(out.Results) != 0 {
		t.Errorf("results = %#v, want empty non-nil slice", out.Results)
	}
	if out.Source != "DuckDuckGo (free fallback)" {
		t.Errorf("source = %q, want last attempted provider", out.Source)
	}
	if out.Query != "nothing anywhere" {
		t.Errorf("query = %q", out.Query)
	}
}

func TestSearch_NoAvailableProviders(t *testing.T) {
	a := &stubProvider{name: "Serper API"}
	b := &stubProvider{name: "Tavily API"}

	out := newTestOrchestrator(a, b).Search(context.Background(), "q", 5)

	if out.Error != ErrNoResults {
		t.Errorf("error = %q", out.Error)
	}
	if out.Source != "Unknown" {
		t.Errorf("source = %q, want Unknown when nothing was attempted", out.Source)
	}
}

func TestSearch_DefensiveTruncation(t *testing.T) {
	// WHY: providers cap server-side inconsistently; the orchestrator must
	// enforce maxResults regardless.
	over := &stubProvider{name: "Serper API", available: true, results: hits(5)}

	out := newTestOrchestrator(over).Search(context.Background(), "q", 2)

	if len(out.Results) != 2 {
		t.Errorf("got %d results, want 2", len(out.Results))
	}
}

func TestSearch_DefaultMaxResults(t *testing.T) {
	p := &stubProvider{name: "Serper API", available: true, results: hits(5)}
	orch := New(Config{
		Providers:  []Provider{p},
		Scrape:     stubScrape,
		MaxResults: 3,
		Logger:     discardLogger(),
	})

	out := orch.Search(context.Background(), "q", 0)

	if p.gotMax != 3 {
		t.Errorf("provider asked for %d results, want configured default 3", p.gotMax)
	}
	if len(out.Results) != 3 {
		t.Errorf("got %d results, want 3", len(out.Results))
	}
}
