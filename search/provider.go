package search

import (
	"context"
	"time"
)

// Provider is one search backend in the fallback chain. Implementations are
// strategy objects: the orchestrator iterates an ordered slice of them and
// stops at the first non-empty result list.
//
// Search returns an error for transport or parse failures; the orchestrator
// treats an error identically to an empty list and advances the chain, so a
// provider never needs to hide its failures.
type Provider interface {
	// Name is the human-readable source label recorded in Outcome.Source.
	Name() string

	// Available reports whether the provider can be called at all
	// (typically: its credential is configured).
	Available() bool

	// Search runs one query and returns at most maxResults normalized hits.
	Search(ctx context.Context, query string, maxResults int) ([]RawResult, error)
}

// RetryPolicy is a bounded retry for provider HTTP calls: a maximum attempt
// count and a backoff schedule, with no hidden sleeps elsewhere. The zero
// value means a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// ExponentialBackoff returns a backoff schedule starting at base and
// doubling each attempt.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * (1 << uint(attempt))
	}
}

// Do runs op up to MaxAttempts times, waiting Backoff(attempt) between
// failures. Context cancellation stops retrying immediately.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.attempts(); attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < p.attempts()-1 && p.Backoff != nil {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(p.Backoff(attempt)):
			}
		}
	}
	return lastErr
}

// titleOrUntitled substitutes the placeholder title for results that lack one.
func titleOrUntitled(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// capResults truncates results client-side. Providers cap differently
// server-side, so callers re-truncate defensively.
func capResults(results []RawResult, maxResults int) []RawResult {
	if maxResults > 0 && len(results) > maxResults {
		return results[:maxResults]
	}
	return results
}
