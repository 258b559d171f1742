package search

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_ZeroValueSingleAttempt(t *testing.T) {
	var p RetryPolicy
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryPolicy_SucceedsAfterFailure(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	calls := 0
	sentinel := errors.New("still down")
	err := p.Do(context.Background(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want last operation error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	// WHY: a cancelled request must not keep hammering a provider.
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, Backoff: func(int) time.Duration { return time.Hour }}
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(100 * time.Millisecond)
	if got := backoff(0); got != 100*time.Millisecond {
		t.Errorf("backoff(0) = %v", got)
	}
	if got := backoff(2); got != 400*time.Millisecond {
		t.Errorf("backoff(2) = %v", got)
	}
}

func TestCapResults(t *testing.T) {
	in := []RawResult{{Link: "a"}, {Link: "b"}, {Link: "c"}}
	if got := capResults(in, 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := capResults(in, 5); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	if got := capResults(in, 0); len(got) != 3 {
		t.Errorf("len = %d, want unmodified with no cap", len(got))
	}
}

func TestTitleOrUntitled(t *testing.T) {
	if got := titleOrUntitled(""); got != "Untitled" {
		t.Errorf("got %q", got)
	}
	if got := titleOrUntitled("Real"); got != "Real" {
		t.Errorf("got %q", got)
	}
}
