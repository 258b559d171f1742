package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kode-rex/webcat/scrape"
)

// ScrapeFunc turns one search hit into markdown content. scrape.Scraper.Scrape
// satisfies it; tests substitute stubs.
type ScrapeFunc func(ctx context.Context, t scrape.Target) scrape.Result

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	// Scrape enriches one result. Required.
	Scrape ScrapeFunc

	// Concurrency bounds how many scrapes run at once. Default: 5.
	Concurrency int

	Logger *slog.Logger
}

func (c *ProcessorConfig) defaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Processor fans a result batch out to the scraper. Output is
// length-preserving: exactly one EnrichedResult per input, in input order,
// no matter how many individual scrapes fail.
type Processor struct {
	cfg ProcessorConfig
}

// NewProcessor creates a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	cfg.defaults()
	return &Processor{cfg: cfg}
}

// Process scrapes every result concurrently. Scrape never returns an error,
// so one slow or failing page is visible only in its own Content field;
// siblings are not cancelled.
func (p *Processor) Process(ctx context.Context, results []RawResult) []EnrichedResult {
	out := make([]EnrichedResult, len(results))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, r := range results {
		g.Go(func() error {
			res := p.cfg.Scrape(ctx, scrape.Target{
				Title:   r.Title,
				URL:     r.Link,
				Snippet: r.Snippet,
			})
			if res.Class == scrape.ClassFetchError {
				p.cfg.Logger.Warn("scrape failed", "url", r.Link, "detail", res.Content)
			}
			out[i] = EnrichedResult{
				Title:   r.Title,
				URL:     r.Link,
				Snippet: r.Snippet,
				Content: res.Content,
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
