// Package search aggregates results from an ordered chain of search
// providers and enriches each hit with scraped markdown content.
//
// The chain is strict fallback, not fan-out: providers are tried in priority
// order and the first non-empty result list wins. A provider error counts as
// an empty list — the chain cannot distinguish "provider is down" from
// "provider legitimately found nothing", and does not try to. Partial results
// from different providers are never merged and no provider is called twice
// for one query.
package search

import (
	"context"
	"log/slog"
)

// Config configures an Orchestrator.
type Config struct {
	// Providers is the fallback chain in priority order. Required.
	Providers []Provider

	// Scrape enriches each winning hit. Required.
	Scrape ScrapeFunc

	// MaxResults is the default result cap per query. Default: 5.
	MaxResults int `yaml:"max_results"`

	// Concurrency bounds concurrent scrapes per query. Default: 5.
	Concurrency int `yaml:"concurrency"`

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator drives the provider fallback chain and the enrichment step.
type Orchestrator struct {
	cfg       Config
	processor *Processor
	logger    *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		cfg: cfg,
		processor: NewProcessor(ProcessorConfig{
			Scrape:      cfg.Scrape,
			Concurrency: cfg.Concurrency,
			Logger:      cfg.Logger,
		}),
		logger: cfg.Logger,
	}
}

// Search answers one query: walk the provider chain until a provider returns
// results, enrich them, and assemble the outcome. The returned Outcome is
// always well-formed; chain exhaustion surfaces as Outcome.Error, never as a
// Go error.
func (o *Orchestrator) Search(ctx context.Context, query string, maxResults int) Outcome {
	if maxResults <= 0 {
		maxResults = o.cfg.MaxResults
	}

	log := o.logger.With("query", query)

	var raw []RawResult
	source := "Unknown"
	for _, p := range o.cfg.Providers {
		if !p.Available() {
			log.Debug("provider unavailable, skipping", "provider", p.Name())
			continue
		}
		source = p.Name()

		results, err := p.Search(ctx, query, maxResults)
		if err != nil {
			log.Warn("provider failed, advancing chain", "provider", p.Name(), "error", err)
			continue
		}
		if len(results) == 0 {
			log.Info("provider returned no results, advancing chain", "provider", p.Name())
			continue
		}

		// Providers cap maxResults differently; re-truncate defensively.
		raw = capResults(results, maxResults)
		break
	}

	if len(raw) == 0 {
		log.Warn("no results from any source", "last_source", source)
		return Outcome{
			Query:   query,
			Source:  source,
			Results: []EnrichedResult{},
			Error:   ErrNoResults,
		}
	}

	log.Info("search succeeded", "source", source, "results", len(raw))
	return Outcome{
		Query:   query,
		Source:  source,
		Results: o.processor.Process(ctx, raw),
	}
}
