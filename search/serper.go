package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultSerperURL = "https://google.serper.dev/search"

// SerperConfig configures the Serper provider.
type SerperConfig struct {
	// APIKey is the Serper credential. Empty means the provider is skipped.
	APIKey string

	// BaseURL overrides the API endpoint (tests).
	BaseURL string

	// Client is the HTTP client. Default: 10s timeout.
	Client *http.Client

	// Retry bounds transient-failure retries. Default: single attempt.
	Retry RetryPolicy

	Logger *slog.Logger
}

func (c *SerperConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultSerperURL
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Serper queries the Serper search API (Google results). It truncates
// server-side via the "num" request parameter and re-truncates client-side.
type Serper struct {
	cfg SerperConfig
}

// NewSerper creates the Serper provider.
func NewSerper(cfg SerperConfig) *Serper {
	cfg.defaults()
	return &Serper{cfg: cfg}
}

func (s *Serper) Name() string { return "Serper API" }

func (s *Serper) Available() bool { return s.cfg.APIKey != "" }

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search runs one query against the Serper API.
func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]RawResult, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": maxResults})
	if err != nil {
		return nil, fmt.Errorf("serper: marshal request: %w", err)
	}

	var decoded serperResponse
	err = s.cfg.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("serper: new request: %w", err)
		}
		req.Header.Set("X-API-KEY", s.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.cfg.Client.Do(req)
		if err != nil {
			return fmt.Errorf("serper: http: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("serper: http %d", resp.StatusCode)
		}

		decoded = serperResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("serper: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]RawResult, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		results = append(results, RawResult{
			Title:   titleOrUntitled(item.Title),
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return capResults(results, maxResults), nil
}
