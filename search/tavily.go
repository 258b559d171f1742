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

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilyConfig configures the Tavily provider.
type TavilyConfig struct {
	// APIKey is the Tavily credential. Empty means the provider is skipped.
	APIKey string

	// BaseURL overrides the API endpoint (tests).
	BaseURL string

	// Client is the HTTP client. Default: 10s timeout.
	Client *http.Client

	// Retry bounds transient-failure retries. Default: single attempt.
	Retry RetryPolicy

	Logger *slog.Logger
}

func (c *TavilyConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultTavilyURL
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Tavily queries the Tavily search API. Tavily caps results server-side via
// max_results; the response is still re-truncated client-side.
type Tavily struct {
	cfg TavilyConfig
}

// NewTavily creates the Tavily provider.
func NewTavily(cfg TavilyConfig) *Tavily {
	cfg.defaults()
	return &Tavily{cfg: cfg}
}

func (t *Tavily) Name() string { return "Tavily API" }

func (t *Tavily) Available() bool { return t.cfg.APIKey != "" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs one query against the Tavily API.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]RawResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:      t.cfg.APIKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	var decoded tavilyResponse
	err = t.cfg.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("tavily: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.cfg.Client.Do(req)
		if err != nil {
			return fmt.Errorf("tavily: http: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("tavily: http %d", resp.StatusCode)
		}

		decoded = tavilyResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("tavily: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]RawResult, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		results = append(results, RawResult{
			Title:   titleOrUntitled(item.Title),
			Link:    item.URL,
			Snippet: item.Content,
		})
	}
	return capResults(results, maxResults), nil
}
