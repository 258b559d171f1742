// Package scrape fetches search-result URLs and converts their content to
// cleaned markdown.
//
// Every scrape runs a single forward pass: fetch → classify → extract →
// format → truncate. All failure modes are absorbed into the result content
// as descriptive text; Scrape never returns an error and one bad URL never
// affects another.
//
// HTML extraction is two-tiered: a readability-style main-content pass
// (semantic landmarks, then text-density scoring) and, when that collapses,
// a whole-document conversion of the sanitized page. If both tiers fail the
// search snippet is used as a last resort.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kode-rex/webcat/websafe"
)

// TruncationMarker is appended when content is cut at MaxContentLength.
const TruncationMarker = "... [content truncated]"

// plainTextCap bounds how much of a text/plain body is quoted into the
// fenced code block.
const plainTextCap = 8000

// Target identifies one search hit to scrape.
type Target struct {
	Title   string
	URL     string
	Snippet string
}

// Result is the outcome of scraping one target. Content is never empty: on
// failure it holds a human-readable description of what went wrong.
type Result struct {
	Content string
	Class   Class
}

// Config configures a Scraper.
type Config struct {
	// Timeout is the per-fetch HTTP timeout. Default: 5s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxContentLength is the hard cap on formatted content, applied after
	// formatting. Default: 1_000_000.
	MaxContentLength int `yaml:"max_content_length"`

	// MinExtractLen is the minimum extracted text length below which the
	// main-content tier is considered collapsed. Default: 100.
	MinExtractLen int `yaml:"min_extract_len"`

	// MaxBodyBytes caps how much of a response body is read. Default: 10MB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// UserAgent sent with page fetches. Default: a desktop Chrome UA.
	UserAgent string `yaml:"user_agent"`

	// URLValidator validates URLs before fetch (SSRF prevention).
	// Default: websafe.ValidateURL.
	URLValidator func(string) error `yaml:"-"`

	// Logger for per-item warnings.
	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = 1_000_000
	}
	if c.MinExtractLen <= 0 {
		c.MinExtractLen = 100
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = websafe.MaxResponseBody
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if c.URLValidator == nil {
		c.URLValidator = websafe.ValidateURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scraper fetches URLs and converts their content to markdown.
type Scraper struct {
	cfg      Config
	client   *http.Client
	conv     *converter.Converter
	sanitize *bluemonday.Policy
	logger   *slog.Logger
}

// New creates a Scraper with the given configuration.
func New(cfg Config) *Scraper {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitize: bluemonday.UGCPolicy(),
		logger:   cfg.Logger,
	}
}

// Scrape fetches a target URL and converts its content to markdown. It never
// fails: every error path produces a Result whose Content describes the
// failure.
func (s *Scraper) Scrape(ctx context.Context, t Target) Result {
	if t.URL == "" {
		return Result{
			Content: "Error: Missing URL for content scraping.",
			Class:   ClassFetchError,
		}
	}
	if t.Title == "" {
		t.Title = "Untitled"
	}

	body, header, err := s.fetch(ctx, t.URL)
	if err != nil {
		return Result{
			Content: "Error: Failed to retrieve the webpage. " + err.Error(),
			Class:   ClassFetchError,
		}
	}

	cl := Classify(header.Get("Content-Type"))
	switch cl.Class {
	case ClassPlainText:
		return Result{Content: s.plainText(t, body), Class: ClassPlainText}
	case ClassBinary:
		return Result{Content: s.binaryNote(t, cl.MIME), Class: ClassBinary}
	default:
		return Result{Content: s.truncate(s.html(t, body)), Class: ClassHTML}
	}
}

// fetch performs the HTTP GET with browser-like headers and a bounded body
// read.
func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, http.Header, error) {
	if err := s.cfg.URLValidator(url); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header, nil
}

// html runs the two-tier extraction chain and falls back to the search
// snippet when both tiers fail.
func (s *Scraper) html(t Target, body []byte) string {
	md, err := s.extractMain(body, t.URL)
	if err == nil {
		return md
	}
	s.logger.Warn("main-content extraction failed, falling back to whole document",
		"url", t.URL, "error", err)

	md, err = s.convertWhole(body, t.Title, t.URL)
	if err == nil {
		return md
	}
	s.logger.Warn("whole-document conversion failed, falling back to snippet",
		"url", t.URL, "error", err)

	return formatHeader(t.Title, t.URL) + t.Snippet +
		"\n\n*Note: Full content extraction failed; showing the search snippet instead.*"
}

func (s *Scraper) plainText(t Target, body []byte) string {
	text := string(body)
	if len(text) > plainTextCap {
		text = text[:plainTextCap]
	}
	return s.truncate(formatHeader(t.Title, t.URL) + "```\n" + text + "\n```")
}

func (s *Scraper) binaryNote(t Target, mime string) string {
	return formatHeader(t.Title, t.URL) +
		"**Note:** This content appears to be a binary file (" + mime +
		") and cannot be converted to markdown. Please download the file directly from the source URL."
}

// truncate enforces MaxContentLength after formatting.
func (s *Scraper) truncate(content string) string {
	if len(content) > s.cfg.MaxContentLength {
		return content[:s.cfg.MaxContentLength] + TruncationMarker
	}
	return content
}

// formatHeader prepends the title/source preamble every successful path uses.
func formatHeader(title, url string) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n*Source: ")
	sb.WriteString(url)
	sb.WriteString("*\n\n")
	return sb.String()
}
