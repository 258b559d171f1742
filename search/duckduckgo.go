package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kode-rex/webcat/websafe"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoConfig configures the free fallback provider.
type DuckDuckGoConfig struct {
	// BaseURL overrides the SERP endpoint (tests).
	BaseURL string

	// Client is the HTTP client. Default: 10s timeout.
	Client *http.Client

	// UserAgent sent with SERP requests. DuckDuckGo's HTML endpoint rejects
	// clients without a browser-like UA.
	UserAgent string

	Logger *slog.Logger
}

func (c *DuckDuckGoConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultDuckDuckGoURL
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DuckDuckGo scrapes the DuckDuckGo HTML SERP. It needs no credential and is
// always available, which makes it the terminal entry of the fallback chain.
// It has no server-side cap, so results are truncated client-side only.
type DuckDuckGo struct {
	cfg DuckDuckGoConfig
}

// NewDuckDuckGo creates the free fallback provider.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	cfg.defaults()
	return &DuckDuckGo{cfg: cfg}
}

func (d *DuckDuckGo) Name() string { return "DuckDuckGo (free fallback)" }

func (d *DuckDuckGo) Available() bool { return true }

// Search fetches and parses the HTML results page for one query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]RawResult, error) {
	searchURL := d.cfg.BaseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: new request: %w", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: http %d", resp.StatusCode)
	}

	body, err := websafe.LimitedReadAll(resp.Body, websafe.MaxResponseBody)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: read body: %w", err)
	}

	results, err := parseSERP(body)
	if err != nil {
		return nil, err
	}
	return capResults(results, maxResults), nil
}

// parseSERP extracts organic results from the DuckDuckGo HTML page. Each hit
// lives in a .result__body block: an a.result__a title link and a
// .result__snippet description.
func parseSERP(body []byte) ([]RawResult, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse SERP: %w", err)
	}

	var results []RawResult
	for _, block := range findAllByClass(doc, "result__body") {
		anchor := findFirstByClass(block, atom.A, "result__a")
		if anchor == nil {
			continue
		}
		title := nodeText(anchor)
		link := unwrapRedirect(attrValue(anchor, "href"))
		if title == "" || link == "" {
			continue
		}

		var snippet string
		if sn := findFirstByClass(block, 0, "result__snippet"); sn != nil {
			snippet = nodeText(sn)
		}

		results = append(results, RawResult{
			Title:   titleOrUntitled(title),
			Link:    link,
			Snippet: snippet,
		})
	}
	return results, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect wrapper to the
// destination URL.
func unwrapRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	if !strings.Contains(href, "duckduckgo.com/l/?") && !strings.HasPrefix(href, "/l/?") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := parsed.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}

// findAllByClass returns all element nodes whose class list contains class.
func findAllByClass(root *html.Node, class string) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// findFirstByClass returns the first descendant with the given tag (0 = any)
// and class.
func findFirstByClass(root *html.Node, tag atom.Atom, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && (tag == 0 || n.DataAtom == tag) && hasClass(n, class) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText extracts the trimmed text of a node subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
