package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// errTooShort signals that the main-content tier collapsed the page below
// the configured minimum and the whole-document tier should run.
var errTooShort = errors.New("extracted text too short")

// extractMain is the primary extraction tier: isolate the main content of
// the page, clean and annotate it, and convert the fragment to markdown.
func (s *Scraper) extractMain(body []byte, pageURL string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	title := findTitle(doc)
	node := findMainContent(doc, s.cfg.MinExtractLen)
	if node == nil {
		return "", errTooShort
	}

	pruneBoilerplate(node)
	annotateCodeFences(node)
	preserveMath(node)

	if len(collectText(node)) < s.cfg.MinExtractLen {
		return "", errTooShort
	}

	md, err := s.toMarkdown(renderNode(node), pageURL)
	if err != nil {
		return "", err
	}
	if title == "" {
		title = "Untitled"
	}
	return formatHeader(title, pageURL) + md, nil
}

// convertWhole is the secondary tier: no main-content isolation, just the
// document title and a sanitized whole-document conversion.
func (s *Scraper) convertWhole(body []byte, fallbackTitle, pageURL string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	title := findTitle(doc)
	if title == "" {
		title = fallbackTitle
	}

	md, err := s.toMarkdown(s.sanitize.Sanitize(string(body)), pageURL)
	if err != nil {
		return "", err
	}
	return formatHeader(title, pageURL) + md, nil
}

// toMarkdown converts an HTML string to markdown. Empty output is an error
// so callers advance to the next fallback tier.
func (s *Scraper) toMarkdown(fragment, sourceURL string) (string, error) {
	md, err := s.conv.ConvertString(fragment, converter.WithDomain(sourceURL))
	if err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", errors.New("markdown conversion produced no output")
	}
	return md, nil
}

// findMainContent locates the subtree holding the page's primary readable
// content. Semantic landmarks win; otherwise the densest content node is
// chosen by text-to-markup ratio with a link-density penalty.
func findMainContent(doc *html.Node, minLen int) *html.Node {
	for _, tag := range []atom.Atom{atom.Main, atom.Article} {
		for _, n := range findAllByTag(doc, tag) {
			if isBoilerplate(n) {
				continue
			}
			if len(collectText(n)) >= minLen {
				return n
			}
		}
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	if best := findDensestNode(body, minLen); best != nil {
		return best
	}
	// Last resort: the body itself, if it carries enough text.
	if len(collectText(body)) >= minLen {
		return body
	}
	return nil
}

// nodeScore holds density analysis for one DOM subtree.
type nodeScore struct {
	node     *html.Node
	textLen  int
	density  float64
	linkDens float64 // fraction of text inside <a> tags
}

// findDensestNode walks the DOM and picks the content node with the best
// composite density score.
func findDensestNode(root *html.Node, minLen int) *html.Node {
	var candidates []nodeScore

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if isBoilerplate(n) {
			return
		}
		// Note <body> is not a content tag: it is the caller's explicit last
		// resort, and scoring it would let whole-page text drown out a
		// well-delimited content subtree.
		if !isContentTag(n.DataAtom) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			return
		}

		text := collectText(n)
		textLen := len(text)
		if textLen >= minLen {
			markupLen := len(renderNode(n))
			if markupLen == 0 {
				markupLen = 1
			}
			linkDens := float64(len(collectLinkText(n))) / float64(textLen)
			candidates = append(candidates, nodeScore{
				node:     n,
				textLen:  textLen,
				density:  float64(textLen) / float64(markupLen),
				linkDens: linkDens,
			})
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var best *nodeScore
	var bestScore float64
	for i := range candidates {
		c := &candidates[i]
		if c.linkDens > 0.5 {
			continue // mostly links - probably navigation
		}
		score := c.density * logScale(c.textLen) * (1 - c.linkDens)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return best.node
}

// logScale returns a log-based scale factor for text length so longer
// candidates are preferred without letting length dominate density.
func logScale(n int) float64 {
	if n <= 0 {
		return 0
	}
	scale := 1.0
	v := n
	for v > 100 {
		scale += 1
		v /= 2
	}
	return scale
}

// pruneBoilerplate removes navigation, ads, scripts, styles, and other
// non-content elements from the subtree in place.
func pruneBoilerplate(root *html.Node) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				switch c.DataAtom {
				case atom.Script, atom.Style, atom.Iframe, atom.Noscript:
					// Math scripts are preserved separately before conversion.
					if c.DataAtom == atom.Script && isMathScript(c) {
						continue
					}
					doomed = append(doomed, c)
					continue
				}
				if isBoilerplate(c) {
					doomed = append(doomed, c)
					continue
				}
			}
			walk(c)
		}
	}
	walk(root)
	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// isBoilerplate checks if a node is likely boilerplate (nav, footer, etc).
func isBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Header, atom.Aside:
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" || attr.Key == "id" {
			lower := strings.ToLower(attr.Val)
			for _, pattern := range boilerplatePatterns {
				if strings.Contains(lower, pattern) {
					return true
				}
			}
		}
		if attr.Key == "role" {
			switch attr.Val {
			case "navigation", "banner", "contentinfo", "complementary":
				return true
			}
		}
	}
	return false
}

var boilerplatePatterns = []string{
	"sidebar", "footer", "header", "nav", "menu", "breadcrumb",
	"cookie", "banner", "advert", "social", "share", "comment",
	"related", "widget", "popup", "modal",
}

// isContentTag returns true for tags likely to contain main content.
func isContentTag(a atom.Atom) bool {
	switch a {
	case atom.Main, atom.Article, atom.Section, atom.Div, atom.P,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Li,
		atom.Table, atom.Td, atom.Th, atom.Dl, atom.Dd, atom.Dt,
		atom.Figure, atom.Figcaption, atom.Details, atom.Summary:
		return true
	}
	return false
}

// findTitle extracts the page <title> text.
func findTitle(doc *html.Node) string {
	var title string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title == "" {
				f(c)
			}
		}
	}
	f(doc)
	return title
}

// findBody returns the <body> element from a parsed document.
func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil && body == nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

// findAllByTag finds all elements with a specific tag.
func findAllByTag(root *html.Node, tag atom.Atom) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// renderNode serialises an HTML node subtree back to a string.
func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}

// collectText extracts all visible text from a node subtree.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

// collectLinkText extracts text only from <a> elements.
func collectLinkText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node, bool)
	f = func(n *html.Node, inLink bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			inLink = true
		}
		if n.Type == html.TextNode && inLink {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c, inLink)
		}
	}
	f(n, false)
	return sb.String()
}
