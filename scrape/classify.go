package scrape

import "strings"

// Class categorizes a fetched response by its declared MIME type. The class
// is decided once per fetch and selects the extraction path.
type Class int

const (
	// ClassHTML is the default: anything that is not plain text or a known
	// binary type is treated as HTML and goes through extraction.
	ClassHTML Class = iota
	// ClassPlainText is rendered as a fenced code block without extraction.
	ClassPlainText
	// ClassBinary cannot be converted to markdown; the result is an
	// informational note pointing at the source URL.
	ClassBinary
	// ClassFetchError marks results whose fetch failed before any body
	// classification could happen.
	ClassFetchError
)

func (c Class) String() string {
	switch c {
	case ClassHTML:
		return "html"
	case ClassPlainText:
		return "plain_text"
	case ClassBinary:
		return "binary"
	case ClassFetchError:
		return "fetch_error"
	}
	return "unknown"
}

// Classification is the outcome of content-type inspection for one fetch.
type Classification struct {
	Class Class
	MIME  string // lowercased Content-Type header value
}

// Classify maps a Content-Type header value onto a Classification.
func Classify(contentType string) Classification {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.Contains(ct, "text/plain"):
		return Classification{Class: ClassPlainText, MIME: ct}
	case strings.Contains(ct, "application/pdf"),
		strings.Contains(ct, "application/octet-stream"):
		return Classification{Class: ClassBinary, MIME: ct}
	default:
		return Classification{Class: ClassHTML, MIME: ct}
	}
}
