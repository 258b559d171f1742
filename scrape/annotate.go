package scrape

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// knownLanguages are class names that identify a code block's language even
// without a language-/lang- prefix.
var knownLanguages = []string{
	"python", "javascript", "css", "html", "java", "php",
	"c", "cpp", "csharp", "ruby", "go",
}

// mathScriptTypes mark inline LaTeX/MathJax scripts that must survive
// conversion instead of being stripped with ordinary scripts.
var mathScriptTypes = []string{
	"math/tex",
	"math/tex; mode=display",
	"application/x-mathjax-config",
}

// annotateCodeFences tags <pre><code> blocks with a language-* class where
// one can be detected from class hints, so the markdown converter emits a
// language-tagged fence.
func annotateCodeFences(root *html.Node) {
	for _, pre := range findAllByTag(root, atom.Pre) {
		code := firstChildElement(pre, atom.Code)
		if code == nil {
			continue
		}
		lang := languageFromClasses(getAttr(code, "class"))
		if lang == "" {
			continue
		}
		setAttr(code, "class", "language-"+lang)
	}
}

// languageFromClasses extracts a programming language from CSS classes.
func languageFromClasses(classAttr string) string {
	for _, cls := range strings.Fields(classAttr) {
		if after, ok := strings.CutPrefix(cls, "language-"); ok {
			return after
		}
		if after, ok := strings.CutPrefix(cls, "lang-"); ok {
			return after
		}
		for _, known := range knownLanguages {
			if cls == known {
				return cls
			}
		}
	}
	return ""
}

// preserveMath replaces <math> elements and MathJax script blocks with their
// raw markup wrapped in $$$ delimiters, so the math survives conversion
// verbatim instead of being stripped.
func preserveMath(root *html.Node) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if c.Data == "math" {
					doomed = append(doomed, c)
					continue
				}
				if c.DataAtom == atom.Script && isMathScript(c) {
					doomed = append(doomed, c)
					continue
				}
			}
			walk(c)
		}
	}
	walk(root)

	for _, n := range doomed {
		parent := n.Parent
		if parent == nil {
			continue
		}
		var markup string
		if n.DataAtom == atom.Script {
			markup = textContent(n)
		} else {
			markup = renderNode(n)
		}
		parent.InsertBefore(&html.Node{
			Type: html.TextNode,
			Data: "$$$" + markup + "$$$",
		}, n)
		parent.RemoveChild(n)
	}
}

// isMathScript reports whether a <script> carries LaTeX/MathJax markup.
func isMathScript(n *html.Node) bool {
	typ := getAttr(n, "type")
	for _, t := range mathScriptTypes {
		if typ == t {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func firstChildElement(n *html.Node, tag atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
