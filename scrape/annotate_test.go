package scrape

import (
	"strings"
	"testing"

	"golang.org/x/net/html/atom"
)

func TestLanguageFromClasses(t *testing.T) {
	tests := []struct {
		classes string
		want    string
	}{
		{"language-go", "go"},
		{"lang-rb", "rb"},
		{"highlight language-python", "python"},
		{"python", "python"},
		{"cpp hljs", "cpp"},
		{"highlight sourceCode", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := languageFromClasses(tt.classes); got != tt.want {
			t.Errorf("languageFromClasses(%q) = %q, want %q", tt.classes, got, tt.want)
		}
	}
}

func TestAnnotateCodeFences(t *testing.T) {
	// WHAT: bare language hints on <code> become language-* classes the
	// markdown converter understands.
	doc := parseDoc(t, `<html><body>
<pre><code class="python">print("hi")</code></pre>
<pre><code class="highlight">no language here</code></pre>
<pre>no code child</pre>
</body></html>`)

	annotateCodeFences(doc)

	pres := findAllByTag(doc, atom.Pre)
	if len(pres) != 3 {
		t.Fatalf("got %d pre blocks", len(pres))
	}

	code := firstChildElement(pres[0], atom.Code)
	if got := getAttr(code, "class"); got != "language-python" {
		t.Errorf("annotated class = %q, want language-python", got)
	}
	code = firstChildElement(pres[1], atom.Code)
	if got := getAttr(code, "class"); got != "highlight" {
		t.Errorf("unknown language rewritten to %q", got)
	}
}

func TestPreserveMath(t *testing.T) {
	// WHAT: MathML elements and MathJax scripts become $$$-delimited text so
	// the formulas survive markdown conversion.
	doc := parseDoc(t, `<html><body>
<p>Euler: <math><mi>e</mi></math></p>
<script type="math/tex">E = mc^2</script>
<script>stripped();</script>
</body></html>`)

	preserveMath(doc)

	text := collectText(doc)
	if !strings.Contains(text, "$$$<math><mi>e</mi></math>$$$") {
		t.Errorf("MathML not preserved: %q", text)
	}
	if !strings.Contains(text, "$$$E = mc^2$$$") {
		t.Errorf("math script not preserved: %q", text)
	}
	if strings.Contains(text, "stripped") {
		// Ordinary scripts are pruneBoilerplate's job, but preserveMath must
		// not promote them to text.
		t.Errorf("plain script promoted to text: %q", text)
	}
}
