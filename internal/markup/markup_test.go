package markup

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

type fakeHighlighter struct{}

func (fakeHighlighter) Highlight(code, lang string) (string, bool, error) {
	switch lang {
	case "go":
		return "<span>" + strings.TrimSpace(code) + "</span>", true, nil
	case "broken":
		return "", false, errors.New("lexer exploded")
	}
	return "", false, nil
}

type fakeMath struct{}

func (fakeMath) Render(latex string, display bool) (string, error) {
	if latex == "bad" {
		return "", errors.New("bad latex")
	}
	if display {
		return "[D:" + latex + "]", nil
	}
	return "[I:" + latex + "]", nil
}

func newTestRenderer(links map[string]string) *Renderer {
	return NewRenderer(RenderContext{Highlighter: fakeHighlighter{}, Math: fakeMath{}, Links: links})
}

func TestTitleExtraction(t *testing.T) {
	r := newTestRenderer(nil)

	doc := ParseCommonMark([]byte("# Hello *world*\n\nBody text.\n"))
	title, ok, err := r.RenderTitle(doc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hello <em>world</em>", title)

	body, err := r.Render(doc, Summary)
	require.NoError(t, err)
	assert.Equal(t, "<p>Body text.</p>\n", body)

	doc = ParseCommonMark([]byte("Intro first.\n\n# Not a title\n"))
	_, ok, err = r.RenderTitle(doc)
	require.NoError(t, err)
	assert.False(t, ok)

	doc = ParseCommonMark([]byte("## Second level\n"))
	assert.False(t, doc.HasTitle())
}

func TestMoreSplit(t *testing.T) {
	r := newTestRenderer(nil)

	doc := ParseCommonMark([]byte("# T\n\nSummary.\n\n<!-- more -->\n\nRest.\n"))
	summary, err := r.Render(doc, Summary)
	require.NoError(t, err)
	rest, err := r.Render(doc, Remainder)
	require.NoError(t, err)
	assert.Equal(t, "<p>Summary.</p>\n", summary)
	assert.Equal(t, "<p>Rest.</p>\n", rest)
	assert.True(t, doc.HasRemainder())

	doc = ParseCommonMark([]byte("Only a summary.\n"))
	rest, err = r.Render(doc, Remainder)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.False(t, doc.HasRemainder())
}

func TestInternalLinks(t *testing.T) {
	src := "See [a](~/posts/a) and [b](~/posts/b#part) and [a again](~/posts/a) and [ext](https://x.org).\n"
	doc := ParseCommonMark([]byte(src))
	assert.Equal(t, []string{"~/posts/a", "~/posts/b#part"}, doc.Links())

	r := newTestRenderer(map[string]string{
		"~/posts/a":      "https://example.com/2024/a",
		"~/posts/b#part": "https://example.com/b#part",
	})
	out, err := r.Render(doc, Summary)
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="https://example.com/2024/a">a</a>`)
	assert.Contains(t, out, `<a href="https://example.com/b#part">b</a>`)
	assert.Contains(t, out, `<a href="https://x.org">ext</a>`)

	_, err = newTestRenderer(map[string]string{}).Render(doc, Summary)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryInternal))
}

func TestSplitInternalLink(t *testing.T) {
	canonical, anchor, ok := SplitInternalLink("~/posts/a#intro")
	require.True(t, ok)
	assert.Equal(t, "posts/a", canonical)
	assert.Equal(t, "#intro", anchor)

	canonical, anchor, ok = SplitInternalLink("~/pages/about")
	require.True(t, ok)
	assert.Equal(t, "pages/about", canonical)
	assert.Empty(t, anchor)

	_, _, ok = SplitInternalLink("https://example.com")
	assert.False(t, ok)
}

func TestCodeBlocks(t *testing.T) {
	r := newTestRenderer(nil)

	out, err := r.Render(ParseCommonMark([]byte("```go\nfunc main() {}\n```\n")), Summary)
	require.NoError(t, err)
	assert.Equal(t, "<pre class=\"highlight\"><code data-lang=\"go\"><span>func main() {}</span></code></pre>\n", out)

	out, err = r.Render(ParseCommonMark([]byte("```unknown\na < b\n```\n")), Summary)
	require.NoError(t, err)
	assert.Equal(t, "<pre><code>a &lt; b\n</code></pre>\n", out)

	out, err = r.Render(ParseCommonMark([]byte("```\nplain\n```\n")), Summary)
	require.NoError(t, err)
	assert.Equal(t, "<pre><code>plain\n</code></pre>\n", out)

	_, err = r.Render(ParseCommonMark([]byte("```broken\nx\n```\n")), Summary)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRender))
}

func TestMath(t *testing.T) {
	r := newTestRenderer(nil)

	out, err := r.Render(ParseCommonMark([]byte("Inline $x^2$ and display $$\\sum_i i$$.\n")), Summary)
	require.NoError(t, err)
	assert.Equal(t, "<p>Inline [I:x^2] and display [D:\\sum_i i].</p>\n", out)

	out, err = r.Render(ParseCommonMark([]byte("It costs $5 and $10.\n")), Summary)
	require.NoError(t, err)
	assert.Equal(t, "<p>It costs $5 and $10.</p>\n", out)

	_, err = r.Render(ParseCommonMark([]byte("Oops $bad$.\n")), Summary)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRender))
}

func TestExtensions(t *testing.T) {
	r := newTestRenderer(nil)
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~ and https://example.org\n\nNote[^1].\n\n[^1]: The note.\n\n<div class=\"raw\">kept</div>\n\n## Sub heading\n"
	out, err := r.Render(ParseCommonMark([]byte(src)), Summary)
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>gone</del>")
	assert.Contains(t, out, `<a href="https://example.org">`)
	assert.Contains(t, out, "footnote")
	assert.Contains(t, out, `<div class="raw">kept</div>`)
	assert.Contains(t, out, `<h2 id="sub-heading">`)
}
