package djot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomcur/sprokkel/internal/markup"
)

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := markup.NewRenderer(markup.RenderContext{}).Render(Parse([]byte(src)), markup.Summary)
	require.NoError(t, err)
	return out
}

func TestTitle(t *testing.T) {
	r := markup.NewRenderer(markup.RenderContext{})

	doc := Parse([]byte("# A _djot_ title\n\nBody.\n"))
	title, ok, err := r.RenderTitle(doc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A <em>djot</em> title", title)

	body, err := r.Render(doc, markup.Summary)
	require.NoError(t, err)
	assert.Equal(t, "<p>Body.</p>\n", body)

	assert.False(t, Parse([]byte("No heading here.\n")).HasTitle())
}

func TestInlines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"emphasis", "Hello _world_ and *strong*.", "<p>Hello <em>world</em> and <strong>strong</strong>.</p>\n"},
		{"escapes", `\*not strong\* and \_plain\_`, "<p>*not strong* and _plain_</p>\n"},
		{"html is escaped", "a < b & c", "<p>a &lt; b &amp; c</p>\n"},
		{"verbatim", "use `a < b` here", "<p>use <code>a &lt; b</code> here</p>\n"},
		{"inline math", "Euler $`e^{i\\pi}` done", "<p>Euler <span class=\"math\">e^{i\\pi}</span> done</p>\n"},
		{"escaped dollar is text", "costs \\$`x`", "<p>costs $<code>x</code></p>\n"},
		{"soft break", "one\ntwo", "<p>one\ntwo</p>\n"},
		{"hard break", "one\\\ntwo", "<p>one<br>\ntwo</p>\n"},
		{"comment", "Hello {% hidden %}world", "<p>Hello world</p>\n"},
		{"autolink", "<https://example.org>", "<p><a href=\"https://example.org\">https://example.org</a></p>\n"},
		{"link", "[site](https://example.org)", "<p><a href=\"https://example.org\">site</a></p>\n"},
		{"unclosed emphasis", "a _b", "<p>a _b</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.src))
		})
	}
}

func TestImage(t *testing.T) {
	out := render(t, "![a cat](cat.png)")
	assert.Contains(t, out, `src="cat.png"`)
	assert.Contains(t, out, `alt="a cat"`)
}

func TestBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"thematic break", "***\n", "<hr>\n"},
		{"block quote", "> quoted\n", "<blockquote>\n<p>quoted</p>\n</blockquote>\n"},
		{"code block", "``` go\nx := 1\n```\n", "<pre><code>x := 1\n</code></pre>\n"},
		{"raw html", "```=html\n<video></video>\n```\n", "<video></video>\n"},
		{"block comment", "{% note to self %}\n\ntext\n", "<p>text</p>\n"},
		{"tight list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
		{"ordered list", "3. x\n4. y\n", "<ol start=\"3\">\n<li>x</li>\n<li>y</li>\n</ol>\n"},
		{"loose list", "- a\n\n- b\n", "<ul>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ul>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.src))
		})
	}
}

func TestNestedList(t *testing.T) {
	out := render(t, "- a\n  - b\n  - c\n- d\n")
	assert.Contains(t, out, "<li>b</li>")
	assert.Contains(t, out, "<li>c</li>")
	assert.Contains(t, out, "<li>d</li>")
	assert.Equal(t, 2, strings.Count(out, "<ul>"))
}

func TestHeadingIDs(t *testing.T) {
	out := render(t, "## Sub Heading\n\n## Sub Heading\n\n### What's new?\n")
	assert.Contains(t, out, `<h2 id="Sub-Heading">Sub Heading</h2>`)
	assert.Contains(t, out, `<h2 id="Sub-Heading-1">Sub Heading</h2>`)
	assert.Contains(t, out, `<h3 id="Whats-new">`)
}

func TestMoreMarkerAndLinks(t *testing.T) {
	doc := Parse([]byte("See [a](~/posts/a#x).\n\n{% more %}\n\nAnd [b](~/pages/b).\n"))
	assert.Equal(t, []string{"~/posts/a#x", "~/pages/b"}, doc.Links())
	require.True(t, doc.HasRemainder())

	r := markup.NewRenderer(markup.RenderContext{Links: map[string]string{
		"~/posts/a#x": "https://example.com/a#x",
		"~/pages/b":   "https://example.com/b",
	}})
	summary, err := r.Render(doc, markup.Summary)
	require.NoError(t, err)
	rest, err := r.Render(doc, markup.Remainder)
	require.NoError(t, err)
	assert.Equal(t, "<p>See <a href=\"https://example.com/a#x\">a</a>.</p>\n", summary)
	assert.Equal(t, "<p>And <a href=\"https://example.com/b\">b</a>.</p>\n", rest)
}

func TestCRLF(t *testing.T) {
	assert.Equal(t, "<p>one\ntwo</p>\n", render(t, "one\r\ntwo\r\n"))
}
