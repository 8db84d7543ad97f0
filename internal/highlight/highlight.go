// Package highlight renders fenced code through chroma, emitting class-based spans that a
// site stylesheet can colour.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter highlights code for a fixed style. It is safe for concurrent use.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// New creates a highlighter. Unknown style names fall back to chroma's default style.
func New(styleName string) *Highlighter {
	return &Highlighter{
		style: styles.Get(styleName),
		formatter: html.New(
			html.WithClasses(true),
			html.PreventSurroundingPre(true),
		),
	}
}

// Highlight returns the highlighted HTML of code. ok is false when no lexer matches lang, in
// which case the caller renders the code as plain text.
func (h *Highlighter) Highlight(code, lang string) (string, bool, error) {
	lexer := lexers.Get(strings.ToLower(strings.TrimSpace(lang)))
	if lexer == nil {
		return "", false, nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false, err
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		return "", false, err
	}
	return b.String(), true, nil
}

// WriteCSS writes the stylesheet matching the classes emitted by Highlight.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
