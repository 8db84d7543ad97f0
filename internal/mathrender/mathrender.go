// Package mathrender wraps LaTeX in markup that client-side typesetters (KaTeX, MathJax)
// pick up.
package mathrender

import (
	"fmt"
	"html"
)

// Renderer renders math spans. The zero value is ready to use.
type Renderer struct{}

// New returns a Renderer.
func New() *Renderer { return &Renderer{} }

// Render wraps latex in a span classed "math inline" or "math display". Unbalanced braces are
// reported as an error since no typesetter could render them.
func (*Renderer) Render(latex string, display bool) (string, error) {
	if err := checkBraces(latex); err != nil {
		return "", err
	}
	if display {
		return `<span class="math display">\[` + html.EscapeString(latex) + `\]</span>`, nil
	}
	return `<span class="math inline">\(` + html.EscapeString(latex) + `\)</span>`, nil
}

func checkBraces(latex string) error {
	depth := 0
	for i := 0; i < len(latex); i++ {
		switch latex[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unexpected '}' at offset %d", i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed '{'", depth)
	}
	return nil
}
