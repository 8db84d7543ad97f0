package markup

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// Highlighter turns source code into highlighted HTML. ok is false when the language is not
// recognised.
type Highlighter interface {
	Highlight(code, lang string) (highlighted string, ok bool, err error)
}

// MathRenderer turns LaTeX into HTML.
type MathRenderer interface {
	Render(latex string, display bool) (string, error)
}

// RenderContext carries the collaborators of a Renderer.
type RenderContext struct {
	Highlighter Highlighter
	Math        MathRenderer
	// Links maps raw internal destinations ("~/posts/a#intro") to resolved URLs. With a nil
	// map, internal destinations are written unchanged.
	Links map[string]string
}

// Renderer renders Documents to HTML. It is safe for concurrent use.
type Renderer struct {
	ctx RenderContext
	md  goldmark.Markdown
}

// NewRenderer creates a renderer around ctx.
func NewRenderer(ctx RenderContext) *Renderer {
	r := &Renderer{ctx: ctx}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{ctx: ctx}, 100)),
		),
	)
	return r
}

// Render renders one part of doc.
func (r *Renderer) Render(doc *Document, part Part) (string, error) {
	return r.render(doc.Source(), doc.Node(part), part.String())
}

// RenderTitle renders the title heading's inline content, trimmed. ok is false when the
// document has no title heading.
func (r *Renderer) RenderTitle(doc *Document) (title string, ok bool, err error) {
	if doc.title == nil {
		return "", false, nil
	}
	out, err := r.render(doc.Source(), doc.title, "title")
	if err != nil {
		return "", true, err
	}
	return strings.TrimSpace(out), true, nil
}

func (r *Renderer) render(source []byte, node ast.Node, part string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, node); err != nil {
		if classified, ok := foundationerrors.AsClassified(err); ok {
			return "", classified.WithContext("part", part)
		}
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "failed to render markup").
			WithContext("part", part).
			Build()
	}
	return buf.String(), nil
}

type nodeRenderer struct {
	ctx RenderContext
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(KindMath, r.renderMath)
	reg.Register(KindMoreMarker, r.renderNothing)
	reg.Register(KindFragment, r.renderNothing)
}

func (r *nodeRenderer) renderNothing(util.BufWriter, []byte, ast.Node, bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	dest := n.Destination
	if r.ctx.Links != nil && bytes.HasPrefix(dest, []byte(InternalLinkPrefix)) {
		resolved, ok := r.ctx.Links[string(dest)]
		if !ok {
			return ast.WalkStop, foundationerrors.InternalError("internal link was not resolved").
				WithContext("target", string(dest)).
				Build()
		}
		dest = []byte(resolved)
	}

	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(dest, true)))
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_ = w.WriteByte('"')
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.LinkAttributeFilter)
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	lang := string(n.Language(source))

	if lang != "" && r.ctx.Highlighter != nil {
		highlighted, ok, err := r.ctx.Highlighter.Highlight(code.String(), lang)
		if err != nil {
			return ast.WalkStop, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "failed to highlight code").
				WithContext("language", lang).
				Build()
		}
		if ok {
			fmt.Fprintf(w, `<pre class="highlight"><code data-lang="%s">`, template.HTMLEscapeString(lang))
			_, _ = w.WriteString(highlighted)
			_, _ = w.WriteString("</code></pre>\n")
			return ast.WalkSkipChildren, nil
		}
	}

	_, _ = w.WriteString("<pre><code>")
	_, _ = w.WriteString(template.HTMLEscapeString(code.String()))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderMath(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Math)
	if r.ctx.Math == nil {
		_, _ = w.WriteString(`<span class="math">`)
		_, _ = w.WriteString(template.HTMLEscapeString(string(n.Value)))
		_, _ = w.WriteString("</span>")
		return ast.WalkSkipChildren, nil
	}
	out, err := r.ctx.Math.Render(string(n.Value), n.Display)
	if err != nil {
		return ast.WalkStop, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "failed to render math").
			WithContext("latex", string(n.Value)).
			Build()
	}
	_, _ = w.WriteString(out)
	return ast.WalkSkipChildren, nil
}
