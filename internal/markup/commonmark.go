package markup

import (
	"bytes"
	"sync"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var commonMark = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithInlineParsers(util.Prioritized(mathParser{}, 500)),
			parser.WithASTTransformers(util.Prioritized(moreTransformer{}, 500)),
		),
	)
})

// ParseCommonMark parses a CommonMark body with GFM, footnotes, typographic punctuation and
// $-delimited math.
func ParseCommonMark(source []byte) *Document {
	root := commonMark().Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))
	return NewDocument(source, root.(*ast.Document))
}

// mathParser parses $inline$ and $$display$$ math on a single line. A single-dollar span must
// not start or end with whitespace and must not be followed by a digit, so prices like
// "$5 and $10" stay text.
type mathParser struct{}

func (mathParser) Trigger() []byte { return []byte{'$'} }

func (mathParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	n := 1
	if len(line) > 1 && line[1] == '$' {
		n = 2
	}
	delim := line[:n]
	rest := bytes.TrimRight(line[n:], "\r\n")
	if len(rest) == 0 || (n == 1 && isSpace(rest[0])) {
		return nil
	}

	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' {
			i++
			continue
		}
		if !bytes.HasPrefix(rest[i:], delim) || i == 0 {
			continue
		}
		if n == 1 {
			if isSpace(rest[i-1]) {
				continue
			}
			if i+1 < len(rest) && unicode.IsDigit(rune(rest[i+1])) {
				continue
			}
		}
		block.Advance(n + i + n)
		return NewMath(n == 2, rest[:i])
	}
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// moreTransformer replaces top-level <!--more--> comments with MoreMarker nodes.
type moreTransformer struct{}

func (moreTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var markers []ast.Node
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if hb, ok := c.(*ast.HTMLBlock); ok && isMoreComment(htmlBlockText(hb, source)) {
			markers = append(markers, c)
		}
	}
	for _, m := range markers {
		doc.ReplaceChild(doc, m, NewMoreMarker())
	}
}

func htmlBlockText(hb *ast.HTMLBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := hb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	if hb.HasClosure() {
		buf.Write(hb.ClosureLine.Value(source))
	}
	return buf.Bytes()
}

func isMoreComment(b []byte) bool {
	compact := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, b)
	return string(compact) == "<!--more-->"
}
