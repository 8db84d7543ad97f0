// Package djot parses the djot subset used by entries into a goldmark syntax tree, so both
// dialects share title extraction, the more split, link collection and HTML rendering.
//
// Supported: headings, paragraphs, thematic breaks, fenced code (with a raw "=html" fence),
// block quotes, nested bullet and ordered lists, _emphasis_, *strong*, `verbatim`, links,
// images, <autolinks>, $`math` and $$`math`, backslash escapes, hard breaks and {% comments %}.
package djot

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/tomcur/sprokkel/internal/markup"
)

// Parse parses a djot body. The returned Document's source is a buffer built during parsing;
// its text segments do not point into the input.
func Parse(input []byte) *markup.Document {
	p := &parser{ids: make(map[string]int)}
	root := ast.NewDocument()
	p.parseBlocks(root, splitLines(string(input)), false)
	return markup.NewDocument(p.buf, root)
}

type parser struct {
	buf       []byte
	ids       map[string]int
	itemDepth int
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// segment appends s to the output buffer and returns its segment.
func (p *parser) segment(s string) text.Segment {
	start := len(p.buf)
	p.buf = append(p.buf, s...)
	return text.NewSegment(start, len(p.buf))
}

// textNode returns a raw text node holding s. Raw nodes are HTML-escaped on output but never
// unescaped, since djot escapes are resolved while parsing.
func (p *parser) textNode(s string) *ast.Text {
	t := ast.NewTextSegment(p.segment(s))
	t.SetRaw(true)
	return t
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// stripIndent removes up to n leading spaces.
func stripIndent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:]
}
