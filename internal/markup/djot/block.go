package djot

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/tomcur/sprokkel/internal/markup"
)

// parseBlocks parses lines into block children of parent. In tight list items, paragraphs
// become text blocks so they render without <p>.
func (p *parser) parseBlocks(parent ast.Node, lines []string, tight bool) {
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case trimmed == "":
			i++
		case isMoreMarker(trimmed):
			parent.AppendChild(parent, markup.NewMoreMarker())
			i++
		case isBlockComment(trimmed):
			i++
		case isThematicBreak(trimmed):
			parent.AppendChild(parent, ast.NewThematicBreak())
			i++
		case headingLevel(trimmed) > 0:
			i = p.parseHeading(parent, lines, i)
		case fenceLength(trimmed) > 0:
			i = p.parseCodeBlock(parent, lines, i)
		case isBlockQuoteLine(trimmed):
			i = p.parseBlockQuote(parent, lines, i)
		case hasListMarker(trimmed):
			i = p.parseList(parent, lines, i)
		default:
			i = p.parseParagraph(parent, lines, i, tight)
		}
	}
}

func isMoreMarker(trimmed string) bool {
	inner, ok := commentBody(strings.TrimSpace(trimmed))
	return ok && strings.TrimSpace(inner) == "more"
}

func isBlockComment(trimmed string) bool {
	_, ok := commentBody(strings.TrimSpace(trimmed))
	return ok
}

// commentBody returns the inside of a line that is exactly one {% ... %} comment.
func commentBody(s string) (string, bool) {
	if !strings.HasPrefix(s, "{%") || !strings.HasSuffix(s, "%}") || len(s) < 4 {
		return "", false
	}
	inner := s[2 : len(s)-2]
	if strings.Contains(inner, "%}") {
		return "", false
	}
	return inner, true
}

func isThematicBreak(trimmed string) bool {
	count := 0
	for _, r := range trimmed {
		switch r {
		case '*', '-':
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func headingLevel(trimmed string) int {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level < len(trimmed) && trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0
	}
	return level
}

func fenceLength(trimmed string) int {
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < 3 {
		return 0
	}
	return n
}

func isBlockQuoteLine(trimmed string) bool {
	return trimmed == ">" || strings.HasPrefix(trimmed, "> ")
}

func (p *parser) parseHeading(parent ast.Node, lines []string, i int) int {
	first := strings.TrimLeft(lines[i], " \t")
	level := headingLevel(first)
	parts := []string{strings.TrimSpace(first[level:])}
	i++
	// A heading continues until a blank line; continuation lines may repeat the marker.
	for ; i < len(lines) && !isBlank(lines[i]); i++ {
		cont := strings.TrimLeft(lines[i], " \t")
		if headingLevel(cont) == level {
			cont = cont[level:]
		}
		parts = append(parts, strings.TrimSpace(cont))
	}

	h := ast.NewHeading(level)
	p.parseInlines(h, strings.Join(parts, "\n"))
	h.SetAttributeString("id", []byte(p.uniqueID(headingID(plainText(h, p.buf)))))
	parent.AppendChild(parent, h)
	return i
}

// headingID derives an identifier from heading text: words joined by "-", with punctuation
// other than "-" and "_" dropped.
func headingID(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
	for i, f := range fields {
		fields[i] = strings.Map(func(r rune) rune {
			if r == '-' || r == '_' || r == '.' {
				return r
			}
			if r < 0x80 && !isAlnum(byte(r)) {
				return -1
			}
			return r
		}, f)
	}
	id := strings.Join(fields, "-")
	if id == "" {
		id = "s"
	}
	return id
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func (p *parser) uniqueID(id string) string {
	n := p.ids[id]
	p.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "-" + strconv.Itoa(n)
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *markup.Math:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (p *parser) parseCodeBlock(parent ast.Node, lines []string, i int) int {
	indent := leadingSpaces(lines[i])
	first := lines[i][indent:]
	n := fenceLength(first)
	info := strings.TrimSpace(first[n:])
	i++

	var body []string
	for ; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if closing := fenceLength(trimmed); closing >= n && strings.TrimSpace(trimmed[closing:]) == "" {
			i++
			break
		}
		body = append(body, stripIndent(lines[i], indent))
	}

	if info == "=html" {
		hb := ast.NewHTMLBlock(ast.HTMLBlockType7)
		for _, l := range body {
			hb.Lines().Append(p.segment(l + "\n"))
		}
		parent.AppendChild(parent, hb)
		return i
	}

	var infoText *ast.Text
	if info != "" {
		infoText = ast.NewTextSegment(p.segment(info))
	}
	cb := ast.NewFencedCodeBlock(infoText)
	for _, l := range body {
		cb.Lines().Append(p.segment(l + "\n"))
	}
	parent.AppendChild(parent, cb)
	return i
}

func (p *parser) parseBlockQuote(parent ast.Node, lines []string, i int) int {
	var inner []string
	for ; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		switch {
		case isBlockQuoteLine(trimmed):
			inner = append(inner, strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " "))
		case !isBlank(trimmed) && len(inner) > 0 && !isBlank(inner[len(inner)-1]):
			// Lazy continuation of a paragraph inside the quote.
			inner = append(inner, trimmed)
		default:
			bq := ast.NewBlockquote()
			p.parseBlocks(bq, inner, false)
			parent.AppendChild(parent, bq)
			return i
		}
	}
	bq := ast.NewBlockquote()
	p.parseBlocks(bq, inner, false)
	parent.AppendChild(parent, bq)
	return i
}

// parseParagraph collects lines until a blank line or a more marker. Inside list items a
// list marker also ends the paragraph, so sublists need no blank line.
func (p *parser) parseParagraph(parent ast.Node, lines []string, i int, tight bool) int {
	var parts []string
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || isMoreMarker(trimmed) {
			break
		}
		if p.itemDepth > 0 && len(parts) > 0 && hasListMarker(trimmed) {
			break
		}
		parts = append(parts, trimmed)
	}

	var block ast.Node
	if tight {
		block = ast.NewTextBlock()
	} else {
		block = ast.NewParagraph()
	}
	p.parseInlines(block, strings.Join(parts, "\n"))
	parent.AppendChild(parent, block)
	return i
}
