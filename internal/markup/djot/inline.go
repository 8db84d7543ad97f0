package djot

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/tomcur/sprokkel/internal/markup"
)

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// inlineState accumulates plain text between inline constructs.
type inlineState struct {
	p      *parser
	parent ast.Node
	text   strings.Builder
	// lastEscape is the text length right after the most recent escaped character, so a
	// trailing "\$" is not taken as a math opener.
	lastEscape int
}

func (st *inlineState) flush() {
	if st.text.Len() > 0 {
		st.parent.AppendChild(st.parent, st.p.textNode(st.text.String()))
		st.text.Reset()
	}
	st.lastEscape = -1
}

func (st *inlineState) lineBreak(hard bool) {
	cur := strings.TrimRight(st.text.String(), " \t")
	st.text.Reset()
	st.text.WriteString(cur)
	st.flush()
	t := ast.NewTextSegment(text.NewSegment(len(st.p.buf), len(st.p.buf)))
	if hard {
		t.SetHardLineBreak(true)
	} else {
		t.SetSoftLineBreak(true)
	}
	st.parent.AppendChild(st.parent, t)
}

// takeMathOpener removes a trailing unescaped "$" or "$$" from the pending text.
func (st *inlineState) takeMathOpener() (display, ok bool) {
	cur := st.text.String()
	n := 0
	switch {
	case strings.HasSuffix(cur, "$$") && st.lastEscape < len(cur)-1:
		n, display = 2, true
	case strings.HasSuffix(cur, "$") && st.lastEscape < len(cur):
		n = 1
	default:
		return false, false
	}
	st.text.Reset()
	st.text.WriteString(cur[:len(cur)-n])
	return display, true
}

func (st *inlineState) add(n ast.Node) {
	st.flush()
	st.parent.AppendChild(st.parent, n)
}

// parseInlines parses s into inline children of parent.
func (p *parser) parseInlines(parent ast.Node, s string) {
	st := &inlineState{p: p, parent: parent, lastEscape: -1}
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) {
				next := s[i+1]
				switch {
				case next == '\n':
					st.lineBreak(true)
					i += 2
					continue
				case next == ' ':
					st.text.WriteString("\u00a0")
					i += 2
					continue
				case strings.IndexByte(asciiPunct, next) >= 0:
					st.text.WriteByte(next)
					st.lastEscape = st.text.Len()
					i += 2
					continue
				}
			}
			st.text.WriteByte(c)
			i++

		case '\n':
			st.lineBreak(false)
			i++

		case '`':
			content, next := verbatim(s, i)
			if display, ok := st.takeMathOpener(); ok {
				st.add(markup.NewMath(display, []byte(content)))
			} else {
				cs := ast.NewCodeSpan()
				cs.AppendChild(cs, ast.NewTextSegment(p.segment(strings.ReplaceAll(content, "\n", " "))))
				st.add(cs)
			}
			i = next

		case '_', '*':
			if i+1 < len(s) && !isSpace(s[i+1]) {
				if end := findCloser(s, i+1, c); end > 0 {
					level := 1
					if c == '*' {
						level = 2
					}
					em := ast.NewEmphasis(level)
					p.parseInlines(em, s[i+1:end])
					st.add(em)
					i = end + 1
					continue
				}
			}
			st.text.WriteByte(c)
			i++

		case '!', '[':
			start := i
			if c == '!' {
				if i+1 >= len(s) || s[i+1] != '[' {
					st.text.WriteByte(c)
					i++
					continue
				}
				start++
			}
			label, dest, next, ok := parseLink(s, start)
			if !ok {
				st.text.WriteString(s[i : start+1])
				i = start + 1
				continue
			}
			link := ast.NewLink()
			link.Destination = []byte(dest)
			p.parseInlines(link, label)
			if c == '!' {
				st.add(ast.NewImage(link))
			} else {
				st.add(link)
			}
			i = next

		case '<':
			if url, next, ok := parseAutolink(s, i); ok {
				kind := ast.AutoLinkURL
				if !strings.Contains(url, ":") {
					kind = ast.AutoLinkEmail
				}
				st.add(ast.NewAutoLink(kind, ast.NewTextSegment(p.segment(url))))
				i = next
				continue
			}
			st.text.WriteByte(c)
			i++

		case '{':
			if strings.HasPrefix(s[i:], "{%") {
				if end := strings.Index(s[i+2:], "%}"); end >= 0 {
					i += 2 + end + 2
					continue
				}
			}
			st.text.WriteByte(c)
			i++

		default:
			st.text.WriteByte(c)
			i++
		}
	}
	st.flush()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// backtickRun returns the number of backticks starting at i.
func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// verbatim reads a verbatim span opened at i. An unclosed span runs to the end of s.
func verbatim(s string, i int) (content string, next int) {
	n := backtickRun(s, i)
	j := i + n
	for j < len(s) {
		if s[j] != '`' {
			j++
			continue
		}
		run := backtickRun(s, j)
		if run == n {
			return trimVerbatim(s[i+n : j]), j + run
		}
		j += run
	}
	return trimVerbatim(s[i+n:]), len(s)
}

// trimVerbatim strips one space on each side when the content is padded to allow a leading or
// trailing backtick.
func trimVerbatim(s string) string {
	if len(s) >= 2 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.Trim(s, " ") != "" {
		return s[1 : len(s)-1]
	}
	return s
}

// findCloser finds the closing delimiter for an emphasis opened just before from. The closer
// must not follow whitespace. Escapes and verbatim spans are skipped.
func findCloser(s string, from int, delim byte) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '`':
			_, next := verbatim(s, j)
			j = next - 1
		case delim:
			if j > from && !isSpace(s[j-1]) {
				return j
			}
		}
	}
	return -1
}

// parseLink parses "[label](dest)" starting at the opening bracket.
func parseLink(s string, open int) (label, dest string, next int, ok bool) {
	depth := 0
	closeBracket := -1
scan:
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '`':
			_, n := verbatim(s, j)
			j = n - 1
		case '[':
			depth++
		case ']':
			if depth == 0 {
				closeBracket = j
				break scan
			}
			depth--
		}
	}
	if closeBracket < 0 || closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return "", "", 0, false
	}

	depth = 0
	for k := closeBracket + 2; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			raw := strings.ReplaceAll(s[closeBracket+2:k], "\n", "")
			return s[open+1 : closeBracket], strings.TrimSpace(raw), k + 1, true
		}
	}
	return "", "", 0, false
}

// parseAutolink parses "<https://example.com>" or "<me@example.com>" starting at i.
func parseAutolink(s string, i int) (string, int, bool) {
	end := strings.IndexByte(s[i+1:], '>')
	if end <= 0 {
		return "", 0, false
	}
	candidate := s[i+1 : i+1+end]
	if strings.ContainsAny(candidate, " \t\n<") {
		return "", 0, false
	}
	if !strings.Contains(candidate, ":") && !strings.Contains(candidate, "@") {
		return "", 0, false
	}
	return candidate, i + 1 + end + 1, true
}
