package djot

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// listMarker describes the marker that opens a list item.
type listMarker struct {
	bullet byte // '-', '*' or '+' for bullet lists, '.' or ')' for ordered lists
	start  int
	width  int // marker length plus the following space
}

func (m listMarker) ordered() bool {
	return m.bullet == '.' || m.bullet == ')'
}

func (m listMarker) sameList(other listMarker) bool {
	return m.bullet == other.bullet
}

// parseListMarker recognises "- ", "* ", "+ ", "1. " and "1) " at the start of trimmed.
func parseListMarker(trimmed string) (listMarker, string, bool) {
	if trimmed == "" {
		return listMarker{}, "", false
	}
	switch c := trimmed[0]; c {
	case '-', '*', '+':
		if len(trimmed) == 1 {
			return listMarker{bullet: c, width: 2}, "", true
		}
		if trimmed[1] == ' ' || trimmed[1] == '\t' {
			return listMarker{bullet: c, width: 2}, strings.TrimLeft(trimmed[2:], " \t"), true
		}
		return listMarker{}, "", false
	}

	digits := 0
	for digits < len(trimmed) && digits < 9 && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits >= len(trimmed) {
		return listMarker{}, "", false
	}
	delim := trimmed[digits]
	if delim != '.' && delim != ')' {
		return listMarker{}, "", false
	}
	start, err := strconv.Atoi(trimmed[:digits])
	if err != nil {
		return listMarker{}, "", false
	}
	rest := trimmed[digits+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return listMarker{}, "", false
	}
	return listMarker{bullet: delim, start: start, width: digits + 2}, strings.TrimLeft(rest, " \t"), true
}

func hasListMarker(trimmed string) bool {
	_, _, ok := parseListMarker(trimmed)
	return ok
}

type listItem struct {
	lines []string
}

// parseList consumes items sharing the first item's marker type and indentation. Items nest
// by indentation: any line indented further than the marker belongs to the current item.
func (p *parser) parseList(parent ast.Node, lines []string, i int) int {
	indent := leadingSpaces(lines[i])
	marker, _, _ := parseListMarker(lines[i][indent:])

	var items []listItem
	loose := false
	for i < len(lines) {
		m, first, ok := parseListMarker(lines[i][min(indent, len(lines[i])):])
		if !ok || leadingSpaces(lines[i]) != indent || !marker.sameList(m) {
			break
		}
		contentIndent := indent + m.width
		item := listItem{lines: []string{first}}
		i++

		for i < len(lines) {
			line := lines[i]
			if isBlank(line) {
				item.lines = append(item.lines, "")
				i++
				continue
			}
			ind := leadingSpaces(line)
			if ind > indent {
				item.lines = append(item.lines, stripIndent(line, contentIndent))
				i++
				continue
			}
			last := item.lines[len(item.lines)-1]
			trimmed := line[ind:]
			if !isBlank(last) && !hasListMarker(trimmed) && !startsBlock(trimmed) {
				item.lines = append(item.lines, trimmed)
				i++
				continue
			}
			break
		}

		// Trailing blank lines separate this item from whatever follows.
		trailing := 0
		for len(item.lines) > 0 && isBlank(item.lines[len(item.lines)-1]) {
			item.lines = item.lines[:len(item.lines)-1]
			trailing++
		}
		if hasInnerBlank(item.lines) {
			loose = true
		}
		items = append(items, item)

		if trailing > 0 {
			if i < len(lines) && leadingSpaces(lines[i]) == indent {
				if m2, _, ok := parseListMarker(lines[i][indent:]); ok && marker.sameList(m2) {
					loose = true
					continue
				}
			}
			// Give the blank lines back to the enclosing container.
			i -= trailing
			break
		}
	}

	list := ast.NewList(marker.bullet)
	list.IsTight = !loose
	if marker.ordered() {
		list.Start = marker.start
	}
	p.itemDepth++
	for _, it := range items {
		li := ast.NewListItem(indent + marker.width)
		p.parseBlocks(li, it.lines, !loose)
		list.AppendChild(list, li)
	}
	p.itemDepth--
	parent.AppendChild(parent, list)
	return i
}

func hasInnerBlank(lines []string) bool {
	for _, l := range lines {
		if isBlank(l) {
			return true
		}
	}
	return false
}

// startsBlock reports whether a non-indented line opens a block that ends a lazy paragraph.
func startsBlock(trimmed string) bool {
	return headingLevel(trimmed) > 0 || fenceLength(trimmed) > 0 || isBlockQuoteLine(trimmed) ||
		isThematicBreak(trimmed) || isBlockComment(trimmed)
}
