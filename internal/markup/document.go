// Package markup turns CommonMark and djot sources into a shared goldmark syntax tree and
// renders that tree to HTML.
package markup

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// InternalLinkPrefix marks a link destination that refers to another entry by canonical name.
const InternalLinkPrefix = "~/"

// Part selects which half of a document to render.
type Part int

const (
	Summary Part = iota
	Remainder
)

func (p Part) String() string {
	if p == Summary {
		return "summary"
	}
	return "remainder"
}

// Document is a parsed entry body. It is not modified after NewDocument returns and may be
// rendered from several goroutines.
type Document struct {
	source    []byte
	summary   *ast.Document
	remainder *ast.Document
	title     *Fragment
	links     []string
}

// NewDocument takes ownership of root. It removes a leading level-1 heading as the title,
// splits the remaining top-level blocks at the first more marker and collects internal links.
func NewDocument(source []byte, root *ast.Document) *Document {
	doc := &Document{
		source:    source,
		summary:   ast.NewDocument(),
		remainder: ast.NewDocument(),
	}

	if h, ok := root.FirstChild().(*ast.Heading); ok && h.Level == 1 {
		doc.title = NewFragment()
		for c := h.FirstChild(); c != nil; {
			next := c.NextSibling()
			doc.title.AppendChild(doc.title, c)
			c = next
		}
		root.RemoveChild(root, h)
	}

	target := doc.summary
	for c := root.FirstChild(); c != nil; {
		next := c.NextSibling()
		if _, ok := c.(*MoreMarker); ok && target == doc.summary {
			root.RemoveChild(root, c)
			target = doc.remainder
			c = next
			continue
		}
		target.AppendChild(target, c)
		c = next
	}

	doc.links = collectLinks(doc.summary, doc.remainder)
	return doc
}

// Source returns the bytes the tree's text segments point into.
func (d *Document) Source() []byte { return d.source }

// HasTitle reports whether the body started with a level-1 heading.
func (d *Document) HasTitle() bool { return d.title != nil }

// Links returns the internal link destinations in order of appearance, without duplicates.
func (d *Document) Links() []string { return d.links }

// Node returns the tree of the given part.
func (d *Document) Node(part Part) ast.Node {
	if part == Summary {
		return d.summary
	}
	return d.remainder
}

// HasRemainder reports whether anything follows the more marker.
func (d *Document) HasRemainder() bool {
	return d.remainder.HasChildren()
}

func collectLinks(roots ...ast.Node) []string {
	var links []string
	seen := make(map[string]struct{})
	for _, root := range roots {
		_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			link, ok := n.(*ast.Link)
			if !ok {
				return ast.WalkContinue, nil
			}
			dest := string(link.Destination)
			if !strings.HasPrefix(dest, InternalLinkPrefix) {
				return ast.WalkContinue, nil
			}
			if _, dup := seen[dest]; !dup {
				seen[dest] = struct{}{}
				links = append(links, dest)
			}
			return ast.WalkContinue, nil
		})
	}
	return links
}

// SplitInternalLink splits "~/posts/a#intro" into the canonical name "posts/a" and the anchor
// "#intro". ok is false for destinations without the internal prefix.
func SplitInternalLink(dest string) (canonical, anchor string, ok bool) {
	rest, ok := strings.CutPrefix(dest, InternalLinkPrefix)
	if !ok {
		return "", "", false
	}
	if idx := strings.IndexByte(rest, '#'); idx >= 0 {
		return rest[:idx], rest[idx:], true
	}
	return rest, "", true
}
