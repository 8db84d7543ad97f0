// Package linkcheck verifies that the #anchor part of internal links names an element in the
// target entry's rendered HTML.
package linkcheck

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// Link is an internal link with an anchor.
type Link struct {
	Source     string // Canonical name of the linking entry
	SourcePath string
	Target     string // Canonical name of the linked entry
	Anchor     string // Without the leading "#"
}

// Anchors returns every id, and every name attribute of <a> elements, in an HTML document or
// fragment.
func Anchors(r io.Reader) (map[string]bool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "failed to parse HTML").Build()
	}

	ids := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				ids[id] = true
			}
			if n.Data == "a" {
				if name := getAttr(n, "name"); name != "" {
					ids[name] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// Checker looks up anchors in rendered entries, parsing each target at most once. It is not
// safe for concurrent use.
type Checker struct {
	render func(canonical string) (string, bool)
	cache  map[string]map[string]bool
}

// NewChecker creates a checker. render returns the rendered HTML of an entry.
func NewChecker(render func(canonical string) (string, bool)) *Checker {
	return &Checker{render: render, cache: make(map[string]map[string]bool)}
}

// Missing returns the links whose anchor does not exist in the target, as warnings.
func (c *Checker) Missing(links []Link) ([]*foundationerrors.ClassifiedError, error) {
	var warnings []*foundationerrors.ClassifiedError
	for _, l := range links {
		ids, err := c.anchors(l.Target)
		if err != nil {
			return nil, err
		}
		if ids[l.Anchor] {
			continue
		}
		warnings = append(warnings, foundationerrors.LinkError("anchor not found in linked entry").
			Warning().
			WithContext("path", l.SourcePath).
			WithContext("source", l.Source).
			WithContext("target", l.Target+"#"+l.Anchor).
			Build())
	}
	return warnings, nil
}

func (c *Checker) anchors(canonical string) (map[string]bool, error) {
	if ids, ok := c.cache[canonical]; ok {
		return ids, nil
	}
	body, ok := c.render(canonical)
	if !ok {
		return nil, foundationerrors.InternalError("rendered entry not found").
			WithContext("canonical", canonical).
			Build()
	}
	ids, err := Anchors(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.cache[canonical] = ids
	return ids, nil
}
