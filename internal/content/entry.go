// Package content turns entry source files into Entries: file name metadata, front matter,
// title and a parsed markup tree with its internal link targets still unresolved.
package content

import (
	"html/template"

	"github.com/tomcur/sprokkel/internal/markup"
	"github.com/tomcur/sprokkel/internal/source"
)

// Entry is one parsed document. It is not modified after the Parser returns it, so the
// content graph and render workers share it without locking.
type Entry struct {
	SourcePath string         `json:"-"`
	RelPath    string         `json:"-"`
	Dialect    source.Dialect `json:"source_kind"`
	// SortKey orders entries within a group; it is the file (or directory) name.
	SortKey string `json:"-"`

	Group         string `json:"group"`
	Slug          string `json:"slug"`
	CanonicalName string `json:"canonical_name"`
	Date          *Date  `json:"date"`
	Time          *Time  `json:"time"`

	Title       template.HTML  `json:"title"`
	Released    bool           `json:"released"`
	FrontMatter map[string]any `json:"front_matter"`

	// OutFile and OutAssetDir are slash paths relative to the output root.
	OutFile     string `json:"-"`
	OutAssetDir string `json:"-"`
	Permalink   string `json:"permalink"`
	AssetURL    string `json:"asset_url"`

	// Assets are the other files in an index entry's directory.
	Assets []source.File `json:"-"`

	doc *markup.Document
}

// Document returns the parsed body.
func (e *Entry) Document() *markup.Document {
	return e.doc
}

// Links returns the raw internal link targets of the body, in order of first appearance.
func (e *Entry) Links() []string {
	if e.doc == nil {
		return nil
	}
	return e.doc.Links()
}

// Field returns a front matter value.
func (e *Entry) Field(key string) any {
	return e.FrontMatter[key]
}
