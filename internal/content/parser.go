package content

import (
	"html/template"
	"os"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/frontmatter"
	"github.com/tomcur/sprokkel/internal/markup"
	"github.com/tomcur/sprokkel/internal/markup/djot"
	"github.com/tomcur/sprokkel/internal/site"
	"github.com/tomcur/sprokkel/internal/source"
)

// Parser builds Entries for one build. It is safe for concurrent use.
type Parser struct {
	site  site.Context
	title *markup.Renderer
}

// NewParser creates a parser. Titles are rendered with highlighter and math, without link
// rewriting: internal links in a title are left as written.
func NewParser(sc site.Context, highlighter markup.Highlighter, math markup.MathRenderer) *Parser {
	return &Parser{
		site:  sc,
		title: markup.NewRenderer(markup.RenderContext{Highlighter: highlighter, Math: math}),
	}
}

// ParseFile reads and parses an entry source file.
func (p *Parser) ParseFile(file source.EntryFile) (*Entry, error) {
	// #nosec G304 -- path comes from the site scan.
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, foundationerrors.ScanError("failed to read entry").
			WithCause(err).
			WithContext("path", file.RelPath).
			Build()
	}
	return p.Parse(file, data)
}

// Parse parses the content of an entry source file.
func (p *Parser) Parse(file source.EntryFile, data []byte) (*Entry, error) {
	raw, body, format, err := frontmatter.Split(data)
	if err != nil {
		return nil, foundationerrors.ParseError("failed to split front matter").
			WithCause(err).
			WithContext("path", file.RelPath).
			Build()
	}
	fields, err := frontmatter.Decode(raw, format)
	if err != nil {
		return nil, foundationerrors.ParseError("failed to parse front matter").
			WithCause(err).
			WithContext("path", file.RelPath).
			WithContext("parser", string(format)).
			Build()
	}

	date, tm, slug := SplitFileName(file.Stem)
	outFile, assetDir := OutputPaths(date, slug)

	var doc *markup.Document
	switch file.Dialect {
	case source.DialectDjot:
		doc = djot.Parse(body)
	default:
		doc = markup.ParseCommonMark(body)
	}

	title, ok, err := p.title.RenderTitle(doc)
	if err != nil {
		return nil, foundationerrors.RenderError("failed to render title").
			WithCause(err).
			WithContext("path", file.RelPath).
			Build()
	}
	if !ok {
		title = template.HTMLEscapeString(slug)
	}

	return &Entry{
		SourcePath:    file.Path,
		RelPath:       file.RelPath,
		Dialect:       file.Dialect,
		SortKey:       file.Stem,
		Group:         file.Group,
		Slug:          slug,
		CanonicalName: file.Group + "/" + file.Stem,
		Date:          date,
		Time:          tm,
		// #nosec G203 -- rendered by the markup renderer, which escapes text.
		Title:       template.HTML(title),
		Released:    frontmatter.Released(fields),
		FrontMatter: fields,
		OutFile:     outFile,
		OutAssetDir: assetDir,
		Permalink:   p.site.URL(outFile),
		AssetURL:    p.site.URL(assetDir),
		Assets:      file.Assets,
		doc:         doc,
	}, nil
}
