package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
	"github.com/tomcur/sprokkel/internal/source"
)

var testSite = site.Context{Kind: site.KindRelease, BaseURL: "https://example.com", TrimIndexHTML: true}

func TestSplitFileName(t *testing.T) {
	tests := []struct {
		stem string
		date *Date
		time *Time
		slug string
	}{
		{"2024-04-16_a-test_!", &Date{2024, 4, 16}, nil, "a-test_!"},
		{"2024-04-16-a-test-!", nil, nil, "2024-04-16-a-test-!"},
		{"2024-04-16T094032_hello", &Date{2024, 4, 16}, &Time{9, 40, 32}, "hello"},
		{"2024-04-16t235959_late", &Date{2024, 4, 16}, &Time{23, 59, 59}, "late"},
		{"2024-04-16T0940320_x", nil, nil, "x"},
		{"2024-04-16T_x", nil, nil, "x"},
		{"202-04-16_x", nil, nil, "x"},
		{"20240416_x", nil, nil, "x"},
		{"_", nil, nil, ""},
		{"", nil, nil, ""},
		{"about", nil, nil, "about"},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			date, tm, slug := SplitFileName(tt.stem)
			assert.Equal(t, tt.date, date)
			assert.Equal(t, tt.time, tm)
			assert.Equal(t, tt.slug, slug)
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	for _, prefix := range []string{"2024-04-16", "1999-12-31", "0001-01-01"} {
		date, tm, _ := SplitFileName(prefix + "_x")
		require.NotNil(t, date)
		assert.Nil(t, tm)
		assert.Equal(t, prefix, date.String())
	}
	_, tm, _ := SplitFileName("2024-04-16T090507_x")
	require.NotNil(t, tm)
	assert.Equal(t, "09:05:07", tm.String())
}

func TestOutputPaths(t *testing.T) {
	out, dir := OutputPaths(&Date{Year: 2024, Month: 4, Day: 16}, "hello")
	assert.Equal(t, "2024/hello/index.html", out)
	assert.Equal(t, "2024/hello", dir)

	out, dir = OutputPaths(nil, "about")
	assert.Equal(t, "about/index.html", out)
	assert.Equal(t, "about", dir)

	out, dir = OutputPaths(nil, "index")
	assert.Equal(t, "index.html", out)
	assert.Equal(t, "index", dir)
}

func entryFile(group, stem string, dialect source.Dialect) source.EntryFile {
	ext := ".md"
	if dialect == source.DialectDjot {
		ext = ".dj"
	}
	return source.EntryFile{
		Path:    "/site/entries/" + group + "/" + stem + ext,
		RelPath: "entries/" + group + "/" + stem + ext,
		Group:   group,
		Stem:    stem,
		Dialect: dialect,
	}
}

func TestParseEntry(t *testing.T) {
	p := NewParser(testSite, nil, nil)
	src := "+++\nrelease = true\ntags = [\"go\"]\n+++\n# Hello *there*\n\nIntro with [a link](~/pages/about#team).\n\n<!--more-->\n\nThe rest.\n"

	e, err := p.Parse(entryFile("posts", "2024-04-16_hello", source.DialectCommonMark), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "posts", e.Group)
	assert.Equal(t, "hello", e.Slug)
	assert.Equal(t, "posts/2024-04-16_hello", e.CanonicalName)
	assert.Equal(t, "2024-04-16_hello", e.SortKey)
	assert.Equal(t, &Date{2024, 4, 16}, e.Date)
	assert.Equal(t, "Hello <em>there</em>", string(e.Title))
	assert.True(t, e.Released)
	assert.Equal(t, []any{"go"}, e.Field("tags"))
	assert.Equal(t, "2024/hello/index.html", e.OutFile)
	assert.Equal(t, "https://example.com/2024/hello", e.Permalink)
	assert.Equal(t, "https://example.com/2024/hello", e.AssetURL)
	assert.Equal(t, []string{"~/pages/about#team"}, e.Links())
	assert.True(t, e.Document().HasRemainder())
}

func TestParseTitleFallsBackToSlug(t *testing.T) {
	p := NewParser(testSite, nil, nil)

	e, err := p.Parse(entryFile("pages", "a<b", source.DialectCommonMark), []byte("Just text.\n"))
	require.NoError(t, err)
	assert.Equal(t, "a&lt;b", string(e.Title))
	assert.False(t, e.Released)

	e, err = p.Parse(entryFile("pages", "about", source.DialectDjot), []byte("# About _me_\n\nText.\n"))
	require.NoError(t, err)
	assert.Equal(t, "About <em>me</em>", string(e.Title))
}

func TestParseFrontMatterErrors(t *testing.T) {
	p := NewParser(testSite, nil, nil)

	tests := []struct {
		name   string
		src    string
		parser string
	}{
		{"bad toml", "+++\nrelease = = true\n+++\nBody\n", "toml"},
		{"bad yaml", "---\nrelease: [unclosed\n---\nBody\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(entryFile("posts", "x", source.DialectCommonMark), []byte(tt.src))
			require.Error(t, err)
			classified, ok := foundationerrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, foundationerrors.CategoryParse, classified.Category())
			path, _ := classified.Context().GetString("path")
			assert.Equal(t, "entries/posts/x.md", path)
			parser, _ := classified.Context().GetString("parser")
			assert.Equal(t, tt.parser, parser)
		})
	}
}

func TestParseLeadingThematicBreakIsBody(t *testing.T) {
	p := NewParser(testSite, nil, nil)

	e, err := p.Parse(entryFile("a", "x", source.DialectCommonMark),
		[]byte("---\n\nHello, a post opening with a thematic break.\n"))
	require.NoError(t, err)
	assert.False(t, e.Released)
	assert.Nil(t, e.Field("release"))
	assert.Equal(t, "x", string(e.Title))
}

func TestParseYAMLFrontMatter(t *testing.T) {
	p := NewParser(testSite, nil, nil)
	e, err := p.Parse(entryFile("posts", "y", source.DialectCommonMark), []byte("---\nrelease: yes\n---\nBody\n"))
	require.NoError(t, err)
	// yaml.v3 keeps "yes" as a string, which still counts as released.
	assert.True(t, e.Released)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.dj")
	require.NoError(t, os.WriteFile(path, []byte("Hello.\n"), 0o600))

	file := source.EntryFile{Path: path, RelPath: "entries/pages/index/index.dj", Group: "pages", Stem: "index", Dialect: source.DialectDjot, Index: true}
	e, err := NewParser(testSite, nil, nil).ParseFile(file)
	require.NoError(t, err)
	assert.Equal(t, "index.html", e.OutFile)
	assert.Equal(t, "https://example.com", e.Permalink)
	assert.Equal(t, "pages/index", e.CanonicalName)

	file.Path = filepath.Join(dir, "missing.dj")
	_, err = NewParser(testSite, nil, nil).ParseFile(file)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryScan))
}
