package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
)

var testSite = site.Context{Kind: site.KindRelease, BaseURL: "https://example.com", TrimIndexHTML: true}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		group string
		out   string
	}{
		{"index.html", KindPage, "", "index.html"},
		{"blog/feed.xml", KindPage, "", "blog/feed.xml"},
		{"_entry.html", KindFallback, "", ""},
		{"_posts.html", KindGroup, "posts", ""},
		{"_partials/head.html", KindPartial, "", ""},
		{"blog/_macros.html", KindPartial, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.name)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.group, d.Group)
			assert.Equal(t, tt.out, d.OutputPath)
		})
	}
}

func TestPageOutputPath(t *testing.T) {
	assert.Equal(t, "index.html", PageOutputPath("index.html", 0))
	assert.Equal(t, "index-2.html", PageOutputPath("index.html", 1))
	assert.Equal(t, "blog/index-3.html", PageOutputPath("blog/index.html", 2))
	assert.Equal(t, "feed-2", PageOutputPath("feed", 1))
}

const listTemplate = `{{ $p := paginate .Items 10 }}page {{ $p.Number }}/{{ $p.PageCount }}:{{ range page_items .Items $p }} {{ . }}{{ end }}`

type listData struct {
	Items []int
}

func items(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPagination(t *testing.T) {
	set, err := Parse(map[string]string{"index.html": listTemplate}, testSite)
	require.NoError(t, err)
	data := listData{Items: items(25)}

	disc, err := set.Discover("index.html", data)
	require.NoError(t, err)
	require.True(t, disc.Paginated)
	assert.Nil(t, disc.Output)
	assert.Equal(t, Decision{ItemCount: 25, PerPage: 10, PageCount: 3}, disc.Decision)

	pages := Pages("index.html", disc.Decision, testSite)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{
		"https://example.com",
		"https://example.com/index-2.html",
		"https://example.com/index-3.html",
	}, pages[0].PagePermalinks)
	assert.Equal(t, "index-3.html", pages[2].OutputPath)

	assert.Equal(t, 20, pages[2].Start)
	assert.Equal(t, 25, pages[2].End)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, pages[2].Indices)
	assert.True(t, pages[0].IsFirstPage)
	assert.False(t, pages[0].IsLastPage)
	assert.True(t, pages[2].IsLastPage)
	assert.Empty(t, pages[0].Previous)
	assert.Equal(t, "https://example.com/index-2.html", pages[0].Next)
	assert.Equal(t, "https://example.com/index-2.html", pages[2].Previous)
	assert.Empty(t, pages[2].Next)

	var outputs []string
	for _, p := range pages {
		out, err := set.RenderPage("index.html", data, p)
		require.NoError(t, err)
		outputs = append(outputs, string(out))
	}
	assert.Equal(t, "page 1/3: 0 1 2 3 4 5 6 7 8 9", outputs[0])
	assert.Equal(t, "page 3/3: 20 21 22 23 24", outputs[2])
}

func TestPaginationArgumentsAreFrozen(t *testing.T) {
	tmpl := `{{ $a := paginate 100 5 }}{{ $b := paginate 3 1 }}{{ $a.Number }}-{{ $b.Number }}-{{ $b.PageCount }}`
	set, err := Parse(map[string]string{"list.html": tmpl}, testSite)
	require.NoError(t, err)

	disc, err := set.Discover("list.html", nil)
	require.NoError(t, err)
	assert.Equal(t, 20, disc.Decision.PageCount)

	pages := Pages("list.html", disc.Decision, testSite)
	out, err := set.RenderPage("list.html", nil, pages[4])
	require.NoError(t, err)
	assert.Equal(t, "5-5-20", string(out))
}

func TestPaginationEmpty(t *testing.T) {
	set, err := Parse(map[string]string{"index.html": listTemplate}, testSite)
	require.NoError(t, err)

	disc, err := set.Discover("index.html", listData{})
	require.NoError(t, err)
	assert.Equal(t, 1, disc.Decision.PageCount)

	pages := Pages("index.html", disc.Decision, testSite)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Indices)
	assert.True(t, pages[0].IsFirstPage)
	assert.True(t, pages[0].IsLastPage)

	out, err := set.RenderPage("index.html", listData{}, pages[0])
	require.NoError(t, err)
	assert.Equal(t, "page 1/1:", string(out))
}

func TestPaginationInvalidPerPage(t *testing.T) {
	for _, per := range []string{"0", "-1", `"ten"`} {
		set, err := Parse(map[string]string{"index.html": `{{ paginate 10 ` + per + ` }}`}, testSite)
		require.NoError(t, err)
		_, err = set.Discover("index.html", nil)
		require.Error(t, err, per)
		assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryPagination), per)
	}
}

func TestDiscoverWithoutPagination(t *testing.T) {
	set, err := Parse(map[string]string{
		"about.html":          `{{ template "_partials/head.html" . }}<p>{{ .Name }}</p>`,
		"_partials/head.html": `<title>{{ .Name }}</title>`,
	}, testSite)
	require.NoError(t, err)

	disc, err := set.Discover("about.html", map[string]string{"Name": "A & B"})
	require.NoError(t, err)
	assert.False(t, disc.Paginated)
	assert.Equal(t, "<title>A &amp; B</title><p>A &amp; B</p>", string(disc.Output))

	pages := set.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, "about.html", pages[0].Name)
}

func TestRenderRejectsPaginate(t *testing.T) {
	set, err := Parse(map[string]string{"_entry.html": `{{ paginate 3 1 }}`}, testSite)
	require.NoError(t, err)
	_, err = set.Render("_entry.html", nil)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryPagination))
}

func TestEntryTemplate(t *testing.T) {
	set, err := Parse(map[string]string{
		"_entry.html": "entry",
		"_posts.html": "post",
	}, testSite)
	require.NoError(t, err)

	name, err := set.EntryTemplate("posts")
	require.NoError(t, err)
	assert.Equal(t, "_posts.html", name)

	name, err = set.EntryTemplate("pages")
	require.NoError(t, err)
	assert.Equal(t, FallbackTemplate, name)

	set, err = Parse(map[string]string{"_posts.html": "post"}, testSite)
	require.NoError(t, err)
	_, err = set.EntryTemplate("pages")
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTemplate))
}

func TestParseError(t *testing.T) {
	_, err := Parse(map[string]string{"broken.html": "{{ if }}"}, testSite)
	require.Error(t, err)
	classified, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryTemplate, classified.Category())
	name, _ := classified.Context().GetString("template")
	assert.Equal(t, "broken.html", name)
}

func TestExecuteError(t *testing.T) {
	set, err := Parse(map[string]string{"x.html": `{{ .Missing.Field }}`}, testSite)
	require.NoError(t, err)
	_, err = set.Render("x.html", struct{}{})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTemplate))
}

func TestFuncs(t *testing.T) {
	set, err := Parse(map[string]string{
		"f.html": `{{ leading_zeros 7 3 }}|{{ path_to_url "2024/x/index.html" }}|{{ titlecase "hello wide world" }}|{{ safe_html "<b>x</b>" }}|<script>var d = {{ to_json .Data }};</script>`,
	}, testSite)
	require.NoError(t, err)

	out, err := set.Render("f.html", map[string]any{"Data": map[string]int{"a": 1}})
	require.NoError(t, err)
	parts := strings.Split(string(out), "|")
	require.Len(t, parts, 5)
	assert.Equal(t, "007", parts[0])
	assert.Equal(t, "https://example.com/2024/x", parts[1])
	assert.Equal(t, "Hello Wide World", parts[2])
	assert.Equal(t, "<b>x</b>", parts[3])
	assert.Equal(t, `<script>var d = {"a":1};</script>`, parts[4])
}
