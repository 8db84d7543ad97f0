package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
)

func fixtureSite() map[string]string {
	return map[string]string{
		"sprokkel.toml": `
base-url = "https://example.com"
base-url-develop = "http://localhost:8080"

[highlight]
css-file = "code.css"
`,
		"entries/posts/2024-01-01_first/index.md":  "+++\nrelease = true\n+++\n# First post\n\nSummary here.\n\n<!-- more -->\n\n## Intro\n\nBody.\n",
		"entries/posts/2024-01-01_first/image.png": "png",
		"entries/posts/2024-01-02_second.md":       "+++\nrelease = true\n+++\n# Second post\n\nSee [first](~/posts/2024-01-01_first#intro) and [again](~/posts/2024-01-01_first#nope).\n",
		"entries/posts/draft.md":                   "+++\nrelease = false\n+++\nNot yet.\n",
		"templates/_entry.html":                    `{{ .Entry.Title }}|{{ .Entry.Summary }}{{ .Entry.Remainder }}|refs:{{ range .ReferringEntries }}{{ .CanonicalName }};{{ end }}`,
		"templates/_partials/link.html":            `{{ .Permalink }}`,
		"templates/index.html":                     "{{ range .Entries.posts }}{{ template \"_partials/link.html\" . }}\n{{ end }}",
		"templates/archive.html":                   `{{ $p := paginate .Entries.posts 1 }}{{ range page_items .Entries.posts $p }}{{ .Slug }}{{ end }}|{{ $p.Number }}/{{ $p.PageCount }}`,
		"assets/style.css":                         "body{}",
		"cat/app.js/01.js":                         "a\n",
		"cat/app.js/02.js":                         "b\n",
	}
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func readOut(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, OutputDirName, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildSite(t *testing.T) {
	root := writeFixture(t, fixtureSite())

	report, err := New(Options{Root: root, Jobs: 2}).Build(context.Background())
	require.NoError(t, err)

	first := readOut(t, root, "2024/first/index.html")
	assert.Contains(t, first, "First post|<p>Summary here.</p>")
	assert.Contains(t, first, `<h2 id="intro">Intro</h2>`)
	assert.Contains(t, first, "refs:posts/2024-01-02_second;")

	second := readOut(t, root, "2024/second/index.html")
	assert.Contains(t, second, `href="https://example.com/2024/first#intro"`)

	assert.Equal(t, "https://example.com/2024/first\nhttps://example.com/2024/second\n", readOut(t, root, "index.html"))
	assert.Equal(t, "first|1/2", readOut(t, root, "archive.html"))
	assert.Equal(t, "second|2/2", readOut(t, root, "archive-2.html"))

	assert.Equal(t, "png", readOut(t, root, "2024/first/image.png"))
	assert.Equal(t, "body{}", readOut(t, root, "style.css"))
	assert.Equal(t, "a\nb\n", readOut(t, root, "app.js"))
	assert.NotEmpty(t, readOut(t, root, "code.css"))

	assert.NoFileExists(t, filepath.Join(root, OutputDirName, "draft", "index.html"))
	assert.NoDirExists(t, filepath.Join(root, OutputDirName+StageSuffix))

	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	assert.True(t, foundationerrors.HasCategory(report.Warnings[0], foundationerrors.CategoryLink))
	assert.Equal(t, 2, report.EntriesWritten)
	assert.Equal(t, 3, report.PagesWritten)
	assert.Equal(t, 4, report.AssetsWritten)
	assert.NotEmpty(t, report.Digest)
	assert.Contains(t, report.Files, "2024/first/index.html")
	assert.Len(t, report.StageDurations, len(pipeline()))
	assert.Equal(t, 1, report.StageCounts[StageVerifyAnchors].Warning)
}

func TestBuildDevelopIncludesUnreleased(t *testing.T) {
	root := writeFixture(t, fixtureSite())

	_, err := New(Options{Root: root, Kind: site.KindDevelop}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "draft|<p>Not yet.</p>\n|refs:", readOut(t, root, "draft/index.html"))
	assert.Contains(t, readOut(t, root, "index.html"), "http://localhost:8080/draft\n")
	assert.Equal(t, "draft|3/3", readOut(t, root, "archive-3.html"))
}

func TestBuildIsDeterministic(t *testing.T) {
	root := writeFixture(t, fixtureSite())

	first, err := New(Options{Root: root, Jobs: 1}).Build(context.Background())
	require.NoError(t, err)
	second, err := New(Options{Root: root, Jobs: 8}).Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.BuildID, second.BuildID)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.Files, second.Files)
}

func TestFailedBuildKeepsPreviousOutput(t *testing.T) {
	root := writeFixture(t, fixtureSite())
	b := New(Options{Root: root})

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	before := readOut(t, root, "index.html")

	broken := filepath.Join(root, "entries", "posts", "2024-01-03_broken.md")
	require.NoError(t, os.WriteFile(broken, []byte("+++\nrelease = true\n+++\n[x](~/posts/missing)\n"), 0o644))

	report, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryLink))
	assert.Equal(t, 11, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, 1, report.StageCounts[StageGraph].Fatal)

	assert.Equal(t, before, readOut(t, root, "index.html"))
	assert.NoFileExists(t, filepath.Join(root, OutputDirName, "2024", "broken", "index.html"))
	assert.NoDirExists(t, filepath.Join(root, OutputDirName+StageSuffix))
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(files map[string]string)
		category foundationerrors.ErrorCategory
	}{
		{
			name:     "missing fallback template",
			edit:     func(f map[string]string) { delete(f, "templates/_entry.html") },
			category: foundationerrors.CategoryTemplate,
		},
		{
			name:     "malformed front matter",
			edit:     func(f map[string]string) { f["entries/posts/bad.md"] = "+++\nrelease = \n+++\n" },
			category: foundationerrors.CategoryParse,
		},
		{
			name:     "missing config",
			edit:     func(f map[string]string) { delete(f, "sprokkel.toml") },
			category: foundationerrors.CategoryConfig,
		},
		{
			name:     "entry template error",
			edit:     func(f map[string]string) { f["templates/_posts.html"] = `{{ .Entry.Nope }}` },
			category: foundationerrors.CategoryTemplate,
		},
		{
			name: "invalid per page",
			edit: func(f map[string]string) {
				f["templates/archive.html"] = `{{ paginate .Entries.posts 0 }}`
			},
			category: foundationerrors.CategoryPagination,
		},
		{
			name: "two producers for one path",
			edit: func(f map[string]string) {
				f["templates/2024/first/index.html"] = "clash"
			},
			category: foundationerrors.CategoryBuild,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := fixtureSite()
			tt.edit(files)
			root := writeFixture(t, files)

			report, err := New(Options{Root: root}).Build(context.Background())
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, tt.category), err.Error())
			assert.Equal(t, OutcomeFailed, report.Outcome)
			assert.NoDirExists(t, filepath.Join(root, OutputDirName))
			assert.NoDirExists(t, filepath.Join(root, OutputDirName+StageSuffix))
		})
	}
}

func TestKeepGoingReportsEveryJobError(t *testing.T) {
	files := fixtureSite()
	files["sprokkel.toml"] = "base-url = \"https://example.com\"\nkeep-going = true\n"
	files["templates/_entry.html"] = `{{ .Entry.Nope }}`
	root := writeFixture(t, files)

	report, err := New(Options{Root: root, Jobs: 1}).Build(context.Background())
	require.Error(t, err)

	var failure *foundationerrors.BuildFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 2, failure.Len())
	assert.Len(t, report.Errors, 2)
}

func TestCanceledBuildDoesNotPublish(t *testing.T) {
	root := writeFixture(t, fixtureSite())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(Options{Root: root}).Build(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, 12, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoDirExists(t, filepath.Join(root, OutputDirName))
}
