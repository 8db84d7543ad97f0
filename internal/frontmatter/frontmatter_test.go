package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatNone, format)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_TOMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("+++\nrelease = true\n+++\n# Title\n")

	raw, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Equal(t, []byte("\nrelease = true\n"), raw)
	require.Equal(t, []byte("\n# Title\n"), body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	raw, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Equal(t, []byte("\nkey: value\n"), raw)
	require.Equal(t, []byte("\n# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_KeepsWholeBody(t *testing.T) {
	for _, input := range []string{
		"---\n\nHello, a post opening with a thematic break.\n",
		"---\nkey: value\n# Title\n",
		"+++\nkey = 1\n",
	} {
		raw, body, format, err := Split([]byte(input))
		require.NoError(t, err)
		require.Nil(t, raw)
		require.Equal(t, FormatNone, format)
		require.Equal(t, []byte(input), body)
	}
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("+++\r\nkey = 1\r\n+++\r\n# Title\r\n")

	raw, body, format, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, FormatTOML, format)
	require.Equal(t, []byte("\r\nkey = 1\r\n"), raw)
	require.Equal(t, []byte("\r\n# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	raw, body, format, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)
	require.Equal(t, []byte("\n"), raw)
	require.Equal(t, []byte("\n# Title\n"), body)

	fields, err := Decode(raw, format)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParse_TOML(t *testing.T) {
	fields, body, format, err := Parse([]byte("+++\nrelease = \"yes\"\ntags = [\"a\", \"b\"]\n[extra]\nn = 3\n+++\nbody"))
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "\nbody", string(body))
	assert.Equal(t, "yes", fields["release"])
	assert.Equal(t, []any{"a", "b"}, fields["tags"])
	assert.Equal(t, map[string]any{"n": int64(3)}, fields["extra"])
}

func TestParse_YAML(t *testing.T) {
	fields, _, format, err := Parse([]byte("---\nuid: abc\ntags:\n  - one\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "abc", fields["uid"])
	assert.Equal(t, []any{"one"}, fields["tags"])
}

func TestParse_MalformedReturnsError(t *testing.T) {
	_, _, format, err := Parse([]byte("+++\nrelease = \n+++\n"))
	require.Error(t, err)
	assert.Equal(t, FormatTOML, format)

	_, _, format, err = Parse([]byte("---\nkey: [unclosed\n---\n"))
	require.Error(t, err)
	assert.Equal(t, FormatYAML, format)
}

func TestReleased(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   bool
	}{
		{"missing", map[string]any{}, false},
		{"nil map", nil, false},
		{"bool true", map[string]any{"release": true}, true},
		{"bool false", map[string]any{"release": false}, false},
		{"string true", map[string]any{"release": "true"}, true},
		{"string yes", map[string]any{"release": "yes"}, true},
		{"string no", map[string]any{"release": "no"}, false},
		{"number", map[string]any{"release": int64(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Released(tt.fields))
		})
	}
}
