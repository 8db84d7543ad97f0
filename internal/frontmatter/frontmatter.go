// Package frontmatter splits and decodes the metadata block at the start of an entry.
//
// A block opened by "+++" holds TOML and ends at the next line starting with "+++". A block
// opened by "---" holds YAML and ends at the next line starting with "---".
package frontmatter

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the front matter syntax.
type Format string

const (
	FormatNone Format = ""
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Split separates the raw front matter from the body.
//
// If the document does not start with a delimiter, or the opening delimiter is never closed,
// format is FormatNone and body is the full input. The returned body starts right after the closing delimiter.
func Split(content []byte) (raw []byte, body []byte, format Format, err error) {
	var delim string
	switch {
	case bytes.HasPrefix(content, []byte("+++")):
		delim, format = "+++", FormatTOML
	case bytes.HasPrefix(content, []byte("---")):
		delim, format = "---", FormatYAML
	default:
		return nil, content, FormatNone, nil
	}

	idx := bytes.Index(content[len(delim):], []byte("\n"+delim))
	if idx < 0 {
		// A leading "---" is also a Markdown thematic break; without a closer it is body text.
		return nil, content, FormatNone, nil
	}
	end := len(delim) + idx
	return content[len(delim) : end+1], content[end+1+len(delim):], format, nil
}

// Decode parses raw front matter of the given format into a map. FormatNone and empty input
// yield an empty map.
func Decode(raw []byte, format Format) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	switch format {
	case FormatNone:
		return fields, nil
	case FormatTOML:
		if err := toml.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	default:
		return nil, fmt.Errorf("unknown front matter format %q", format)
	}
	return fields, nil
}

// Parse splits and decodes the front matter of content.
func Parse(content []byte) (fields map[string]any, body []byte, format Format, err error) {
	raw, body, format, err := Split(content)
	if err != nil {
		return nil, nil, format, err
	}
	fields, err = Decode(raw, format)
	if err != nil {
		return nil, nil, format, err
	}
	return fields, body, format, nil
}

// Released reports whether the "release" field marks the entry as released: boolean true or
// the strings "true" and "yes".
func Released(fields map[string]any) bool {
	switch v := fields["release"].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "yes"
	default:
		return false
	}
}
