package source

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsTemporary reports whether a file name is hidden or an editor temporary file.
func IsTemporary(name string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." {
		return false
	}
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"), strings.HasSuffix(base, ".bak"):
		return true
	}
	return false
}

// Filter decides which root-relative slash paths take part in a build.
type Filter struct {
	patterns []string
}

// NewFilter creates a filter from doublestar ignore patterns. Patterns are expected to have
// been validated when the configuration was loaded.
func NewFilter(patterns []string) *Filter {
	return &Filter{patterns: patterns}
}

// Ignored reports whether relPath (slash separated, relative to the site root) is excluded.
func (f *Filter) Ignored(relPath string) bool {
	for _, segment := range strings.Split(relPath, "/") {
		if IsTemporary(segment) {
			return true
		}
	}
	if f == nil {
		return false
	}
	for _, pattern := range f.patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
