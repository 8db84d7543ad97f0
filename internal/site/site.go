// Package site holds the per-build URL context shared by the content graph, the template
// engine and the pagination state machine.
package site

import "strings"

// Kind selects which entries are built and which base URL is used.
type Kind string

const (
	KindRelease Kind = "release"
	KindDevelop Kind = "develop"
)

// Context describes how output paths become absolute URLs for one build.
type Context struct {
	Kind          Kind
	BaseURL       string
	TrimIndexHTML bool
}

// Develop reports whether this is a develop build.
func (c Context) Develop() bool {
	return c.Kind == KindDevelop
}

// URL turns a slash-separated output path, relative to the output root, into an absolute URL.
// With TrimIndexHTML set, a trailing "/index.html" is dropped from the URL.
func (c Context) URL(path string) string {
	url := c.BaseURL
	if path = strings.Trim(path, "/"); path != "" {
		url += "/" + path
	}
	if c.TrimIndexHTML {
		url = strings.TrimSuffix(url, "/index.html")
	}
	return url
}
