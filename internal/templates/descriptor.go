// Package templates loads the site's html/template set and evaluates it for entries and pages,
// including the pagination state machine driven by the paginate template function.
package templates

import (
	"path"
	"strconv"
	"strings"
)

// FallbackTemplate renders entries of groups without their own template.
const FallbackTemplate = "_entry.html"

// Kind classifies a template by its path.
type Kind string

const (
	// KindPage templates produce output at their own path.
	KindPage Kind = "page"
	// KindGroup templates (_<group>.html) render the entries of one group.
	KindGroup    Kind = "group"
	KindFallback Kind = "fallback"
	// KindPartial templates are only included by other templates.
	KindPartial Kind = "partial"
)

// Descriptor describes one template file.
type Descriptor struct {
	Name string // Slash path relative to templates/
	Kind Kind
	// Group is set for KindGroup.
	Group string
	// OutputPath is set for KindPage.
	OutputPath string
}

// Describe classifies a template by name. A template is a page unless a path segment starts
// with "_".
func Describe(name string) Descriptor {
	d := Descriptor{Name: name}
	hidden := false
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, "_") {
			hidden = true
			break
		}
	}
	switch {
	case !hidden:
		d.Kind = KindPage
		d.OutputPath = name
	case name == FallbackTemplate:
		d.Kind = KindFallback
	case !strings.Contains(name, "/") && strings.HasSuffix(name, ".html"):
		d.Kind = KindGroup
		d.Group = strings.TrimSuffix(strings.TrimPrefix(name, "_"), ".html")
	default:
		d.Kind = KindPartial
	}
	return d
}

// GroupTemplate returns the name of the template rendering a group's entries.
func GroupTemplate(group string) string {
	return "_" + group + ".html"
}

// PageOutputPath returns the output path of page k (0-based) of a paginated template.
// Page 0 keeps the template's path; page k writes <name>-<k+1><ext> next to it.
func PageOutputPath(outputPath string, k int) string {
	if k == 0 {
		return outputPath
	}
	dir, file := path.Split(outputPath)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return dir + stem + "-" + strconv.Itoa(k+1) + ext
}
