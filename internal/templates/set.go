package templates

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"sort"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
	"github.com/tomcur/sprokkel/internal/source"
)

// Set is the parsed template tree of one build. The parsed base is never executed; every
// evaluation runs on its own clone, so a Set is safe for concurrent use.
type Set struct {
	base        *template.Template
	site        site.Context
	descriptors map[string]Descriptor
}

// Load reads and parses every template file. Each template is addressable by its slash path,
// for example {{ template "_partials/head.html" . }}.
func Load(files []source.File, sc site.Context) (*Set, error) {
	s := &Set{
		base:        template.New("").Funcs(baseFuncs(sc)),
		site:        sc,
		descriptors: make(map[string]Descriptor, len(files)),
	}
	for _, f := range files {
		// #nosec G304 -- path comes from the site scan.
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, foundationerrors.ScanError("failed to read template").
				WithCause(err).
				WithContext("template", f.RelPath).
				Build()
		}
		if err := s.add(f.RelPath, string(data)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Parse builds a Set from in-memory sources keyed by name.
func Parse(sources map[string]string, sc site.Context) (*Set, error) {
	s := &Set{
		base:        template.New("").Funcs(baseFuncs(sc)),
		site:        sc,
		descriptors: make(map[string]Descriptor, len(sources)),
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.add(name, sources[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) add(name, text string) error {
	if _, err := s.base.New(name).Parse(text); err != nil {
		return foundationerrors.TemplateError("failed to parse template").
			Fatal().
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	s.descriptors[name] = Describe(name)
	return nil
}

// Site returns the URL context the set was loaded with.
func (s *Set) Site() site.Context {
	return s.site
}

// Has reports whether a template with this name exists.
func (s *Set) Has(name string) bool {
	_, ok := s.descriptors[name]
	return ok
}

// Pages returns the page templates in name order.
func (s *Set) Pages() []Descriptor {
	var out []Descriptor
	for _, d := range s.descriptors {
		if d.Kind == KindPage {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EntryTemplate picks the template for a group: _<group>.html, else _entry.html.
func (s *Set) EntryTemplate(group string) (string, error) {
	if name := GroupTemplate(group); s.Has(name) {
		return name, nil
	}
	if s.Has(FallbackTemplate) {
		return FallbackTemplate, nil
	}
	return "", foundationerrors.TemplateError("no template for group and fallback template is missing").
		Fatal().
		WithContext("group", group).
		WithContext("template", FallbackTemplate).
		Build()
}

// Discovery is the result of a page template's first evaluation.
type Discovery struct {
	// Output is set when the template never called paginate.
	Output    []byte
	Paginated bool
	Decision  Decision
}

// Discover evaluates a page template once. If it calls paginate, evaluation stops, the partial
// output is discarded and the pagination decision is returned.
func (s *Set) Discover(name string, data any) (*Discovery, error) {
	p := newDiscoveryPaginator()
	out, err := s.execute(name, data, p)
	if p.decided() {
		return &Discovery{Paginated: true, Decision: p.decision}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Discovery{Output: out}, nil
}

// RenderPage evaluates a page template for one decided page.
func (s *Set) RenderPage(name string, data any, page Page) ([]byte, error) {
	p := newPagePaginator(page)
	out, err := s.execute(name, data, p)
	if err != nil {
		return nil, err
	}
	p.finish()
	return out, nil
}

// Render evaluates a template without pagination, as used for entries.
func (s *Set) Render(name string, data any) ([]byte, error) {
	return s.execute(name, data, &paginator{state: stateDisabled})
}

func (s *Set) execute(name string, data any, p *paginator) ([]byte, error) {
	clone, err := s.base.Clone()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to clone templates").Build()
	}
	clone.Funcs(template.FuncMap{"paginate": p.paginate})

	t := clone.Lookup(name)
	if t == nil {
		return nil, foundationerrors.TemplateError("template not found").
			WithContext("template", name).
			Build()
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		if errors.Is(err, errPaginationDecided) {
			return nil, err
		}
		if classified, ok := foundationerrors.AsClassified(err); ok {
			return nil, classified.WithContext("template", name)
		}
		return nil, foundationerrors.TemplateError("failed to execute template").
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	return buf.Bytes(), nil
}
