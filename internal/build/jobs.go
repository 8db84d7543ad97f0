package build

import (
	"context"
	"html/template"
	"strings"

	"github.com/tomcur/sprokkel/internal/content"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/linkcheck"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/markup"
	"github.com/tomcur/sprokkel/internal/observability"
	"github.com/tomcur/sprokkel/internal/templates"
)

// stageRender renders every entry body, then evaluates the entry and page templates into the
// staging directory.
func stageRender(ctx context.Context, st *buildState) error {
	entryTemplates := make(map[string]string)
	for _, g := range st.graph.Groups() {
		name, err := st.templates.EntryTemplate(g.Name)
		if err != nil {
			return err
		}
		entryTemplates[g.Name] = name
	}

	stg, err := beginStaging(st.builder.opts.Out, st.report.BuildID)
	if err != nil {
		return err
	}
	st.staging = stg
	st.recorder.SetWorkers(st.builder.opts.Jobs)

	if err := renderMarkup(ctx, st); err != nil {
		return err
	}

	p := newPool(st.builder.opts.Jobs, st.cfg.KeepGoing, st.recorder)
	for _, e := range st.graph.Entries() {
		p.Submit(entryJob(st, e, entryTemplates[e.Group]))
	}
	for _, d := range st.templates.Pages() {
		p.Submit(discoveryJob(st, d))
	}
	if err := p.Run(ctx); err != nil {
		return err
	}
	observability.DebugContext(ctx, "Templates rendered",
		logfields.Count(int(st.entriesWritten.Load()+st.pagesWritten.Load())))
	return nil
}

// renderMarkup turns every entry body into HTML, resolving internal links through the graph.
func renderMarkup(ctx context.Context, st *buildState) error {
	renderer := markup.NewRenderer(markup.RenderContext{
		Highlighter: st.highlighter,
		Math:        st.math,
		Links:       st.graph.Links(),
	})

	entries := st.graph.Entries()
	views := make([]*templates.EntryView, len(entries))
	p := newPool(st.builder.opts.Jobs, st.cfg.KeepGoing, st.recorder)
	for i, e := range entries {
		p.Submit(job{kind: JobMarkup, name: e.CanonicalName, run: func(context.Context, *pool) error {
			view, err := renderEntry(renderer, e)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		}})
	}
	if err := p.Run(ctx); err != nil {
		return err
	}

	st.views = make(map[string]*templates.EntryView, len(views))
	for _, v := range views {
		st.views[v.CanonicalName] = v
	}
	st.grouped = make(map[string][]*templates.EntryView)
	for _, g := range st.graph.Groups() {
		list := make([]*templates.EntryView, 0, len(g.Entries))
		for _, e := range g.Entries {
			list = append(list, st.views[e.CanonicalName])
		}
		st.grouped[g.Name] = list
	}
	return nil
}

func renderEntry(r *markup.Renderer, e *content.Entry) (*templates.EntryView, error) {
	doc := e.Document()
	view := &templates.EntryView{Entry: e}
	summary, err := r.Render(doc, markup.Summary)
	if err != nil {
		return nil, withEntryContext(err, e, "failed to render entry")
	}
	view.Summary = template.HTML(summary) // #nosec G203 -- produced by the markup renderer.
	if doc.HasRemainder() {
		rest, err := r.Render(doc, markup.Remainder)
		if err != nil {
			return nil, withEntryContext(err, e, "failed to render entry")
		}
		view.Remainder = template.HTML(rest) // #nosec G203 -- produced by the markup renderer.
	}
	return view, nil
}

func entryJob(st *buildState, e *content.Entry, name string) job {
	return job{kind: JobEntry, name: e.CanonicalName, run: func(ctx context.Context, _ *pool) error {
		refs := st.graph.BackReferences(e.CanonicalName)
		referring := make([]*templates.EntryView, 0, len(refs))
		for _, r := range refs {
			referring = append(referring, st.views[r.CanonicalName])
		}
		out, err := st.templates.Render(name, templates.EntryData{
			Entry:            st.views[e.CanonicalName],
			ReferringEntries: referring,
			Entries:          st.grouped,
			BaseURL:          st.site.BaseURL,
			Develop:          st.site.Develop(),
		})
		if err != nil {
			return withEntryContext(err, e, "failed to render entry template")
		}
		if err := st.staging.WriteFile(e.OutFile, e.CanonicalName, out); err != nil {
			return err
		}
		st.entriesWritten.Add(1)
		observability.DebugContext(ctx, "Rendered entry", logfields.Canonical(e.CanonicalName), logfields.Template(name))
		return nil
	}}
}

func (st *buildState) pageData() templates.PageData {
	return templates.PageData{
		Entries: st.grouped,
		BaseURL: st.site.BaseURL,
		Develop: st.site.Develop(),
	}
}

// discoveryJob evaluates a page template once. Without pagination its output is written
// directly; with pagination one page job per page is queued.
func discoveryJob(st *buildState, d templates.Descriptor) job {
	return job{kind: JobDiscovery, name: d.Name, run: func(ctx context.Context, p *pool) error {
		found, err := st.templates.Discover(d.Name, st.pageData())
		if err != nil {
			return err
		}
		if !found.Paginated {
			if err := st.staging.WriteFile(d.OutputPath, d.Name, found.Output); err != nil {
				return err
			}
			st.pagesWritten.Add(1)
			return nil
		}
		pages := templates.Pages(d.OutputPath, found.Decision, st.site)
		observability.DebugContext(ctx, "Paginated template",
			logfields.Template(d.Name),
			logfields.Count(len(pages)))
		for _, page := range pages {
			p.Submit(pageJob(st, d.Name, page))
		}
		return nil
	}}
}

func pageJob(st *buildState, name string, page templates.Page) job {
	return job{kind: JobPage, name: page.OutputPath, run: func(context.Context, *pool) error {
		out, err := st.templates.RenderPage(name, st.pageData(), page)
		if err != nil {
			if classified, ok := foundationerrors.AsClassified(err); ok {
				return classified.WithContext("page", page.Number)
			}
			return err
		}
		if err := st.staging.WriteFile(page.OutputPath, name, out); err != nil {
			return err
		}
		st.pagesWritten.Add(1)
		return nil
	}}
}

// stageVerifyAnchors checks that every internal link with an anchor points at an element that
// exists in the rendered target. Misses are warnings.
func stageVerifyAnchors(ctx context.Context, st *buildState) error {
	var links []linkcheck.Link
	for _, e := range st.graph.Entries() {
		for _, raw := range e.Links() {
			target, anchor, ok := markup.SplitInternalLink(raw)
			if !ok || anchor == "" {
				continue
			}
			links = append(links, linkcheck.Link{
				Source:     e.CanonicalName,
				SourcePath: e.RelPath,
				Target:     target,
				Anchor:     strings.TrimPrefix(anchor, "#"),
			})
		}
	}
	if len(links) == 0 {
		return nil
	}

	checker := linkcheck.NewChecker(func(canonical string) (string, bool) {
		v, ok := st.views[canonical]
		if !ok {
			return "", false
		}
		return string(v.Summary) + string(v.Remainder), true
	})
	warnings, err := checker.Missing(links)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		st.report.Warnings = append(st.report.Warnings, w)
		target, _ := w.Context().GetString("target")
		observability.WarnContext(ctx, "Link anchor not found",
			logfields.Path(pathOf(w)),
			logfields.Target(target))
	}
	return nil
}

func pathOf(err *foundationerrors.ClassifiedError) string {
	p, _ := err.Context().GetString("path")
	return p
}

// withEntryContext tags err with the entry's source path.
func withEntryContext(err error, e *content.Entry, msg string) error {
	if classified, ok := foundationerrors.AsClassified(err); ok {
		return classified.WithContext("path", e.RelPath).WithContext("canonical", e.CanonicalName)
	}
	return foundationerrors.RenderError(msg).
		WithCause(err).
		WithContext("path", e.RelPath).
		WithContext("canonical", e.CanonicalName).
		Build()
}
