// Package graph indexes parsed entries, resolves their internal links and records which
// entries refer to which. A Graph is immutable once Build returns.
package graph

import (
	"context"
	"log/slog"
	"slices"
	"sort"

	"github.com/tomcur/sprokkel/internal/content"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/markup"
)

// Group is a named set of entries ordered by sort key.
type Group struct {
	Name    string
	Entries []*content.Entry
}

// Options controls graph construction.
type Options struct {
	// ReleasedOnly drops entries without a release flag before indexing.
	ReleasedOnly bool
	Logger       *slog.Logger
}

// Graph is the cross-entry view of a build.
type Graph struct {
	groups      []Group
	byName      map[string]*Group
	byCanonical map[string]*content.Entry
	bySlug      map[slugKey]*content.Entry
	order       map[*content.Entry]int
	links       map[string]string
	backRefs    map[string][]*content.Entry
}

type slugKey struct {
	group string
	slug  string
}

// Build filters, indexes and links entries. Every unresolved link in the corpus is reported in
// a single BuildFailure.
func Build(ctx context.Context, entries []*content.Entry, opts Options) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kept := entries
	if opts.ReleasedOnly {
		kept = make([]*content.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Released {
				kept = append(kept, e)
			}
		}
		if dropped := len(entries) - len(kept); dropped > 0 {
			logger.Info("Filtered out unreleased entries", logfields.Count(dropped))
		}
	}

	g := &Graph{
		byName:      make(map[string]*Group),
		byCanonical: make(map[string]*content.Entry, len(kept)),
		bySlug:      make(map[slugKey]*content.Entry, len(kept)),
		order:       make(map[*content.Entry]int, len(kept)),
		links:       make(map[string]string),
		backRefs:    make(map[string][]*content.Entry),
	}

	if err := g.index(kept); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.resolve(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) index(entries []*content.Entry) error {
	var errs []error
	grouped := make(map[string][]*content.Entry)
	for _, e := range entries {
		if prev, ok := g.byCanonical[e.CanonicalName]; ok {
			errs = append(errs, foundationerrors.BuildError("duplicate canonical name").OnChange().
				WithContext("canonical", e.CanonicalName).
				WithContext("path", e.RelPath).
				WithContext("other", prev.RelPath).
				Build())
			continue
		}
		key := slugKey{group: e.Group, slug: e.Slug}
		if prev, ok := g.bySlug[key]; ok {
			errs = append(errs, foundationerrors.BuildError("duplicate slug in group").OnChange().
				WithContext("group", e.Group).
				WithContext("slug", e.Slug).
				WithContext("path", e.RelPath).
				WithContext("other", prev.RelPath).
				Build())
			continue
		}
		g.byCanonical[e.CanonicalName] = e
		g.bySlug[key] = e
		grouped[e.Group] = append(grouped[e.Group], e)
	}
	if len(errs) > 0 {
		return foundationerrors.NewBuildFailure(errs...)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	g.groups = make([]Group, 0, len(names))
	for _, name := range names {
		members := grouped[name]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].SortKey < members[j].SortKey
		})
		g.groups = append(g.groups, Group{Name: name, Entries: members})
	}
	for i := range g.groups {
		g.byName[g.groups[i].Name] = &g.groups[i]
	}

	n := 0
	for _, grp := range g.groups {
		for _, e := range grp.Entries {
			g.order[e] = n
			n++
		}
	}
	return nil
}

func (g *Graph) resolve() error {
	var errs []error
	seen := make(map[string]map[string]bool)
	for _, grp := range g.groups {
		for _, source := range grp.Entries {
			for _, raw := range source.Links() {
				canonical, anchor, _ := markup.SplitInternalLink(raw)
				target, ok := g.byCanonical[canonical]
				if !ok {
					errs = append(errs, foundationerrors.LinkError("unresolved internal link").
						WithContext("path", source.RelPath).
						WithContext("source", source.CanonicalName).
						WithContext("target", raw).
						Build())
					continue
				}
				g.links[raw] = target.Permalink + anchor

				if seen[target.CanonicalName] == nil {
					seen[target.CanonicalName] = make(map[string]bool)
				}
				if !seen[target.CanonicalName][source.CanonicalName] {
					seen[target.CanonicalName][source.CanonicalName] = true
					g.backRefs[target.CanonicalName] = append(g.backRefs[target.CanonicalName], source)
				}
			}
		}
	}
	if len(errs) > 0 {
		return foundationerrors.NewBuildFailure(errs...)
	}
	for _, refs := range g.backRefs {
		slices.SortFunc(refs, func(a, b *content.Entry) int {
			return g.order[a] - g.order[b]
		})
	}
	return nil
}

// Groups returns the groups in name order.
func (g *Graph) Groups() []Group {
	return g.groups
}

// Group returns the named group.
func (g *Graph) Group(name string) (Group, bool) {
	grp, ok := g.byName[name]
	if !ok {
		return Group{}, false
	}
	return *grp, true
}

// Entries returns every entry in corpus order: groups by name, entries by sort key.
func (g *Graph) Entries() []*content.Entry {
	out := make([]*content.Entry, 0, len(g.order))
	for _, grp := range g.groups {
		out = append(out, grp.Entries...)
	}
	return out
}

// Len returns the number of entries in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Entry looks up an entry by canonical name.
func (g *Graph) Entry(canonical string) (*content.Entry, bool) {
	e, ok := g.byCanonical[canonical]
	return e, ok
}

// Links returns the resolved link table, keyed on the raw target as written.
func (g *Graph) Links() map[string]string {
	return g.links
}

// BackReferences returns the entries linking to canonical, in corpus order.
func (g *Graph) BackReferences(canonical string) []*content.Entry {
	return g.backRefs[canonical]
}
