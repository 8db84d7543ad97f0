// Package source discovers the entries, templates, assets and concatenation directories of a
// site root.
package source

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
)

// Site root directory names.
const (
	EntriesDir   = "entries"
	TemplatesDir = "templates"
	AssetsDir    = "assets"
	CatDir       = "cat"
)

// Options configures a scan.
type Options struct {
	Ignore []string
}

// Scanner walks a site root.
type Scanner struct {
	root   string
	filter *Filter
}

// NewScanner creates a scanner for root.
func NewScanner(root string, opts Options) *Scanner {
	return &Scanner{root: root, filter: NewFilter(opts.Ignore)}
}

// Scan is a convenience wrapper around NewScanner(root, opts).Scan(ctx).
func Scan(ctx context.Context, root string, opts Options) (*Inventory, error) {
	return NewScanner(root, opts).Scan(ctx)
}

// Scan discovers every input of a build. Missing class directories are treated as empty.
func (s *Scanner) Scan(ctx context.Context) (*Inventory, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryScan, "failed to resolve site root").
			Fatal().
			WithContext("path", s.root).
			Build()
	}
	inv := &Inventory{Root: root}

	if inv.Entries, err = s.scanEntries(ctx, root); err != nil {
		return nil, err
	}
	if inv.Templates, err = s.scanFiles(ctx, root, TemplatesDir); err != nil {
		return nil, err
	}
	if inv.Assets, err = s.scanFiles(ctx, root, AssetsDir); err != nil {
		return nil, err
	}
	if inv.CatLeaves, err = s.scanCat(ctx, root); err != nil {
		return nil, err
	}

	slog.Debug("Site scanned",
		logfields.Path(root),
		slog.Int("entries", len(inv.Entries)),
		slog.Int("templates", len(inv.Templates)),
		slog.Int("assets", len(inv.Assets)),
		slog.Int("cat_leaves", len(inv.CatLeaves)))
	return inv, nil
}

func (s *Scanner) scanEntries(ctx context.Context, root string) ([]EntryFile, error) {
	entriesRoot := filepath.Join(root, EntriesDir)
	groups, err := readDir(entriesRoot)
	if err != nil {
		return nil, err
	}

	var entries []EntryFile
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := path.Join(EntriesDir, g.Name())
		if s.filter.Ignored(rel) {
			continue
		}
		if !g.IsDir() {
			slog.Debug("Ignoring file outside a group directory", logfields.Path(rel))
			continue
		}
		found, err := s.scanGroup(root, g.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func (s *Scanner) scanGroup(root, group string) ([]EntryFile, error) {
	groupDir := filepath.Join(root, EntriesDir, group)
	items, err := readDir(groupDir)
	if err != nil {
		return nil, err
	}

	var entries []EntryFile
	for _, item := range items {
		name := item.Name()
		rel := path.Join(EntriesDir, group, name)
		if s.filter.Ignored(rel) {
			continue
		}

		if !item.IsDir() {
			ext := filepath.Ext(name)
			dialect, ok := DialectForExt(ext)
			if !ok {
				slog.Debug("Ignoring non-entry file", logfields.Path(rel))
				continue
			}
			entries = append(entries, EntryFile{
				Path:    filepath.Join(groupDir, name),
				RelPath: rel,
				Group:   group,
				Stem:    strings.TrimSuffix(name, ext),
				Dialect: dialect,
			})
			continue
		}

		found, err := s.scanEntryDir(groupDir, group, name)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			slog.Debug("Ignoring directory without index file", logfields.Path(rel))
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

// scanEntryDir handles entries/<group>/<dir>/index.<ext>. Every other direct file becomes an
// entry asset.
func (s *Scanner) scanEntryDir(groupDir, group, dir string) ([]EntryFile, error) {
	entryDir := filepath.Join(groupDir, dir)
	items, err := readDir(entryDir)
	if err != nil {
		return nil, err
	}

	var (
		indexes []EntryFile
		assets  []File
	)
	for _, item := range items {
		name := item.Name()
		rel := path.Join(EntriesDir, group, dir, name)
		if item.IsDir() || s.filter.Ignored(rel) {
			continue
		}
		ext := filepath.Ext(name)
		if dialect, ok := DialectForExt(ext); ok && strings.TrimSuffix(name, ext) == "index" {
			indexes = append(indexes, EntryFile{
				Path:    filepath.Join(entryDir, name),
				RelPath: rel,
				Group:   group,
				Stem:    dir,
				Dialect: dialect,
				Index:   true,
			})
			continue
		}
		assets = append(assets, File{Path: filepath.Join(entryDir, name), RelPath: name})
	}
	for i := range indexes {
		indexes[i].Assets = assets
	}
	return indexes, nil
}

// scanFiles collects every file below root/class, keyed by its slash path relative to class.
func (s *Scanner) scanFiles(ctx context.Context, root, class string) ([]File, error) {
	base := filepath.Join(root, class)
	var files []File
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == base && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return scanError(p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return scanError(p, err)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.filter.Ignored(path.Join(class, rel)) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, File{Path: p, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// scanCat finds every directory under cat/ that directly contains at least one file.
func (s *Scanner) scanCat(ctx context.Context, root string) ([]CatLeaf, error) {
	files, err := s.scanFiles(ctx, root, CatDir)
	if err != nil {
		return nil, err
	}
	byDir := make(map[string][]string)
	for _, f := range files {
		dir := path.Dir(f.RelPath)
		if dir == "." {
			// Files directly in cat/ have no output name.
			slog.Debug("Ignoring file at the top of cat/", logfields.Path(path.Join(CatDir, f.RelPath)))
			continue
		}
		byDir[dir] = append(byDir[dir], f.Path)
	}

	leaves := make([]CatLeaf, 0, len(byDir))
	for dir, paths := range byDir {
		sort.Slice(paths, func(i, j int) bool { return filepath.Base(paths[i]) < filepath.Base(paths[j]) })
		leaves = append(leaves, CatLeaf{RelDir: dir, Files: paths})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].RelDir < leaves[j].RelDir })
	return leaves, nil
}

// readDir lists a directory sorted by name. A missing directory yields no entries.
func readDir(dir string) ([]os.DirEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, scanError(dir, err)
	}
	return items, nil
}

func scanError(p string, err error) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryScan, "failed to read site directory").
		Fatal().
		WithContext("path", p).
		Build()
}
