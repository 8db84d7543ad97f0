package build

import (
	"bytes"
	"context"
	"os"
	"path"

	"golang.org/x/sync/errgroup"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/observability"
	"github.com/tomcur/sprokkel/internal/source"
)

// stageAssets copies assets/** to the output root, writes one concatenated file per cat/
// leaf, copies entry directory files next to their entry and, when configured, writes the
// highlighting stylesheet.
func stageAssets(ctx context.Context, st *buildState) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.builder.opts.Jobs)

	copyTo := func(src, rel string) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := st.staging.CopyFile(src, rel); err != nil {
				return err
			}
			st.assetsWritten.Add(1)
			return nil
		})
	}

	for _, f := range st.inventory.Assets {
		copyTo(f.Path, f.RelPath)
	}
	for _, e := range st.graph.Entries() {
		for _, f := range e.Assets {
			copyTo(f.Path, path.Join(e.OutAssetDir, f.RelPath))
		}
	}
	for _, leaf := range st.inventory.CatLeaves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := writeCatLeaf(st, leaf); err != nil {
				return err
			}
			st.assetsWritten.Add(1)
			return nil
		})
	}
	if css := st.cfg.Highlight.CSSFile; css != "" {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := st.highlighter.WriteCSS(&buf); err != nil {
				return err
			}
			if err := st.staging.WriteFile(css, "highlight.css-file", buf.Bytes()); err != nil {
				return err
			}
			st.assetsWritten.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	observability.DebugContext(ctx, "Assets written", logfields.Count(int(st.assetsWritten.Load())))
	return nil
}

// writeCatLeaf concatenates the files of a cat/ leaf, in name order, into one output file
// named after the leaf directory.
func writeCatLeaf(st *buildState, leaf source.CatLeaf) error {
	var buf bytes.Buffer
	for _, p := range leaf.Files {
		// #nosec G304 -- path comes from the site scan.
		data, err := os.ReadFile(p)
		if err != nil {
			return foundationerrors.ScanError("failed to read cat file").WithCause(err).WithContext("path", p).Build()
		}
		buf.Write(data)
	}
	return st.staging.WriteFile(leaf.RelDir, path.Join(source.CatDir, leaf.RelDir), buf.Bytes())
}
