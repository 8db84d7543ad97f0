package build

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomcur/sprokkel/internal/config"
	"github.com/tomcur/sprokkel/internal/content"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/graph"
	"github.com/tomcur/sprokkel/internal/highlight"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/mathrender"
	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/observability"
	"github.com/tomcur/sprokkel/internal/site"
	"github.com/tomcur/sprokkel/internal/source"
	"github.com/tomcur/sprokkel/internal/templates"
)

// OutputDirName is the directory under the site root that receives the built site.
const OutputDirName = "out"

// Options configures a Builder.
type Options struct {
	// Root is the site root containing sprokkel.toml.
	Root string
	// Out defaults to <Root>/out.
	Out  string
	Kind site.Kind
	// Jobs is the number of render workers; zero means runtime.NumCPU().
	Jobs     int
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Builder builds one site. Concurrent Build calls are allowed; their publishes are serialized
// and a build whose context was canceled never publishes.
type Builder struct {
	opts      Options
	publishMu sync.Mutex
}

// New creates a Builder, filling in defaults.
func New(opts Options) *Builder {
	if opts.Out == "" {
		opts.Out = filepath.Join(opts.Root, OutputDirName)
	}
	if opts.Kind == "" {
		opts.Kind = site.KindRelease
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Builder{opts: opts}
}

// OutputDir returns the directory the site is published to.
func (b *Builder) OutputDir() string {
	return b.opts.Out
}

// buildState carries the products of each stage to the next.
type buildState struct {
	builder  *Builder
	report   *Report
	recorder metrics.Recorder

	cfg         *config.Config
	site        site.Context
	highlighter *highlight.Highlighter
	math        *mathrender.Renderer

	inventory *source.Inventory
	entries   []*content.Entry
	templates *templates.Set
	graph     *graph.Graph

	views   map[string]*templates.EntryView
	grouped map[string][]*templates.EntryView

	staging   *staging
	published bool

	entriesWritten atomic.Int64
	pagesWritten   atomic.Int64
	assetsWritten  atomic.Int64
}

// Build runs every stage and returns the report. The report is returned on failure too; err is
// a *BuildFailure or a single classified error.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	id := uuid.NewString()
	report := newReport(id, b.opts.Kind)

	if b.opts.Logger != nil {
		ctx = observability.WithLogger(ctx, b.opts.Logger)
	}
	ctx = observability.WithBuildID(ctx, id)
	ctx = observability.WithBuildKind(ctx, string(b.opts.Kind))

	st := &buildState{builder: b, report: report, recorder: b.opts.Recorder}
	observability.InfoContext(ctx, "Build started", logfields.Path(b.opts.Root))

	err := runStages(ctx, st, pipeline())
	if st.staging != nil && !st.published {
		st.staging.abort()
	}

	report.EntriesWritten = int(st.entriesWritten.Load())
	report.PagesWritten = int(st.pagesWritten.Load())
	report.AssetsWritten = int(st.assetsWritten.Load())
	report.finish()
	if err != nil {
		var failure *foundationerrors.BuildFailure
		if errors.As(err, &failure) {
			report.Errors = append(report.Errors, failure.Errors()...)
		} else {
			report.Errors = append(report.Errors, err)
		}
	}
	report.deriveOutcome(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))

	b.opts.Recorder.ObserveBuildDuration(report.Duration())
	b.opts.Recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))

	attrs := []slog.Attr{
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Microseconds()) / 1000),
		slog.Int("entries", report.EntriesWritten),
		slog.Int("pages", report.PagesWritten),
		slog.Int("assets", report.AssetsWritten),
	}
	switch report.Outcome {
	case OutcomeFailed:
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
	case OutcomeCanceled:
		observability.InfoContext(ctx, "Build canceled", attrs...)
	default:
		observability.InfoContext(ctx, "Build completed", append(attrs, slog.String("digest", report.Digest))...)
	}
	return report, err
}

func stageLoadConfig(ctx context.Context, st *buildState) error {
	cfg, err := config.Load(st.builder.opts.Root)
	if err != nil {
		return err
	}
	st.cfg = cfg

	baseURL := cfg.BaseURL
	if st.builder.opts.Kind == site.KindDevelop {
		baseURL = cfg.BaseURLDevelop
	}
	st.site = site.Context{
		Kind:          st.builder.opts.Kind,
		BaseURL:       baseURL,
		TrimIndexHTML: cfg.Links.Trim(),
	}
	st.highlighter = highlight.New(cfg.Highlight.Style)
	st.math = mathrender.New()
	observability.DebugContext(ctx, "Configuration loaded", slog.String("base_url", baseURL))
	return nil
}

func stageScan(ctx context.Context, st *buildState) error {
	inv, err := source.Scan(ctx, st.builder.opts.Root, source.Options{Ignore: st.cfg.Ignore})
	if err != nil {
		return err
	}
	st.inventory = inv
	return nil
}

// stageParse parses every entry in parallel and loads the templates. All parse errors are
// reported together.
func stageParse(ctx context.Context, st *buildState) error {
	parser := content.NewParser(st.site, st.highlighter, st.math)
	files := st.inventory.Entries
	entries := make([]*content.Entry, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.builder.opts.Jobs)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i], errs[i] = parser.ParseFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failure := foundationerrors.NewBuildFailure(errs...); failure != nil {
		return failure
	}
	st.entries = entries

	set, err := templates.Load(st.inventory.Templates, st.site)
	if err != nil {
		return err
	}
	st.templates = set
	observability.DebugContext(ctx, "Entries parsed", logfields.Count(len(entries)))
	return nil
}

func stageGraph(ctx context.Context, st *buildState) error {
	g, err := graph.Build(ctx, st.entries, graph.Options{
		ReleasedOnly: st.builder.opts.Kind == site.KindRelease,
		Logger:       st.builder.opts.Logger,
	})
	if err != nil {
		return err
	}
	st.graph = g
	return nil
}

func stagePublish(ctx context.Context, st *buildState) error {
	digest, files, err := st.staging.Digest()
	if err != nil {
		return err
	}

	b := st.builder
	b.publishMu.Lock()
	defer b.publishMu.Unlock()
	// Checked under the lock: a superseded build must not overwrite a newer one.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := st.staging.promote(); err != nil {
		return err
	}
	st.published = true
	st.report.Digest = digest
	st.report.Files = files

	st.recorder.AddFilesWritten(JobEntry, int(st.entriesWritten.Load()))
	st.recorder.AddFilesWritten(JobPage, int(st.pagesWritten.Load()))
	st.recorder.AddFilesWritten("asset", int(st.assetsWritten.Load()))
	observability.DebugContext(ctx, "Output published", logfields.Path(b.opts.Out), logfields.Count(len(files)))
	return nil
}
