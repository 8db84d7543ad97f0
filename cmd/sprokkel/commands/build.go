package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomcur/sprokkel/internal/build"
	"github.com/tomcur/sprokkel/internal/config"
	"github.com/tomcur/sprokkel/internal/events"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/site"
	"github.com/tomcur/sprokkel/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Path            string        `arg:"" optional:"" default:"./" type:"existingdir" help:"Site root containing sprokkel.toml"`
	Watch           bool          `short:"w" help:"Keep running and rebuild when sources change"`
	Develop         bool          `short:"d" help:"Build unreleased entries too and use base-url-develop"`
	Jobs            int           `short:"j" help:"Number of render workers (default: number of CPUs)"`
	MetricsFile     string        `name:"metrics-file" type:"path" help:"Write Prometheus metrics in text format to this file after each build"`
	RebuildInterval time.Duration `name:"rebuild-interval" help:"In watch mode, also rebuild at this interval"`
}

// validate checks flag combinations kong cannot express. It runs inside Run so usage errors
// get the validation exit code.
func (c *BuildCmd) validate() error {
	if c.Jobs < 0 {
		return foundationerrors.ValidationError("--jobs must not be negative").Build()
	}
	if c.RebuildInterval != 0 && !c.Watch {
		return foundationerrors.ValidationError("--rebuild-interval requires --watch").Build()
	}
	if c.RebuildInterval < 0 {
		return foundationerrors.ValidationError("--rebuild-interval must be positive").Build()
	}
	return nil
}

func (c *BuildCmd) Run(g *Global, root *CLI) error {
	if err := c.validate(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		prom     *metrics.PrometheusRecorder
	)
	if c.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	kind := site.KindRelease
	if c.Develop {
		kind = site.KindDevelop
	}
	builder := build.New(build.Options{
		Root:     c.Path,
		Kind:     kind,
		Jobs:     c.Jobs,
		Recorder: recorder,
		Logger:   g.Logger,
	})
	runBuild := func(ctx context.Context) (*build.Report, error) {
		report, err := builder.Build(ctx)
		if prom != nil {
			if werr := prom.WriteTextfile(c.MetricsFile); werr != nil {
				g.Logger.Warn("Failed to write metrics file", logfields.Path(c.MetricsFile), logfields.Error(werr))
			}
		}
		return report, err
	}

	out := newPrinter(os.Stdout, foundationerrors.NewCLIErrorAdapter(root.Verbose, g.Logger))
	if !c.Watch {
		report, err := runBuild(ctx)
		out.report(report, err)
		return err
	}

	dir := builder.OutputDir()
	err := watch.Run(ctx, watch.Options{
		Root:            c.Path,
		Exclude:         []string{dir, dir + build.StageSuffix, dir + build.PrevSuffix},
		Ignore:          ignorePatterns(c.Path, g.Logger),
		Build:           runBuild,
		RebuildInterval: c.RebuildInterval,
		OnFinish: func(evt events.BuildFinished) {
			out.finished(evt)
		},
	})
	if err != nil {
		return err
	}
	g.Logger.Info("Stopped watching")
	return nil
}

// ignorePatterns returns the site's ignore globs for the watcher. The list is read once when
// watching starts; an invalid config is reported by the first build, so it only yields none.
func ignorePatterns(root string, logger *slog.Logger) []string {
	cfg, err := config.Load(root)
	if err != nil {
		logger.Debug("Watching without ignore globs", logfields.Error(err))
		return nil
	}
	return cfg.Ignore
}
