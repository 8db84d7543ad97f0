package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/tomcur/sprokkel/cmd/sprokkel/commands"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/version"
)

func main() {
	cli := &commands.CLI{}
	kctx := kong.Parse(cli,
		kong.Name("sprokkel"),
		kong.Description("Build a static site from entries, templates and assets."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := kctx.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
