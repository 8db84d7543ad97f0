// Package commands implements the sprokkel command line.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the command line grammar.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site, optionally rebuilding on every change"`
}

// AfterApply runs after flag parsing; it sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
