// Package version reports the sprokkel release for --version.
package version

import "runtime/debug"

// Set through ldflags by release builds:
//
//	go build -ldflags "-X github.com/tomcur/sprokkel/internal/version.Version=v0.3.0"
var (
	Version   = ""
	GitCommit = ""
	BuildTime = ""
)

// String renders the version line printed by --version. Without ldflags it falls back to
// the module version and VCS revision recorded by the Go toolchain.
func String() string {
	version, commit, built := Version, GitCommit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "" && info.Main.Version != "" {
			version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	return "sprokkel " + orUnknown(version) + " (commit " + orUnknown(commit) + ", built " + orUnknown(built) + ")"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
