package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time. When empty the VCS
	// revision recorded by the Go toolchain is used.
	Commit = ""
	// BuildTime is the UTC build timestamp embedded at build time. When empty
	// the VCS commit time is used.
	BuildTime = ""
)

// shortCommitLength is how many characters of a VCS revision are shown.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and platform.
func Full() string {
	commit, builtAt := buildInfo()

	return fmt.Sprintf(
		"alarm-clock %s (commit: %s, built at: %s, %s, %s/%s)",
		Version,
		commit,
		builtAt,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// buildInfo resolves the commit and the build time, preferring ldflags values.
func buildInfo() (string, string) {
	commit, builtAt := Commit, BuildTime

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "" {
					commit = setting.Value
				}
			case "vcs.time":
				if builtAt == "" {
					builtAt = setting.Value
				}
			}
		}
	}

	if len(commit) > shortCommitLength {
		commit = commit[:shortCommitLength]
	}

	if commit == "" {
		commit = "none"
	}

	if builtAt == "" {
		builtAt = "unknown"
	}

	return commit, builtAt
}
