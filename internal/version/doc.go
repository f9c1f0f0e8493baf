// Package version exposes build metadata of the alarm clock binaries.
//
// Version, Commit and BuildTime may be injected with -ldflags; missing values
// fall back to the VCS stamp of the Go toolchain.
package version
