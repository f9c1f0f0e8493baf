// Package power keeps the host awake while an alarm alert is live.
//
// Detect picks the wake capability of the current operating system once at
// startup: an inhibitor process on Linux and macOS, a no-op elsewhere. Every
// grant is bounded by its own timeout, so it ends even if the daemon dies.
package power
