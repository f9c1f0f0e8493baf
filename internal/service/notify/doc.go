// Package notify presents a live alarm to the user.
//
// The primary surface is an urgent desktop notification over the session
// D-Bus. The fallback is the full-screen alert window started as its own
// process. Redundant combines both, so an alert is visible even when the
// notification daemon is missing or suppresses it.
package notify
