// Package scheduler implements the one-shot delivery primitive of the alarm
// daemon. A Timer keeps at most one pending request and hands its payload to
// the registered handler once the wall clock reaches the requested instant.
package scheduler
