// Package controller owns the single alarm slot of the daemon.
//
// The Controller arms one delivery at a time, persists the configuration,
// and on delivery runs an alert session: the host is kept awake first, then
// the sound loop and the alert surfaces start side by side. A session ends on
// dismissal or when the wake timeout elapses.
package controller
