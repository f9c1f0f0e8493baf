// Package alert shows the full-screen alarm window started by the daemon.
//
// The window stays on top until the user presses Dismiss or closes it. Both
// ask the daemon to dismiss the alarm and then exit cleanly, which the daemon
// also reads as a dismissal.
package alert
