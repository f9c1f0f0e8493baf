// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - an optional rotating log file next to the console output,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Services accept a context and extract the logger from it, so the alarm
// daemon, the controller and the clients log with their own names and fields.
package logger
