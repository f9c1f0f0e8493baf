// Package config defines the settings shared by the alarm binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the daemon gRPC address, persistence backend, alert
// timeouts and presentation options.
package config
