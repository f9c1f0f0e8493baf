// Package common holds helpers shared by the command line tools.
//
// It provides a gRPC client wrapper for the alarm clock service that speaks
// domain types, and detects the current system actor (hostname/username)
// recorded with every arm and dismiss.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
