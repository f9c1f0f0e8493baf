// Package client implements the alarm-set, alarm-status and alarm-dismiss
// commands.
//
// Each command connects to the alarm server, performs one request and prints
// the outcome. alarm-set starts from the configuration the server last
// confirmed, so only the changed fields need to be given.
package client
