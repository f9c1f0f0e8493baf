// Package state implements persistence for the alarm Record.
//
// Two backends share the Repository interface: FileRepository keeps the
// record as a protobuf JSON document on disk and SQLiteRepository keeps it as
// rows of a key-value settings table. The controller resumes from either one
// after a restart.
package state
