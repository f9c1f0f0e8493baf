package alarm

import "errors"

var (
	// ErrUnschedulable is returned when no candidate day matches the weekday set.
	// It signals a defect in the input rather than a user mistake.
	ErrUnschedulable = errors.New("could not set alarm")
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid alarm configuration")
	// ErrPermissionDenied is returned when a capability gate rejects an operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPlaybackFailure is returned when the sound resource cannot be played.
	ErrPlaybackFailure = errors.New("sound playback failed")
	// ErrPresentationSuppressed is returned when the alert surface is blocked by the host.
	ErrPresentationSuppressed = errors.New("alert presentation suppressed")
)
