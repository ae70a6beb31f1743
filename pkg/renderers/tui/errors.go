package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCancelled is returned when the user chose to stop after a failed
	// submission. The submission error is wrapped alongside it.
	ErrCancelled = errors.New("tui: cancelled")
	// ErrStepMismatch is returned when a wizard and its definition disagree
	// on the number of steps.
	ErrStepMismatch = errors.New("tui: wizard steps do not match the definition")
)
