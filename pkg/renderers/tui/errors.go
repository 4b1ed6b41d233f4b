package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned when a runner is built without a session.
	ErrNoSession = errors.New("tui: session is required")
	// ErrNothingToEdit is reported when the form has no question of the
	// requested kind.
	ErrNothingToEdit = errors.New("tui: nothing to edit")
)
