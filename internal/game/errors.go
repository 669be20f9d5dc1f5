package game

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCommand is returned for blank command text.
	ErrEmptyCommand = errors.New("empty command")
	// ErrUnrecognized is returned for clause text outside the grammar.
	ErrUnrecognized = errors.New("unrecognized command")
	// ErrInvalidArgument is returned for non-positive or non-finite numbers.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownTank is returned for tank ids other than 1 and 2.
	ErrUnknownTank = errors.New("unknown tank")
	// ErrNotControllable is returned when text commands target an AI tank.
	ErrNotControllable = errors.New("tank is not controllable")
	// ErrIntakeFull is returned when the command intake buffer is full.
	ErrIntakeFull = errors.New("command intake full")
	// ErrIntakeClosed is returned after the intake has been closed.
	ErrIntakeClosed = errors.New("command intake closed")
)

// ParseError locates a failure inside a command string.
type ParseError struct {
	Clause int    // zero-based clause index, -1 for whole-command failures
	Text   string // offending clause text
	Err    error  // one of the sentinel errors above
}

func (e *ParseError) Error() string {
	if e.Clause < 0 {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse clause %d %q: %v", e.Clause+1, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
