package lua

import "errors"

// Errors for Lua state and command operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrUnknownCommand is returned when no script registered the command.
	ErrUnknownCommand = errors.New("unknown lua command")

	// ErrInvalidCommand is returned when a command definition is malformed.
	ErrInvalidCommand = errors.New("invalid lua command")
)
