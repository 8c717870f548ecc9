package transaction

import "errors"

// Errors returned by transaction operations.
var (
	// ErrClosed is returned when adding to or committing a transaction that
	// was already committed or closed.
	ErrClosed = errors.New("transaction is closed")

	// ErrNilCommand is returned by Add when given a nil command.
	ErrNilCommand = errors.New("nil command")
)
