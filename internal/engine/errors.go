package engine

import (
	"errors"

	"github.com/dshills/undotree/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the document.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates an invalid range (e.g., end < start).
	ErrRangeInvalid = errors.New("invalid range")

	// ErrTextMismatch indicates the document no longer holds the text a
	// command expects to remove.
	ErrTextMismatch = errors.New("document text does not match command")

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrNothingToUndo indicates there is no live command to undo.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates there is no command to redo.
	ErrNothingToRedo = history.ErrNothingToRedo
)
