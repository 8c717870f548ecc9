package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	// ErrNothingToUndo is returned by Undo when CanUndo is false.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when CanRedo is false.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrUnknownNode is returned when a NodeID does not name a live node.
	ErrUnknownNode = errors.New("unknown history node")
)

// ExecutionError reports that a command could not apply its forward or
// reverse effect. It wraps whatever error the command returned.
type ExecutionError struct {
	Op    string // "execute", "undo" or "redo"
	Label string // label of the failing command
	Index int    // child index inside a Sequence, -1 otherwise
	Err   error
}

func (e *ExecutionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s %q step %d: %v", e.Op, e.Label, e.Index, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Label, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ContractViolation is the panic value used when a command is driven out of
// order, e.g. Undo twice without a Redo in between. It indicates a bug in
// the caller and is never returned as an error.
type ContractViolation struct {
	Label string
	Op    string
	State string
}

func (c *ContractViolation) Error() string {
	return fmt.Sprintf("command %q: %s called in state %s", c.Label, c.Op, c.State)
}
