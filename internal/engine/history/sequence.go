package history

import (
	"errors"
	"fmt"
)

// SequenceOverhead is the fixed size a Sequence adds on top of its children.
const SequenceOverhead = 48

// Sequence is an ordered composite of commands. Children execute and redo
// in append order and undo in reverse order. A Sequence owns its children:
// disposing it disposes them.
type Sequence struct {
	name     string
	commands []Command
}

// NewSequence creates a sequence with the given label and children.
func NewSequence(name string, cmds ...Command) *Sequence {
	return &Sequence{name: name, commands: cmds}
}

// Add appends a child without executing it.
func (s *Sequence) Add(cmd Command) {
	s.commands = append(s.commands, cmd)
}

// Len returns the number of children.
func (s *Sequence) Len() int {
	return len(s.commands)
}

// IsEmpty returns true if the sequence has no children.
func (s *Sequence) IsEmpty() bool {
	return len(s.commands) == 0
}

// Commands returns the children in append order. The slice must not be
// modified.
func (s *Sequence) Commands() []Command {
	return s.commands
}

// Execute runs all children in order and stops at the first failure. The
// children executed before the failure are undone in reverse order, so a
// failed Execute leaves no effects behind.
func (s *Sequence) Execute() error {
	for i, cmd := range s.commands {
		if err := cmd.Execute(); err != nil {
			return s.unwind(i, &ExecutionError{Op: "execute", Label: s.Label(), Index: i, Err: err})
		}
	}
	return nil
}

// Undo reverses all children in reverse order.
func (s *Sequence) Undo() error {
	for i := len(s.commands) - 1; i >= 0; i-- {
		if err := s.commands[i].Undo(); err != nil {
			return &ExecutionError{Op: "undo", Label: s.Label(), Index: i, Err: err}
		}
	}
	return nil
}

// Redo re-applies all children in order. Like Execute, a failure undoes the
// children already redone.
func (s *Sequence) Redo() error {
	for i, cmd := range s.commands {
		if err := cmd.Redo(); err != nil {
			return s.unwind(i, &ExecutionError{Op: "redo", Label: s.Label(), Index: i, Err: err})
		}
	}
	return nil
}

// unwind undoes the first n children, last first, and returns cause joined
// with any undo failures.
func (s *Sequence) unwind(n int, cause error) error {
	errs := []error{cause}
	for i := n - 1; i >= 0; i-- {
		if err := s.commands[i].Undo(); err != nil {
			errs = append(errs, &ExecutionError{Op: "undo", Label: s.Label(), Index: i, Err: err})
		}
	}
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

// Label returns the sequence's name, or a description derived from its
// children.
func (s *Sequence) Label() string {
	if s.name != "" {
		return s.name
	}
	if len(s.commands) == 1 {
		return s.commands[0].Label()
	}
	return fmt.Sprintf("%d operations", len(s.commands))
}

// MemorySize returns SequenceOverhead plus the size of every child.
func (s *Sequence) MemorySize() int {
	size := SequenceOverhead
	for _, cmd := range s.commands {
		size += cmd.MemorySize()
	}
	return size
}

// ChangesSavedState reports whether any child dirties the document.
func (s *Sequence) ChangesSavedState() bool {
	for _, cmd := range s.commands {
		if cmd.ChangesSavedState() {
			return true
		}
	}
	return false
}

// Dispose disposes every child that implements Disposer, last first.
func (s *Sequence) Dispose() {
	for i := len(s.commands) - 1; i >= 0; i-- {
		if d, ok := s.commands[i].(Disposer); ok {
			d.Dispose()
		}
	}
	s.commands = nil
}
