package transaction

import (
	"log/slog"

	"github.com/dshills/undotree/internal/engine/history"
)

// Committed is the command a transaction records in history. Undo restores
// the context captured before the transaction and Redo the one captured
// after it. A failed context restore is logged and does not fail the step.
type Committed struct {
	label        string
	seq          *history.Sequence
	snapshots    *snapshots
	changesSaved bool
	restorer     ContextRestorer
	logger       *slog.Logger
}

// Execute does nothing; the children already ran inside the transaction.
func (c *Committed) Execute() error {
	return nil
}

func (c *Committed) Undo() error {
	if err := c.seq.Undo(); err != nil {
		return err
	}
	c.restore(c.snapshots.before)
	return nil
}

func (c *Committed) Redo() error {
	if err := c.seq.Redo(); err != nil {
		return err
	}
	c.restore(c.snapshots.after)
	return nil
}

func (c *Committed) restore(s Snapshot) {
	if c.restorer == nil || s.IsEmpty() {
		return
	}
	if err := c.restorer.RestoreSelection(s); err != nil {
		c.logger.Warn("restore context", slog.Any("error", err))
	}
}

func (c *Committed) Label() string {
	return c.label
}

// MemorySize counts the children and both context snapshots.
func (c *Committed) MemorySize() int {
	return c.seq.MemorySize() + c.snapshots.before.MemorySize() + c.snapshots.after.MemorySize()
}

func (c *Committed) ChangesSavedState() bool {
	return c.changesSaved && c.seq.ChangesSavedState()
}

// Dispose releases the children.
func (c *Committed) Dispose() {
	c.seq.Dispose()
}

// Commands returns the recorded children in execution order.
func (c *Committed) Commands() []history.Command {
	return c.seq.Commands()
}

// Before returns the context captured before the transaction.
func (c *Committed) Before() Snapshot {
	return c.snapshots.before
}

// After returns the context captured after the transaction.
func (c *Committed) After() Snapshot {
	return c.snapshots.after
}
