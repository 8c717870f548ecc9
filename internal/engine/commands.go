package engine

import (
	"fmt"

	"github.com/dshills/undotree/internal/engine/history"
)

// commandOverhead approximates the fixed bytes each text command retains.
const commandOverhead = 32

// document is the mutable state every engine command edits.
type document struct {
	text string
	sel  Selection
}

func (d *document) checkOffset(at int) error {
	if at < 0 || at > len(d.text) {
		return fmt.Errorf("offset %d in document of %d bytes: %w", at, len(d.text), ErrOffsetOutOfRange)
	}
	return nil
}

func (d *document) checkRange(from, to int) error {
	if from > to {
		return fmt.Errorf("range %d..%d: %w", from, to, ErrRangeInvalid)
	}
	if err := d.checkOffset(from); err != nil {
		return err
	}
	return d.checkOffset(to)
}

// InsertCommand inserts text at a byte offset and leaves the caret after it.
// Undo removes exactly the inserted bytes.
type InsertCommand struct {
	history.Guard

	doc  *document
	at   int
	text string
}

func newInsert(doc *document, at int, text string) *InsertCommand {
	return &InsertCommand{doc: doc, at: at, text: text}
}

func (c *InsertCommand) Execute() error {
	return c.Guard.Execute(c.Label(), c.insert)
}

func (c *InsertCommand) Undo() error {
	return c.Guard.Undo(c.Label(), c.remove)
}

func (c *InsertCommand) Redo() error {
	return c.Guard.Redo(c.Label(), c.insert)
}

func (c *InsertCommand) insert() error {
	if err := c.doc.checkOffset(c.at); err != nil {
		return err
	}
	c.doc.text = c.doc.text[:c.at] + c.text + c.doc.text[c.at:]
	c.doc.sel = Caret(c.at + len(c.text))
	return nil
}

func (c *InsertCommand) remove() error {
	end := c.at + len(c.text)
	if err := c.doc.checkRange(c.at, end); err != nil {
		return err
	}
	if c.doc.text[c.at:end] != c.text {
		return fmt.Errorf("remove %q at %d: %w", c.text, c.at, ErrTextMismatch)
	}
	c.doc.text = c.doc.text[:c.at] + c.doc.text[end:]
	c.doc.sel = Caret(c.at)
	return nil
}

// Offset returns the insertion point.
func (c *InsertCommand) Offset() int { return c.at }

// Text returns the inserted text.
func (c *InsertCommand) Text() string { return c.text }

func (c *InsertCommand) Label() string {
	return "Insert"
}

func (c *InsertCommand) MemorySize() int {
	return commandOverhead + len(c.text)
}

func (c *InsertCommand) ChangesSavedState() bool {
	return true
}

// newDelete returns a command removing doc.text[from:to]. It is an insert of
// the removed text, marked as already applied, run backwards.
func newDelete(doc *document, from, to int) (history.Command, error) {
	if err := doc.checkRange(from, to); err != nil {
		return nil, err
	}
	ins := newInsert(doc, from, doc.text[from:to])
	ins.MarkDone(ins.Label())
	return history.Inverted(ins, "Delete"), nil
}

// SetSelectionCommand moves the selection. It does not dirty the document.
type SetSelectionCommand struct {
	history.Guard

	doc    *document
	before Selection
	after  Selection
}

func newSetSelection(doc *document, sel Selection) *SetSelectionCommand {
	return &SetSelectionCommand{doc: doc, after: sel}
}

func (c *SetSelectionCommand) Execute() error {
	return c.Guard.Execute(c.Label(), func() error {
		c.before = c.doc.sel
		return c.set(c.after)
	})
}

func (c *SetSelectionCommand) Undo() error {
	return c.Guard.Undo(c.Label(), func() error { return c.set(c.before) })
}

func (c *SetSelectionCommand) Redo() error {
	return c.Guard.Redo(c.Label(), func() error { return c.set(c.after) })
}

func (c *SetSelectionCommand) set(sel Selection) error {
	if !sel.within(len(c.doc.text)) {
		return fmt.Errorf("selection %s in document of %d bytes: %w", sel, len(c.doc.text), ErrOffsetOutOfRange)
	}
	c.doc.sel = sel
	return nil
}

func (c *SetSelectionCommand) Label() string {
	return "Select"
}

func (c *SetSelectionCommand) MemorySize() int {
	return commandOverhead
}

func (c *SetSelectionCommand) ChangesSavedState() bool {
	return false
}
