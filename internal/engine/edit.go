package engine

import (
	"context"

	"github.com/dshills/undotree/internal/engine/history"
	"github.com/dshills/undotree/internal/engine/transaction"
)

// Edit is the handle Apply passes to its callback. Each call executes a
// command immediately inside the open transaction. An Edit must not be used
// after the callback returns.
type Edit struct {
	ctx context.Context
	doc *document
	tx  *transaction.Transaction
}

// Context returns the context Apply was called with.
func (ed *Edit) Context() context.Context {
	return ed.ctx
}

// Text returns the document text as the transaction has left it so far.
func (ed *Edit) Text() string {
	return ed.doc.text
}

// Selection returns the current selection.
func (ed *Edit) Selection() Selection {
	return ed.doc.sel
}

// Insert inserts text at offset. Inserting an empty string does nothing.
func (ed *Edit) Insert(offset int, text string) error {
	if text == "" {
		return ed.doc.checkOffset(offset)
	}
	return ed.tx.Add(newInsert(ed.doc, offset, text))
}

// Delete removes the range [from, to). An empty range does nothing.
func (ed *Edit) Delete(from, to int) error {
	cmd, err := newDelete(ed.doc, from, to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	return ed.tx.Add(cmd)
}

// Replace removes [from, to) and inserts text in its place.
func (ed *Edit) Replace(from, to int, text string) error {
	if err := ed.Delete(from, to); err != nil {
		return err
	}
	return ed.Insert(from, text)
}

// Select sets the selection. Selection changes do not mark the document
// modified.
func (ed *Edit) Select(anchor, head int) error {
	return ed.tx.Add(newSetSelection(ed.doc, Selection{Anchor: anchor, Head: head}))
}

// Do executes an arbitrary command as part of the step.
func (ed *Edit) Do(cmd history.Command) error {
	return ed.tx.Add(cmd)
}

// Buffer returns direct access to the document text. Commands passed to Do
// use it to implement their own execute and undo; changes made through it
// are not recorded on their own. The Buffer stays valid after the callback
// returns, so such commands may keep it for later undo and redo.
func (ed *Edit) Buffer() *Buffer {
	return &Buffer{doc: ed.doc}
}

// Buffer is unrecorded access to a document's text.
type Buffer struct {
	doc *document
}

// Text returns the document text.
func (b *Buffer) Text() string {
	return b.doc.text
}

// Len returns the document length in bytes.
func (b *Buffer) Len() int {
	return len(b.doc.text)
}

// Insert inserts text at offset and moves the caret after it.
func (b *Buffer) Insert(offset int, text string) error {
	return newInsert(b.doc, offset, text).insert()
}

// Delete removes [from, to) and moves the caret to from.
func (b *Buffer) Delete(from, to int) error {
	if err := b.doc.checkRange(from, to); err != nil {
		return err
	}
	return newInsert(b.doc, from, b.doc.text[from:to]).remove()
}
