package engine

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dshills/undotree/internal/engine/transaction"
)

// Selection is a byte range in the document. Anchor is where the selection
// started and Head is where the caret is; Head may precede Anchor.
type Selection struct {
	Anchor int
	Head   int
}

// Caret returns a collapsed selection at offset.
func Caret(offset int) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// IsCollapsed returns true if the selection is a bare caret.
func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound.
func (s Selection) Start() int {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound.
func (s Selection) End() int {
	return max(s.Anchor, s.Head)
}

func (s Selection) String() string {
	return fmt.Sprintf("%d:%d", s.Anchor, s.Head)
}

// MarshalBinary encodes the selection as two uvarints.
func (s Selection) MarshalBinary() ([]byte, error) {
	if s.Anchor < 0 || s.Head < 0 {
		return nil, ErrOffsetOutOfRange
	}
	b := binary.AppendUvarint(nil, uint64(s.Anchor))
	return binary.AppendUvarint(b, uint64(s.Head)), nil
}

// UnmarshalBinary decodes a selection written by MarshalBinary.
func (s *Selection) UnmarshalBinary(data []byte) error {
	anchor, n := binary.Uvarint(data)
	if n <= 0 {
		return fmt.Errorf("decode selection anchor: %w", io.ErrUnexpectedEOF)
	}
	head, m := binary.Uvarint(data[n:])
	if m <= 0 {
		return fmt.Errorf("decode selection head: %w", io.ErrUnexpectedEOF)
	}
	s.Anchor, s.Head = int(anchor), int(head)
	return nil
}

// within reports whether both ends lie inside a document of length n.
func (s Selection) within(n int) bool {
	return s.Anchor >= 0 && s.Head >= 0 && s.Anchor <= n && s.Head <= n
}

// selectionContext exposes a document's selection to transactions. A caret
// is still context worth restoring, so it is never empty.
type selectionContext struct {
	doc *document
}

type selectionSnapshot Selection

func (s selectionSnapshot) WriteTo(w io.Writer) (int64, error) {
	b, err := Selection(s).MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

func (selectionSnapshot) IsEmpty() bool { return false }

func (c selectionContext) Available() bool {
	return c.doc != nil
}

func (c selectionContext) Selection() transaction.Selection {
	return selectionSnapshot(c.doc.sel)
}

func (c selectionContext) RestoreSelection(s transaction.Snapshot) error {
	data, err := s.Bytes()
	if err != nil {
		return err
	}
	var sel Selection
	if err := sel.UnmarshalBinary(data); err != nil {
		return err
	}
	if !sel.within(len(c.doc.text)) {
		return fmt.Errorf("restore selection %s: %w", sel, ErrOffsetOutOfRange)
	}
	c.doc.sel = sel
	return nil
}
