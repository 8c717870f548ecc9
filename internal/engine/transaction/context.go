package transaction

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// DefaultCompressThreshold is the snapshot size above which snapshots are
// stored compressed.
const DefaultCompressThreshold = 4096

// Selection is host UI state that can serialize itself.
type Selection interface {
	io.WriterTo
	IsEmpty() bool
}

// ContextSource exposes the host's editing context. Available reports
// whether there is an active editing context at all; it is false during
// shutdown, for example.
type ContextSource interface {
	Available() bool
	Selection() Selection
}

// ContextRestorer is optionally implemented by a ContextSource that can put
// a recorded snapshot back when a transaction is undone or redone.
type ContextRestorer interface {
	RestoreSelection(s Snapshot) error
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Snapshot is an opaque serialized copy of host context.
type Snapshot struct {
	data       []byte
	size       int
	compressed bool
}

// NewSnapshot stores data as is.
func NewSnapshot(data []byte) Snapshot {
	return Snapshot{data: bytes.Clone(data), size: len(data)}
}

func newSnapshot(data []byte, threshold int) Snapshot {
	if threshold <= 0 || len(data) <= threshold {
		return Snapshot{data: data, size: len(data)}
	}
	return Snapshot{
		data:       encoder.EncodeAll(data, make([]byte, 0, len(data)/2)),
		size:       len(data),
		compressed: true,
	}
}

// IsEmpty returns true if nothing was captured.
func (s Snapshot) IsEmpty() bool {
	return s.size == 0
}

// Len returns the uncompressed size.
func (s Snapshot) Len() int {
	return s.size
}

// IsCompressed reports whether the snapshot is stored compressed.
func (s Snapshot) IsCompressed() bool {
	return s.compressed
}

// MemorySize returns the bytes actually retained.
func (s Snapshot) MemorySize() int {
	return len(s.data)
}

// Bytes returns the uncompressed contents.
func (s Snapshot) Bytes() ([]byte, error) {
	if !s.compressed {
		return s.data, nil
	}
	out, err := decoder.DecodeAll(s.data, make([]byte, 0, s.size))
	if err != nil {
		return nil, fmt.Errorf("zstd decode snapshot: %w", err)
	}
	return out, nil
}

// Equal reports whether two snapshots hold the same contents.
func (s Snapshot) Equal(other Snapshot) bool {
	if s.size != other.size {
		return false
	}
	if s.compressed == other.compressed {
		return bytes.Equal(s.data, other.data)
	}
	a, errA := s.Bytes()
	b, errB := other.Bytes()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// capture serializes the source's selection. An unavailable source or an
// empty selection yields an empty snapshot.
func capture(src ContextSource, threshold int) (Snapshot, error) {
	if src == nil || !src.Available() {
		return Snapshot{}, nil
	}
	sel := src.Selection()
	if sel == nil || sel.IsEmpty() {
		return Snapshot{}, nil
	}
	var buf bytes.Buffer
	if _, err := sel.WriteTo(&buf); err != nil {
		return Snapshot{}, fmt.Errorf("write selection: %w", err)
	}
	return newSnapshot(buf.Bytes(), threshold), nil
}
