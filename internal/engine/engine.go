package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/undotree/internal/engine/history"
	"github.com/dshills/undotree/internal/engine/transaction"
)

var tracer = otel.Tracer("undotree.engine")

// Re-export commonly used types for convenience.
type (
	// NodeID identifies a node in the engine's history.
	NodeID = history.NodeID

	// Command is an undoable edit command.
	Command = history.Command
)

// NoNode is the root boundary: the document as it was before any recorded
// edit.
const NoNode = history.NoNode

// Engine is a text document that owns its undo history. Every change goes
// through Apply, which groups the change into one history node and records
// the selection before and after it.
//
// All operations are thread-safe. History returns the underlying history
// for read-only inspection; callers must not use it concurrently with the
// engine.
type Engine struct {
	mu sync.RWMutex

	id      uuid.UUID
	doc     *document
	history *history.History

	logger        *slog.Logger
	historyLogger *slog.Logger
	tracer        trace.Tracer

	historyObservers  []history.Observer
	txObserver        transaction.Observer
	compressThreshold int
	readOnly          bool
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:                uuid.New(),
		doc:               &document{},
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:            tracer,
		compressThreshold: transaction.DefaultCompressThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With(slog.String("document", e.id.String()))
	hlog := e.logger
	if e.historyLogger != nil {
		hlog = e.historyLogger.With(slog.String("document", e.id.String()))
	}
	hopts := []history.Option{history.WithLogger(hlog)}
	for _, o := range e.historyObservers {
		hopts = append(hopts, history.WithObserver(o))
	}
	e.history = history.New(hopts...)
	return e
}

// ID returns the document's unique id.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full document content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.text
}

// Len returns the document length in bytes.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.doc.text)
}

// Selection returns the current selection.
func (e *Engine) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.sel
}

// IsReadOnly returns true if the engine rejects edits.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// History returns the engine's history.
func (e *Engine) History() *history.History {
	return e.history
}

// ============================================================================
// Write Operations
// ============================================================================

// Apply runs fn as one undoable step labelled label. Everything fn does
// through the Edit handle becomes a single history node. If fn returns an
// error or panics, every change it made is rolled back and nothing is
// recorded. Apply returns NoNode when fn made no changes.
func (e *Engine) Apply(ctx context.Context, label string, fn func(*Edit) error) (NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "engine.Apply",
		trace.WithAttributes(
			attribute.String("document", e.id.String()),
			attribute.String("label", label),
		))
	defer span.End()

	if e.readOnly {
		span.SetStatus(codes.Error, ErrReadOnly.Error())
		return NoNode, ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context canceled")
		return NoNode, err
	}

	opts := []transaction.Option{
		transaction.WithContext(selectionContext{doc: e.doc}),
		transaction.WithLogger(e.logger),
		transaction.WithCompressThreshold(e.compressThreshold),
	}
	if e.txObserver != nil {
		opts = append(opts, transaction.WithObserver(e.txObserver))
	}

	id, err := transaction.Run(e.history, label, func(tx *transaction.Transaction) error {
		span.SetAttributes(attribute.String("transaction", tx.ID().String()))
		return fn(&Edit{ctx: ctx, doc: e.doc, tx: tx})
	}, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return NoNode, err
	}

	span.SetAttributes(attribute.Int("node", int(id)))
	span.SetStatus(codes.Ok, "")
	return id, nil
}

// Insert inserts text at offset as its own undoable step.
func (e *Engine) Insert(ctx context.Context, offset int, text string) (NodeID, error) {
	return e.Apply(ctx, "Insert", func(ed *Edit) error {
		return ed.Insert(offset, text)
	})
}

// Delete removes the range [from, to) as its own undoable step.
func (e *Engine) Delete(ctx context.Context, from, to int) (NodeID, error) {
	return e.Apply(ctx, "Delete", func(ed *Edit) error {
		return ed.Delete(from, to)
	})
}

// Replace replaces the range [from, to) with text as one undoable step.
func (e *Engine) Replace(ctx context.Context, from, to int, text string) (NodeID, error) {
	return e.Apply(ctx, "Replace", func(ed *Edit) error {
		return ed.Replace(from, to, text)
	})
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverts the most recent live step. Like the other history moves it
// returns ErrReadOnly on a read-only engine.
func (e *Engine) Undo(ctx context.Context) error {
	return e.move(ctx, "engine.Undo", func() error { return e.history.Undo() })
}

// Redo re-applies the step the current node's redo pointer names.
func (e *Engine) Redo(ctx context.Context) error {
	return e.move(ctx, "engine.Redo", func() error { return e.history.Redo() })
}

// GoTo moves the document to the state recorded at id, undoing and redoing
// across branches as needed. GoTo(ctx, NoNode) undoes everything.
func (e *Engine) GoTo(ctx context.Context, id NodeID) error {
	return e.move(ctx, "engine.GoTo", func() error { return e.history.MoveTo(id) })
}

func (e *Engine) move(ctx context.Context, name string, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, span := e.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("document", e.id.String()),
			attribute.Int("from", int(e.history.Current())),
		))
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context canceled")
		return err
	}
	if e.readOnly {
		span.SetStatus(codes.Error, ErrReadOnly.Error())
		return ErrReadOnly
	}
	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("to", int(e.history.Current())))
	span.SetStatus(codes.Ok, "")
	return nil
}

// CanUndo returns true if there is a step to undo.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

// CanRedo returns true if there is a step to redo.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// Current returns the history node matching the live document.
func (e *Engine) Current() NodeID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Current()
}

// ClearRedo discards every step that could still be redone.
func (e *Engine) ClearRedo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	e.history.ClearRedo()
	return nil
}

// ClearHistory drops all history. The document text is kept.
func (e *Engine) ClearHistory() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	e.history.Clear()
	return nil
}

// MarkSaved records the live document as the saved one.
func (e *Engine) MarkSaved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.MarkSaved()
}

// IsModified returns true if the document differs from the last saved one.
func (e *Engine) IsModified() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.IsModified()
}
