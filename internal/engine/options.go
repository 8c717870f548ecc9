package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/undotree/internal/engine/history"
	"github.com/dshills/undotree/internal/engine/transaction"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine. Initial content is not
// an undoable edit.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.doc.text = content
	}
}

// WithLogger sets the logger shared by the engine, its history and its
// transactions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHistoryLogger sets a separate logger for history moves and prunes.
// It defaults to the engine logger.
func WithHistoryLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.historyLogger = logger
	}
}

// WithTracer replaces the package tracer, which otherwise comes from the
// global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithHistoryObserver registers an observer on the engine's history.
func WithHistoryObserver(o history.Observer) Option {
	return func(e *Engine) {
		e.historyObservers = append(e.historyObservers, o)
	}
}

// WithTransactionObserver registers an observer for every transaction the
// engine opens.
func WithTransactionObserver(o transaction.Observer) Option {
	return func(e *Engine) {
		e.txObserver = o
	}
}

// WithCompressThreshold sets the selection snapshot size above which
// snapshots are compressed. Zero or less disables compression.
func WithCompressThreshold(n int) Option {
	return func(e *Engine) {
		e.compressThreshold = n
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
