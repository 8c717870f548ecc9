// Package engine provides a text document with a branching undo history.
//
// The engine package is the facade over its sub-packages:
//
//   - history: commands, the branching history tree and saved-state tracking
//   - transaction: grouping several commands into one undoable step, with
//     rollback and selection snapshots
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// so that reads like Text or Selection can run concurrently while edits and
// history moves are serialized.
//
// # Basic Usage
//
// Every change is made inside Apply, which records it as one step:
//
//	e := engine.New(engine.WithContent("Hello, World!"))
//
//	id, err := e.Apply(ctx, "Greet Go", func(ed *engine.Edit) error {
//		return ed.Replace(7, 12, "Go")
//	})
//	// e.Text() == "Hello, Go!"
//
//	e.Undo(ctx) // "Hello, World!"
//	e.Redo(ctx) // "Hello, Go!"
//
// Returning an error from the callback rolls back everything it did:
//
//	_, err := e.Apply(ctx, "Bad", func(ed *engine.Edit) error {
//		ed.Insert(0, "x")
//		return errors.New("changed my mind")
//	})
//	// text unchanged, nothing recorded
//
// # Branches
//
// Undoing and then editing starts a new branch; the old branch is kept.
// GoTo moves between any two recorded states:
//
//	a, _ := e.Insert(ctx, 0, "a")
//	e.Undo(ctx)
//	b, _ := e.Insert(ctx, 0, "b")
//	e.GoTo(ctx, a) // text "a"
//	e.GoTo(ctx, b) // text "b"
//
// ClearRedo discards everything that could still be redone.
//
// # Selection
//
// The selection is recorded around each step. Undoing a step restores the
// selection it started with and redoing restores the one it ended with.
// Selection changes made with Edit.Select are undoable but do not mark the
// document modified.
//
// # Observability
//
// Each Apply and each history move creates an OpenTelemetry span from the
// global tracer provider unless WithTracer overrides it. Observers passed
// with WithHistoryObserver and WithTransactionObserver see every history
// change and every commit or rollback.
package engine
