package transaction

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dshills/undotree/internal/engine/history"
)

// Committer receives the command a transaction produces. *history.History
// implements it.
type Committer interface {
	Add(cmd history.Command) history.NodeID
}

// Observer is notified when transactions finish.
type Observer interface {
	OnCommit(tx *Transaction, id history.NodeID)
	OnRollback(tx *Transaction, undone int, err error)
}

// Transaction groups the commands of one user-level edit.
type Transaction struct {
	id     uuid.UUID
	target Committer
	label  string

	seq       *history.Sequence
	committed bool
	closed    bool

	changesSaved bool
	source       ContextSource
	snapshots    *snapshots
	threshold    int

	logger   *slog.Logger
	observer Observer
}

// snapshots is shared between a transaction and the command it commits, so
// UpdateAfterContext keeps working after Commit.
type snapshots struct {
	before, after Snapshot
	captured      bool
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithChangesSavedState sets whether committing dirties the document.
// Defaults to true.
func WithChangesSavedState(changes bool) Option {
	return func(t *Transaction) {
		t.changesSaved = changes
	}
}

// WithContext sets the host context recorded around the transaction.
func WithContext(src ContextSource) Option {
	return func(t *Transaction) {
		t.source = src
	}
}

// WithCompressThreshold sets the snapshot size above which snapshots are
// compressed. Zero or less disables compression.
func WithCompressThreshold(n int) Option {
	return func(t *Transaction) {
		t.threshold = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transaction) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithObserver sets an observer for commit and rollback.
func WithObserver(o Observer) Option {
	return func(t *Transaction) {
		t.observer = o
	}
}

// New opens a transaction that commits into target.
func New(target Committer, label string, opts ...Option) *Transaction {
	t := &Transaction{
		id:           uuid.New(),
		target:       target,
		label:        label,
		seq:          history.NewSequence(label),
		changesSaved: true,
		snapshots:    &snapshots{},
		threshold:    DefaultCompressThreshold,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(slog.String("tx", t.id.String()), slog.String("label", label))
	return t
}

// ID returns the transaction's unique id.
func (t *Transaction) ID() uuid.UUID {
	return t.id
}

// Label returns the label given to New.
func (t *Transaction) Label() string {
	return t.label
}

// Len returns the number of commands executed so far.
func (t *Transaction) Len() int {
	return t.seq.Len()
}

// IsCommitted reports whether Commit succeeded.
func (t *Transaction) IsCommitted() bool {
	return t.committed
}

// Before returns the context captured before the first command ran.
func (t *Transaction) Before() Snapshot {
	return t.snapshots.before
}

// After returns the context captured at commit or by UpdateAfterContext.
func (t *Transaction) After() Snapshot {
	return t.snapshots.after
}

// Add executes cmd and records it. The context snapshot is taken right
// before the first command executes. A command whose Execute fails must leave
// no effect behind; it is not recorded, and the commands before it stay
// applied until Close.
func (t *Transaction) Add(cmd history.Command) error {
	if t.committed || t.closed {
		return ErrClosed
	}
	if cmd == nil {
		return ErrNilCommand
	}

	if !t.snapshots.captured {
		t.snapshots.before = t.capture()
		t.snapshots.captured = true
	}

	if err := cmd.Execute(); err != nil {
		return &history.ExecutionError{Op: "execute", Label: cmd.Label(), Index: t.seq.Len(), Err: err}
	}
	t.seq.Add(cmd)
	return nil
}

// Commit records the executed commands in the target as one step and
// returns its node. Committing a transaction with no commands records
// nothing and returns history.NoNode. After Commit, Close does nothing.
func (t *Transaction) Commit() (history.NodeID, error) {
	if t.committed || t.closed {
		return history.NoNode, ErrClosed
	}
	t.committed = true

	if t.seq.IsEmpty() {
		t.logger.Debug("empty transaction committed")
		return history.NoNode, nil
	}

	t.snapshots.after = t.capture()

	cmd := &Committed{
		label:        t.label,
		seq:          t.seq,
		snapshots:    t.snapshots,
		changesSaved: t.changesSaved,
		logger:       t.logger,
	}
	if r, ok := t.source.(ContextRestorer); ok {
		cmd.restorer = r
	}

	id := t.target.Add(cmd)
	t.logger.Debug("transaction committed",
		slog.Int("node", int(id)),
		slog.Int("commands", t.seq.Len()))
	if t.observer != nil {
		t.observer.OnCommit(t, id)
	}
	return id, nil
}

// UpdateAfterContext re-captures the after snapshot. Use it when the host
// updates its context only after the surrounding operation finishes; it is
// valid after Commit.
func (t *Transaction) UpdateAfterContext() {
	t.snapshots.after = t.capture()
}

// Close ends the transaction. If it was not committed, every executed
// command is undone in reverse order. Undo failures do not stop the
// rollback; they are joined into the returned error. Close is meant to be
// deferred and is a no-op when called again or after Commit.
func (t *Transaction) Close() error {
	if t.committed || t.closed {
		return nil
	}
	t.closed = true

	undone, err := t.rollback()
	t.seq.Dispose()
	return t.reportRollback(undone, err)
}

// RollbackAndStartAgain undoes every executed command and leaves the
// transaction open and empty. The before snapshot is kept.
func (t *Transaction) RollbackAndStartAgain() error {
	if t.committed || t.closed {
		return ErrClosed
	}
	undone, err := t.rollback()
	t.seq.Dispose()
	t.seq = history.NewSequence(t.label)
	return t.reportRollback(undone, err)
}

func (t *Transaction) rollback() (int, error) {
	var errs []error
	cmds := t.seq.Commands()
	undone := 0
	for i := len(cmds) - 1; i >= 0; i-- {
		if err := cmds[i].Undo(); err != nil {
			errs = append(errs, &history.ExecutionError{Op: "undo", Label: cmds[i].Label(), Index: i, Err: err})
			continue
		}
		undone++
	}
	if r, ok := t.source.(ContextRestorer); ok && !t.snapshots.before.IsEmpty() {
		if err := r.RestoreSelection(t.snapshots.before); err != nil {
			t.logger.Warn("restore context after rollback", slog.Any("error", err))
		}
	}
	return undone, errors.Join(errs...)
}

func (t *Transaction) reportRollback(undone int, err error) error {
	if err != nil {
		t.logger.Error("transaction rollback incomplete",
			slog.Int("undone", undone),
			slog.Any("error", err))
	} else if undone > 0 {
		t.logger.Info("transaction rolled back", slog.Int("undone", undone))
	}
	if t.observer != nil {
		t.observer.OnRollback(t, undone, err)
	}
	return err
}

func (t *Transaction) capture() Snapshot {
	s, err := capture(t.source, t.threshold)
	if err != nil {
		t.logger.Warn("capture context", slog.Any("error", err))
		return Snapshot{}
	}
	return s
}

// Run executes fn inside a new transaction. The transaction commits if fn
// returns nil and rolls back if fn returns an error or panics; a panic
// continues after the rollback.
func Run(target Committer, label string, fn func(tx *Transaction) error, opts ...Option) (id history.NodeID, err error) {
	tx := New(target, label, opts...)
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err = fn(tx); err != nil {
		return history.NoNode, err
	}
	return tx.Commit()
}
