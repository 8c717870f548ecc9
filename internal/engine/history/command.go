package history

import "fmt"

// Command is an atomic, reversible unit of change. Implementations hold a
// reference to whatever model they edit.
type Command interface {
	// Execute applies the forward effect for the first time. A failed
	// Execute must leave no effect.
	Execute() error

	// Undo reverses the most recent Execute or Redo.
	Undo() error

	// Redo re-applies the effect after an Undo.
	Redo() error

	// Label returns a human-readable description for undo/redo menus.
	Label() string

	// MemorySize estimates the bytes retained by the command.
	MemorySize() int

	// ChangesSavedState reports whether the command dirties the document.
	ChangesSavedState() bool
}

// Disposer is implemented by commands that hold resources beyond their Go
// memory. Dispose is called once when the history drops the command.
type Disposer interface {
	Dispose()
}

// State is the position of a command in its execute/undo/redo cycle.
type State int

const (
	// StatePending means the command has not been executed yet.
	StatePending State = iota
	// StateDone means the effect is live (after Execute or Redo).
	StateDone
	// StateUndone means the effect has been reversed.
	StateUndone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDone:
		return "done"
	case StateUndone:
		return "undone"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Guard enforces the execute/undo/redo ordering for a leaf command. Embed it
// and route the three operations through it; calling an operation in the
// wrong state panics with a *ContractViolation. A failed operation leaves the
// state unchanged.
type Guard struct {
	state State
}

// State returns the current state.
func (g *Guard) State() State {
	return g.state
}

// MarkDone records that the effect is already live without running
// anything. It is used for commands that describe an edit made elsewhere,
// typically before wrapping them with Inverted.
func (g *Guard) MarkDone(label string) {
	if g.state != StatePending {
		panic(&ContractViolation{Label: label, Op: "mark done", State: g.state.String()})
	}
	g.state = StateDone
}

// Execute runs fn if the command is pending.
func (g *Guard) Execute(label string, fn func() error) error {
	return g.step(label, "execute", StatePending, StateDone, fn)
}

// Undo runs fn if the command is done.
func (g *Guard) Undo(label string, fn func() error) error {
	return g.step(label, "undo", StateDone, StateUndone, fn)
}

// Redo runs fn if the command is undone.
func (g *Guard) Redo(label string, fn func() error) error {
	return g.step(label, "redo", StateUndone, StateDone, fn)
}

func (g *Guard) step(label, op string, from, to State, fn func() error) error {
	if g.state != from {
		panic(&ContractViolation{Label: label, Op: op, State: g.state.String()})
	}
	if err := fn(); err != nil {
		return err
	}
	g.state = to
	return nil
}

// Func is a leaf Command assembled from closures.
type Func struct {
	Guard

	label   string
	labelFn func() string

	execute func() error
	undo    func() error
	redo    func() error

	size         int
	changesSaved bool
}

// FuncOption configures a Func.
type FuncOption func(*Func)

// WithRedo sets a redo function distinct from execute.
func WithRedo(fn func() error) FuncOption {
	return func(f *Func) {
		f.redo = fn
	}
}

// WithMemorySize sets the reported memory size.
func WithMemorySize(n int) FuncOption {
	return func(f *Func) {
		f.size = n
	}
}

// WithChangesSavedState sets whether the command dirties the document.
// Defaults to true.
func WithChangesSavedState(changes bool) FuncOption {
	return func(f *Func) {
		f.changesSaved = changes
	}
}

// WithLazyLabel computes the label on first use.
func WithLazyLabel(fn func() string) FuncOption {
	return func(f *Func) {
		f.labelFn = fn
	}
}

// NewFunc creates a leaf command. When no redo function is given, execute is
// reused for redo.
func NewFunc(label string, execute, undo func() error, opts ...FuncOption) *Func {
	f := &Func{
		label:        label,
		execute:      execute,
		undo:         undo,
		changesSaved: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.redo == nil {
		f.redo = f.execute
	}
	return f
}

// Execute implements Command.
func (f *Func) Execute() error {
	return f.Guard.Execute(f.Label(), f.execute)
}

// Undo implements Command.
func (f *Func) Undo() error {
	return f.Guard.Undo(f.Label(), f.undo)
}

// Redo implements Command.
func (f *Func) Redo() error {
	return f.Guard.Redo(f.Label(), f.redo)
}

// Label implements Command.
func (f *Func) Label() string {
	if f.labelFn != nil {
		f.label = f.labelFn()
		f.labelFn = nil
	}
	return f.label
}

// MemorySize implements Command.
func (f *Func) MemorySize() int {
	return f.size
}

// ChangesSavedState implements Command.
func (f *Func) ChangesSavedState() bool {
	return f.changesSaved
}

// Inverted returns cmd with its directions swapped: executing it undoes cmd,
// undoing it redoes cmd. This turns an already executed "insert" into a
// "remove" that reuses the insert's captured undo data. cmd must be in its
// done state when the result is executed.
func Inverted(cmd Command, label string) Command {
	return &inverted{cmd: cmd, label: label}
}

type inverted struct {
	cmd   Command
	label string
}

func (c *inverted) Execute() error { return c.cmd.Undo() }
func (c *inverted) Undo() error { return c.cmd.Redo() }
func (c *inverted) Redo() error { return c.cmd.Undo() }

func (c *inverted) Label() string {
	if c.label != "" {
		return c.label
	}
	return c.cmd.Label()
}

func (c *inverted) MemorySize() int { return c.cmd.MemorySize() }
func (c *inverted) ChangesSavedState() bool { return c.cmd.ChangesSavedState() }

func (c *inverted) Dispose() {
	if d, ok := c.cmd.(Disposer); ok {
		d.Dispose()
	}
}
