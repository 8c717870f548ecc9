package lua

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/undotree/internal/engine"
	"github.com/dshills/undotree/internal/engine/history"
)

// defaultCommandSize is reported when a definition does not set size.
const defaultCommandSize = 64

// Document is the text a Lua command edits.
type Document interface {
	Text() string
	Len() int
	Insert(offset int, text string) error
	Delete(from, to int) error
}

// Registry holds the commands defined by loaded scripts. Scripts define a
// command by calling undotree.command:
//
//	undotree.command("upper", {
//		label = "Uppercase",
//		execute = function(ctx)
//			ctx.before = ctx.doc.text()
//			ctx.doc.delete(0, ctx.doc.len())
//			ctx.doc.insert(0, string.upper(ctx.before))
//		end,
//		undo = function(ctx)
//			ctx.doc.delete(0, ctx.doc.len())
//			ctx.doc.insert(0, ctx.before)
//		end,
//	})
//
// ctx is one table per command instance, so values stored in it by execute
// are visible to undo and redo. ctx.args holds the string arguments.
// redo defaults to execute.
type Registry struct {
	state  *State
	logger *slog.Logger

	mu   sync.Mutex
	defs map[string]*lua.LTable
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry installs the undotree module into state. The registry owns
// state from then on.
func NewRegistry(state *State, opts ...RegistryOption) *Registry {
	r := &Registry{
		state:  state,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		defs:   make(map[string]*lua.LTable),
	}
	for _, opt := range opts {
		opt(r)
	}
	state.RegisterModule("undotree", map[string]lua.LGFunction{
		"command": r.luaCommand,
	})
	return r
}

// luaCommand implements undotree.command(name, def).
func (r *Registry) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	def := L.CheckTable(2)
	for _, fn := range []string{"execute", "undo"} {
		if def.RawGetString(fn).Type() != lua.LTFunction {
			L.ArgError(2, fmt.Sprintf("%s must be a function", fn))
			return 0
		}
	}
	if redo := def.RawGetString("redo"); redo != lua.LNil && redo.Type() != lua.LTFunction {
		L.ArgError(2, "redo must be a function")
		return 0
	}

	r.mu.Lock()
	_, replaced := r.defs[name]
	r.defs[name] = def
	r.mu.Unlock()

	r.logger.Debug("lua command registered", slog.String("name", name), slog.Bool("replaced", replaced))
	return 0
}

// LoadFile runs a script file, registering the commands it defines.
func (r *Registry) LoadFile(path string) error {
	if err := r.state.DoFile(path); err != nil {
		return fmt.Errorf("load lua script %s: %w", path, err)
	}
	return nil
}

// LoadString runs script source, registering the commands it defines.
func (r *Registry) LoadString(name, code string) error {
	if err := r.state.DoString(code); err != nil {
		return fmt.Errorf("load lua script %s: %w", name, err)
	}
	return nil
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Command creates a new, pending instance of the named command bound to
// doc.
func (r *Registry) Command(name string, doc Document, args ...string) (*Command, error) {
	r.mu.Lock()
	def, ok := r.defs[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}

	c := &Command{
		registry:     r,
		name:         name,
		label:        name,
		size:         defaultCommandSize,
		changesSaved: true,
		def:          def,
	}
	if err := c.readDefinition(); err != nil {
		return nil, err
	}
	c.doc = &journal{doc: doc}
	c.ctx = r.newContext(c.doc, args)
	return c, nil
}

// Edit returns an engine edit that runs the named command as part of the
// step, for use with engine.Engine.Apply.
func (r *Registry) Edit(name string, args ...string) func(*engine.Edit) error {
	return func(ed *engine.Edit) error {
		cmd, err := r.Command(name, ed.Buffer(), args...)
		if err != nil {
			return err
		}
		return ed.Do(cmd)
	}
}

// Close closes the underlying Lua state.
func (r *Registry) Close() error {
	return r.state.Close()
}

func (r *Registry) newContext(doc Document, args []string) *lua.LTable {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	L := r.state.L
	ctx := L.NewTable()

	argt := L.NewTable()
	for _, a := range args {
		argt.Append(lua.LString(a))
	}
	ctx.RawSetString("args", argt)
	ctx.RawSetString("doc", newDocTable(L, doc))
	return ctx
}

// newDocTable exposes doc to Lua. Methods work with both doc.f(...) and
// doc:f(...) call styles. Offsets are 0-based bytes.
func newDocTable(L *lua.LState, doc Document) *lua.LTable {
	t := L.NewTable()
	// first returns the index of the first real argument.
	first := func(L *lua.LState) int {
		if L.Get(1) == t {
			return 2
		}
		return 1
	}
	raise := func(L *lua.LState, err error) int {
		L.RaiseError("%s", err.Error())
		return 0
	}

	L.SetFuncs(t, map[string]lua.LGFunction{
		"text": func(L *lua.LState) int {
			L.Push(lua.LString(doc.Text()))
			return 1
		},
		"len": func(L *lua.LState) int {
			L.Push(lua.LNumber(doc.Len()))
			return 1
		},
		"insert": func(L *lua.LState) int {
			i := first(L)
			if err := doc.Insert(L.CheckInt(i), L.CheckString(i+1)); err != nil {
				return raise(L, err)
			}
			return 0
		},
		"delete": func(L *lua.LState) int {
			i := first(L)
			if err := doc.Delete(L.CheckInt(i), L.CheckInt(i+1)); err != nil {
				return raise(L, err)
			}
			return 0
		},
	})
	return t
}

// Command is one instance of a Lua-defined command.
type Command struct {
	history.Guard

	registry *Registry
	name     string
	def      *lua.LTable
	ctx      *lua.LTable
	doc      *journal

	label        string
	size         int
	changesSaved bool
}

func (c *Command) readDefinition() error {
	c.registry.state.mu.Lock()
	defer c.registry.state.mu.Unlock()

	switch v := c.def.RawGetString("label").(type) {
	case lua.LString:
		c.label = string(v)
	case *lua.LNilType:
	default:
		return fmt.Errorf("%q label is %s: %w", c.name, v.Type(), ErrInvalidCommand)
	}
	switch v := c.def.RawGetString("size").(type) {
	case lua.LNumber:
		c.size = int(v)
	case *lua.LNilType:
	default:
		return fmt.Errorf("%q size is %s: %w", c.name, v.Type(), ErrInvalidCommand)
	}
	if v := c.def.RawGetString("changes_saved"); v != lua.LNil {
		c.changesSaved = lua.LVAsBool(v)
	}
	return nil
}

func (c *Command) Execute() error {
	return c.Guard.Execute(c.label, func() error { return c.call("execute") })
}

func (c *Command) Undo() error {
	return c.Guard.Undo(c.label, func() error { return c.call("undo") })
}

func (c *Command) Redo() error {
	return c.Guard.Redo(c.label, func() error {
		if c.hasRedo() {
			return c.call("redo")
		}
		return c.call("execute")
	})
}

func (c *Command) hasRedo() bool {
	c.registry.state.mu.Lock()
	defer c.registry.state.mu.Unlock()
	return c.def.RawGetString("redo").Type() == lua.LTFunction
}

// call runs the Lua function for op. If it fails, the document edits it
// made are reverted so the failed step leaves no trace.
func (c *Command) call(op string) error {
	c.registry.state.mu.Lock()
	fn := c.def.RawGetString(op)
	c.registry.state.mu.Unlock()

	c.doc.begin()
	_, err := c.registry.state.CallFunction(fn, c.ctx)
	if err == nil {
		c.doc.end()
		return nil
	}
	err = fmt.Errorf("lua command %q %s: %w", c.name, op, err)
	if rerr := c.doc.revert(); rerr != nil {
		c.registry.logger.Error("lua command revert failed",
			slog.String("name", c.name), slog.String("op", op), slog.Any("error", rerr))
		return errors.Join(err, rerr)
	}
	return err
}

// edit is one change applied through a journal. removed is empty for an
// insert.
type edit struct {
	offset   int
	inserted string
	removed  string
}

// journal records the edits a command makes to its document during one
// call so they can be reverted.
type journal struct {
	doc   Document
	edits []edit
}

func (j *journal) Text() string { return j.doc.Text() }

func (j *journal) Len() int { return j.doc.Len() }

func (j *journal) Insert(offset int, text string) error {
	if err := j.doc.Insert(offset, text); err != nil {
		return err
	}
	j.edits = append(j.edits, edit{offset: offset, inserted: text})
	return nil
}

func (j *journal) Delete(from, to int) error {
	var removed string
	if from >= 0 && from <= to && to <= j.doc.Len() {
		removed = j.doc.Text()[from:to]
	}
	if err := j.doc.Delete(from, to); err != nil {
		return err
	}
	j.edits = append(j.edits, edit{offset: from, removed: removed})
	return nil
}

func (j *journal) begin() { j.edits = j.edits[:0] }

func (j *journal) end() { j.edits = j.edits[:0] }

// revert undoes the recorded edits, last first.
func (j *journal) revert() error {
	defer j.end()
	for i := len(j.edits) - 1; i >= 0; i-- {
		e := j.edits[i]
		if e.inserted != "" {
			if err := j.doc.Delete(e.offset, e.offset+len(e.inserted)); err != nil {
				return err
			}
		}
		if e.removed != "" {
			if err := j.doc.Insert(e.offset, e.removed); err != nil {
				return err
			}
		}
	}
	return nil
}

// Name returns the registered name.
func (c *Command) Name() string {
	return c.name
}

func (c *Command) Label() string {
	return c.label
}

func (c *Command) MemorySize() int {
	return c.size
}

func (c *Command) ChangesSavedState() bool {
	return c.changesSaved
}
