package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for Lua state.
const (
	DefaultCallStackSize    = 256
	DefaultExecutionTimeout = 5 * time.Second // Timeout for each Lua call
)

// State wraps gopher-lua with the restrictions used for command scripts.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. The mutex in this
// struct serializes every call from Go code.
type State struct {
	L *lua.LState

	mu sync.Mutex

	callStackSize    int
	executionTimeout time.Duration

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallStackSize bounds the Lua call stack.
func WithCallStackSize(n int) StateOption {
	return func(s *State) {
		if n > 0 {
			s.callStackSize = n
		}
	}
}

// WithExecutionTimeout sets the timeout for each Lua call. Zero disables
// the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a restricted Lua state.
func NewState(opts ...StateOption) *State {
	state := &State{
		callStackSize:    DefaultCallStackSize,
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		CallStackSize: state.callStackSize,
		SkipOpenLibs:  true, // We'll open selectively
	})
	state.L = L
	openSafeLibraries(L)
	return state
}

// openSafeLibraries opens only safe Lua standard libraries and removes the
// base functions that load code from disk or strings.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Note: io, os, debug and package are intentionally NOT opened.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.do(func() error { return s.L.DoFile(path) })
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	return s.do(func() error { return s.L.DoString(code) })
}

func (s *State) do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	cancel := s.arm()
	defer cancel()
	return doWithRecovery(fn)
}

// arm installs the per-call timeout context.
func (s *State) arm() func() {
	if s.executionTimeout <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
	s.L.SetContext(ctx)
	return func() {
		s.L.RemoveContext()
		cancel()
	}
}

// doWithRecovery executes a function with panic recovery.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Call calls a global Lua function with the given arguments.
func (s *State) Call(name string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	fn := s.L.GetGlobal(name)
	s.mu.Unlock()

	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", name, fn.Type())
	}
	return s.CallFunction(fn, args...)
}

// CallFunction calls a Lua function value. It returns an empty slice (not
// nil) if the function returns no values.
func (s *State) CallFunction(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	cancel := s.arm()
	defer cancel()

	// Record stack top before pushing anything
	stackTop := s.L.GetTop()

	err := doWithRecovery(func() error {
		s.L.Push(fn)
		for _, arg := range args {
			s.L.Push(arg)
		}
		return s.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		s.L.SetTop(stackTop)
		return nil, err
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)
	return results, nil
}

// RegisterModule registers a global table with the given functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
