package lua

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
)

func TestNewState(t *testing.T) {
	state := NewState()
	defer state.Close()

	assert.False(t, state.IsClosed())
	require.NoError(t, state.DoString(`x = 1 + 1`))
	assert.Equal(t, glua.LNumber(2), state.GetGlobal("x"))
}

func TestStateRestrictedLibraries(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, name := range []string{"io", "os", "debug", "package", "dofile", "loadfile", "load", "loadstring", "require"} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, glua.LNil, state.GetGlobal(name))
		})
	}
	for _, name := range []string{"string", "table", "math", "pairs"} {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, glua.LNil, state.GetGlobal(name))
		})
	}
}

func TestStateCall(t *testing.T) {
	state := NewState()
	defer state.Close()

	require.NoError(t, state.DoString(`
		function add(a, b) return a + b end
		function nothing() end
		function fail() error("boom") end
	`))

	ret, err := state.Call("add", glua.LNumber(2), glua.LNumber(3))
	require.NoError(t, err)
	assert.Equal(t, []glua.LValue{glua.LNumber(5)}, ret)

	ret, err = state.Call("nothing")
	require.NoError(t, err)
	assert.Empty(t, ret)
	assert.NotNil(t, ret)

	_, err = state.Call("fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = state.Call("missing")
	assert.Error(t, err)
}

func TestStateTimeout(t *testing.T) {
	state := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer state.Close()

	err := state.DoString(`while true do end`)
	require.Error(t, err)

	// The state stays usable after a timeout.
	require.NoError(t, state.DoString(`y = 1`))
}

func TestStateClose(t *testing.T) {
	state := NewState()
	require.NoError(t, state.Close())
	require.NoError(t, state.Close())

	assert.True(t, state.IsClosed())
	assert.ErrorIs(t, state.DoString(`x = 1`), ErrStateClosed)
	_, err := state.CallFunction(glua.LNil)
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.Equal(t, glua.LNil, state.GetGlobal("x"))
}
