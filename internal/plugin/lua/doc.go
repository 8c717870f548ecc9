// Package lua lets Lua scripts define undoable document commands.
//
// This package wraps the gopher-lua library to provide:
//   - Restricted Lua state management
//   - A registry of script-defined commands
//   - Per-call execution timeouts
//
// # State
//
// The State type manages a Lua runtime with only the base, table, string
// and math libraries and no way to load further code:
//
//	state := lua.NewState(
//	    lua.WithCallStackSize(256),
//	    lua.WithExecutionTimeout(5 * time.Second),
//	)
//	defer state.Close()
//
// # Commands
//
// A Registry turns script-defined tables into history commands:
//
//	reg := lua.NewRegistry(state)
//	if err := reg.LoadFile("commands.lua"); err != nil {
//	    log.Fatal(err)
//	}
//	cmd, err := reg.Command("upper", doc)
//
// Each Command follows the same execute, undo and redo contract as any
// other history command; driving it out of order panics.
package lua
