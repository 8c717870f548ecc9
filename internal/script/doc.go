// Package script replays YAML edit scripts against an engine.
//
// A script names a starting text and a list of steps. Each step holds one
// action:
//
//	name: branch
//	text: ""
//	steps:
//	  - insert: {at: 0, text: "a"}
//	  - insert: {at: 1, text: "b"}
//	  - undo: 1
//	  - insert: {at: 1, text: "c"}
//	  - goto: 2
//	  - expect: "ab"
//	  - group:
//	      label: Wrap
//	      steps:
//	        - insert: {at: 0, text: "("}
//	        - insert: {at: 3, text: ")"}
//	  - expect: {text: "(ab)", current: 4, can_redo: false}
//
// Edit steps (insert, delete, replace, select, lua) each become one
// history node; a group applies its edit steps as a single node. undo and
// redo take a count, goto takes a node ID (0 is the root), and expect
// checks text, selection, current node, can_undo, can_redo and modified.
// A lua step runs a command registered by a Lua script, written either as
// the command name or as {name: ..., args: [...]}.
package script
