// Package history records committed edits in a branching undo/redo tree.
//
// # Commands
//
// A Command is an atomic, reversible unit of change with Execute, Undo and
// Redo. Built-in helpers:
//   - Func: a leaf command assembled from closures, guarded against
//     out-of-order calls
//   - Sequence: an ordered composite; undo runs children in reverse order,
//     execute and redo in forward order
//   - Inverted: swaps the directions of an executed command, so a "remove"
//     can reuse the undo data an "insert" already captured
//
// Guard can be embedded by other leaf commands to get the same ordering
// checks as Func. Misuse panics with *ContractViolation.
//
// # History Tree
//
// History stores one node per committed command in an arena addressed by
// NodeID:
//
//	h := history.New()
//	h.Add(cmd)     // cmd already executed
//	h.Undo()       // MoveTo(parent)
//	h.Redo()       // MoveTo(next)
//	h.MoveTo(id)   // undo up to the common ancestor, redo down to id
//
// Adding after an undo starts a new branch. The old branch is kept and can be
// reached with MoveTo; Redo follows each node's next pointer, which names the
// child most recently created under it.
//
// ClearRedo drops every node created after the current one. Nothing else
// ever removes nodes, and there is no size-based eviction.
//
// # Saved State
//
// MarkSaved remembers the node matching the file on disk; IsModified walks
// the path between the current and saved nodes and ignores commands that do
// not change the saved state.
package history
