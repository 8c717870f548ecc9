package history

import "time"

// NodeID addresses a node in a History's arena. IDs increase with creation
// order and are never reused. NoNode stands for the state before the first
// recorded command.
type NodeID int

// NoNode is the root boundary: no command's effects are live.
const NoNode NodeID = 0

// node is an arena slot. parent never changes after creation; next is the
// most recently created child and is only rewritten by History.
type node struct {
	cmd     Command
	parent  NodeID
	next    NodeID
	created time.Time
	live    bool
}

// Node is a read-only view of a history node for UI listings.
type Node struct {
	ID                NodeID
	Parent            NodeID
	Next              NodeID
	Label             string
	MemorySize        int
	ChangesSavedState bool
	Created           time.Time
}
