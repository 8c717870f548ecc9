package history

// Current returns the node whose effects are live, or NoNode.
func (h *History) Current() NodeID {
	return h.current
}

// First returns the root the root boundary redoes into, or NoNode.
func (h *History) First() NodeID {
	return h.first
}

// Last returns the most recently added node still in the history.
func (h *History) Last() NodeID {
	return h.last
}

// Len returns the number of nodes in the history.
func (h *History) Len() int {
	return h.live
}

// IsEmpty returns true if no commands are recorded.
func (h *History) IsEmpty() bool {
	return h.live == 0
}

// TotalMemorySize returns the sum of MemorySize over all recorded commands.
func (h *History) TotalMemorySize() int {
	return h.totalSize
}

// Node returns a read-only view of id.
func (h *History) Node(id NodeID) (Node, bool) {
	if id == NoNode || !h.valid(id) {
		return Node{}, false
	}
	n := h.nodes[id]
	return Node{
		ID:                id,
		Parent:            n.parent,
		Next:              n.next,
		Label:             n.cmd.Label(),
		MemorySize:        n.cmd.MemorySize(),
		ChangesSavedState: n.cmd.ChangesSavedState(),
		Created:           n.created,
	}, true
}

// Command returns the command recorded at id, or nil.
func (h *History) Command(id NodeID) Command {
	if id == NoNode || !h.valid(id) {
		return nil
	}
	return h.nodes[id].cmd
}

// LastExecuted returns the command at the current node, or nil at the root
// boundary.
func (h *History) LastExecuted() Command {
	return h.Command(h.current)
}

// Children returns the live children of id in creation order. Passing NoNode
// returns the roots.
func (h *History) Children(id NodeID) []NodeID {
	var out []NodeID
	for i := int(id) + 1; i < len(h.nodes); i++ {
		if h.nodes[i].live && h.nodes[i].parent == id {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// All returns every live node in creation order.
func (h *History) All() []NodeID {
	out := make([]NodeID, 0, h.live)
	for i := 1; i < len(h.nodes); i++ {
		if h.nodes[i].live {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// States returns the path Redo would replay from the root boundary: First
// followed by each node's next pointer.
func (h *History) States() []NodeID {
	var out []NodeID
	for id := h.first; id != NoNode; id = h.nodes[id].next {
		out = append(out, id)
	}
	return out
}

// Depth returns the number of ancestors of id, counting id itself.
func (h *History) Depth(id NodeID) int {
	d := 0
	for ; id != NoNode && h.valid(id); id = h.nodes[id].parent {
		d++
	}
	return d
}

// UndoLabel returns the label of the command Undo would revert.
func (h *History) UndoLabel() (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	return h.nodes[h.current].cmd.Label(), true
}

// RedoLabel returns the label of the command Redo would re-apply.
func (h *History) RedoLabel() (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	return h.nodes[h.redoTarget()].cmd.Label(), true
}
