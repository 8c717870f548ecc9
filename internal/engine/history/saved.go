package history

// MarkSaved records the current node as the state matching the document on
// disk.
func (h *History) MarkSaved() {
	h.saved = h.current
	h.savedLost = false
	for _, o := range h.observers {
		o.OnSavedState(h)
	}
}

// SavedState returns the node recorded by MarkSaved. The second result is
// false once that node has been dropped from the history.
func (h *History) SavedState() (NodeID, bool) {
	return h.saved, !h.savedLost
}

// IsSavedStateLost reports whether the saved node was dropped, so no
// sequence of moves can return to the saved document.
func (h *History) IsSavedStateLost() bool {
	return h.savedLost
}

// IsModified reports whether the live document differs from the saved one.
// Commands that do not change the saved state (e.g. selection changes) are
// ignored along the path between the two nodes.
func (h *History) IsModified() bool {
	if h.savedLost {
		return true
	}
	if h.current == h.saved {
		return false
	}
	common := h.findCommonParent(h.current, h.saved)
	for _, start := range []NodeID{h.current, h.saved} {
		for id := start; id != common; id = h.nodes[id].parent {
			if h.nodes[id].cmd.ChangesSavedState() {
				return true
			}
		}
	}
	return false
}
