package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dshills/undotree/internal/engine/history"
)

// writeTree prints h as an indented tree, oldest branch first. The current
// node is marked with * and the saved node with (saved).
func writeTree(w io.Writer, h *history.History) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "root%s\n", marks(h, history.NoNode))

	var walk func(parent history.NodeID, prefix string)
	walk = func(parent history.NodeID, prefix string) {
		children := h.Children(parent)
		for i, id := range children {
			branch, indent := "├── ", "│   "
			if i == len(children)-1 {
				branch, indent = "└── ", "    "
			}
			n, _ := h.Node(id)
			fmt.Fprintf(bw, "%s%s%d %s%s\n", prefix, branch, id, n.Label, marks(h, id))
			walk(id, prefix+indent)
		}
	}
	walk(history.NoNode, "")
	return bw.Flush()
}

func marks(h *history.History, id history.NodeID) string {
	var s string
	if h.Current() == id {
		s += " *"
	}
	if saved, ok := h.SavedState(); ok && saved == id {
		s += " (saved)"
	}
	return s
}
