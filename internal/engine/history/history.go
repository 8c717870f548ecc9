package history

import (
	"io"
	"log/slog"
	"slices"
	"time"
)

// History is a branching undo/redo tree of committed commands.
//
// Nodes are stored in an arena indexed by NodeID. Undoing and then adding a
// new command starts a branch; the previous branch is kept and can still be
// reached with MoveTo. Redo follows each node's next pointer, which names the
// child created most recently under that node.
//
// History is not safe for concurrent use. The owner must serialize every
// call, including read-only queries.
type History struct {
	nodes []node // nodes[0] is unused so that NoNode never names a slot

	first   NodeID
	last    NodeID
	current NodeID

	live      int
	totalSize int

	saved     NodeID
	savedLost bool

	logger    *slog.Logger
	observers []Observer
}

// Option configures a History.
type Option func(*History)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(h *History) {
		h.AddObserver(o)
	}
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		nodes:  make([]node, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddObserver registers o for change notifications.
func (h *History) AddObserver(o Observer) {
	if o != nil {
		h.observers = append(h.observers, o)
	}
}

// RemoveObserver unregisters o.
func (h *History) RemoveObserver(o Observer) {
	h.observers = slices.DeleteFunc(h.observers, func(x Observer) bool { return x == o })
}

// Add records cmd, whose effects must already be live, as a child of the
// current node and makes it current. Any branch previously reachable through
// the current node's next pointer is kept but no longer followed by Redo.
func (h *History) Add(cmd Command) NodeID {
	id := NodeID(len(h.nodes))
	h.nodes = append(h.nodes, node{
		cmd:     cmd,
		parent:  h.current,
		created: time.Now(),
		live:    true,
	})

	if h.current == NoNode {
		// A new root replaces first so Redo from the root boundary follows it.
		h.first = id
	} else {
		h.nodes[h.current].next = id
	}
	h.current = id
	h.last = id

	h.live++
	h.totalSize += cmd.MemorySize()

	h.logger.Debug("history add",
		slog.Int("node", int(id)),
		slog.Int("parent", int(h.nodes[id].parent)),
		slog.String("label", cmd.Label()))

	for _, o := range h.observers {
		o.OnAdd(h, id)
	}
	h.notifyTotalSize()
	return id
}

// CanUndo reports whether any command's effects are live.
func (h *History) CanUndo() bool {
	return h.current != NoNode
}

// CanRedo reports whether Redo has somewhere to go.
func (h *History) CanRedo() bool {
	return h.current != h.last && h.redoTarget() != NoNode
}

// Undo reverts the current node and moves to its parent.
func (h *History) Undo() error {
	if !h.CanUndo() {
		return ErrNothingToUndo
	}
	return h.MoveTo(h.nodes[h.current].parent)
}

// Redo moves to the child the current node's next pointer names, or to the
// first node when at the root boundary.
func (h *History) Redo() error {
	if !h.CanRedo() {
		return ErrNothingToRedo
	}
	return h.MoveTo(h.redoTarget())
}

func (h *History) redoTarget() NodeID {
	if h.current == NoNode {
		return h.first
	}
	return h.nodes[h.current].next
}

// MoveTo makes target the current node. It undoes commands from the current
// node up to the nearest common ancestor, then redoes commands down to
// target. Moving to NoNode undoes everything.
//
// If a command fails, the error is returned as an *ExecutionError and the
// current node is left at the last node whose effects are fully live.
func (h *History) MoveTo(target NodeID) error {
	if !h.valid(target) {
		return ErrUnknownNode
	}
	if target == h.current {
		return nil
	}

	m := Move{
		From:   h.current,
		To:     target,
		Common: h.findCommonParent(h.current, target),
	}
	m.Err = h.walk(&m)

	h.logger.Debug("history move",
		slog.Int("from", int(m.From)),
		slog.Int("to", int(m.To)),
		slog.Int("common", int(m.Common)),
		slog.Int("undone", m.Undone),
		slog.Int("redone", m.Redone))

	for _, o := range h.observers {
		o.OnMove(h, m)
	}
	if h.current != m.From {
		for _, o := range h.observers {
			o.OnCurrentChange(h)
		}
	}
	return m.Err
}

func (h *History) walk(m *Move) error {
	for h.current != m.Common {
		n := &h.nodes[h.current]
		if err := n.cmd.Undo(); err != nil {
			return &ExecutionError{Op: "undo", Label: n.cmd.Label(), Index: -1, Err: err}
		}
		h.current = n.parent
		m.Undone++
	}

	var path []NodeID
	for id := m.To; id != m.Common; id = h.nodes[id].parent {
		path = append(path, id)
	}
	slices.Reverse(path)

	for _, id := range path {
		n := &h.nodes[id]
		if err := n.cmd.Redo(); err != nil {
			return &ExecutionError{Op: "redo", Label: n.cmd.Label(), Index: -1, Err: err}
		}
		h.current = id
		m.Redone++
	}
	return nil
}

// findCommonParent returns the nearest ancestor shared by a and b, or NoNode.
// Both pointers climb one parent per step and restart at the other endpoint
// after running off the top, so they meet after at most depth(a)+depth(b)
// steps without depth bookkeeping. Disjoint roots meet at NoNode.
func (h *History) findCommonParent(a, b NodeID) NodeID {
	if a == NoNode || b == NoNode {
		return NoNode
	}
	p, q := a, b
	for p != q {
		if p == NoNode {
			p = b
		} else {
			p = h.nodes[p].parent
		}
		if q == NoNode {
			q = a
		} else {
			q = h.nodes[q].parent
		}
	}
	return p
}

// ClearRedo drops every node created after the current one, which includes
// everything Redo or a forward MoveTo could reach from here. Each dropped
// command that implements Disposer is disposed exactly once. Afterwards
// CanRedo is false and Last equals Current.
func (h *History) ClearRedo() {
	if h.current == NoNode {
		h.dropAll()
		h.first = NoNode
		h.last = NoNode
	} else {
		touched := make(map[NodeID]struct{})
		for id := NodeID(len(h.nodes) - 1); id > h.current; id-- {
			if h.nodes[id].live {
				touched[h.nodes[id].parent] = struct{}{}
				h.drop(id)
			}
		}
		// Parents that kept some children fall back to their newest
		// survivor, so no next pointer names a dropped node.
		for p := range touched {
			if p == NoNode || h.nodes[p].live {
				h.relink(p)
			}
		}
		h.nodes[h.current].next = NoNode
		h.last = h.current
	}

	h.logger.Debug("history clear redo",
		slog.Int("current", int(h.current)),
		slog.Int("live", h.live))

	for _, o := range h.observers {
		o.OnClearRedo(h)
	}
	h.notifyTotalSize()
}

// Clear drops every node. The current model state becomes the root
// boundary; it stays the saved state only if it was saved.
func (h *History) Clear() {
	wasSaved := !h.savedLost && h.saved == h.current
	h.dropAll()
	h.first = NoNode
	h.last = NoNode
	h.current = NoNode
	h.saved = NoNode
	h.savedLost = !wasSaved

	for _, o := range h.observers {
		o.OnClearRedo(h)
		o.OnCurrentChange(h)
	}
	h.notifyTotalSize()
}

func (h *History) dropAll() {
	for id := NodeID(len(h.nodes) - 1); id > NoNode; id-- {
		if h.nodes[id].live {
			h.drop(id)
		}
	}
}

func (h *History) drop(id NodeID) {
	n := &h.nodes[id]
	if d, ok := n.cmd.(Disposer); ok {
		d.Dispose()
	}
	h.totalSize -= n.cmd.MemorySize()
	h.live--
	n.live = false
	n.cmd = nil
	n.next = NoNode

	if h.saved == id {
		h.savedLost = true
	}

	for _, o := range h.observers {
		o.OnDelete(h, id)
	}
}

// relink points p's next (or first, for NoNode) at p's newest live child.
func (h *History) relink(p NodeID) {
	next := NoNode
	if children := h.Children(p); len(children) > 0 {
		next = children[len(children)-1]
	}
	if p == NoNode {
		h.first = next
	} else {
		h.nodes[p].next = next
	}
}

func (h *History) valid(id NodeID) bool {
	if id == NoNode {
		return true
	}
	return id > NoNode && int(id) < len(h.nodes) && h.nodes[id].live
}

func (h *History) notifyTotalSize() {
	for _, o := range h.observers {
		o.OnTotalSizeChange(h, h.totalSize)
	}
}
