package history

// Move describes one MoveTo call.
type Move struct {
	From   NodeID
	To     NodeID
	Common NodeID
	Undone int
	Redone int
	Err    error
}

// Observer receives history change notifications. Callbacks run
// synchronously on the caller's goroutine and must not modify the history.
type Observer interface {
	OnAdd(h *History, id NodeID)
	OnDelete(h *History, id NodeID)
	OnCurrentChange(h *History)
	OnMove(h *History, m Move)
	OnClearRedo(h *History)
	OnTotalSizeChange(h *History, total int)
	OnSavedState(h *History)
}

// BaseObserver implements Observer with no-ops. Embed it to override only
// the callbacks of interest.
type BaseObserver struct{}

func (BaseObserver) OnAdd(*History, NodeID) {}
func (BaseObserver) OnDelete(*History, NodeID) {}
func (BaseObserver) OnCurrentChange(*History) {}
func (BaseObserver) OnMove(*History, Move) {}
func (BaseObserver) OnClearRedo(*History) {}
func (BaseObserver) OnTotalSizeChange(*History, int) {}
func (BaseObserver) OnSavedState(*History) {}
