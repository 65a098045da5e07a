// Package history keeps a bounded stack of state snapshots for undo/redo.
package history

import (
	"sync"

	"tably/internal/store"
)

// History holds undo and redo stacks of immutable store snapshots. Pushing
// a new snapshot clears the redo stack; exceeding the limit evicts the
// oldest undo entry.
type History struct {
	mu    sync.Mutex
	limit int
	undo  []store.State
	redo  []store.State
}

func New(limit int) *History {
	if limit <= 0 {
		limit = 1
	}
	return &History{limit: limit}
}

// Push records a snapshot taken immediately before a mutating action.
func (h *History) Push(snapshot store.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		h.undo = append([]store.State(nil), h.undo[1:]...)
	}
	h.redo = nil
}

// Undo trades the current state for the most recent snapshot. The current
// state moves to the redo stack. Returns false when there is nothing to
// undo.
func (h *History) Undo(current store.State) (store.State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return store.State{}, false
	}

	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return top, true
}

// Redo reverses the most recent undo. Returns false when there is nothing
// to redo.
func (h *History) Redo(current store.State) (store.State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return store.State{}, false
	}

	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return top, true
}

// CanUndo reports whether an undo snapshot is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether a redo snapshot is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Depth returns the number of undoable snapshots.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}
