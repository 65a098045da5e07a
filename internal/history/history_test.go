package history

import (
	"strconv"
	"testing"

	"tably/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWithQuery(q string) store.State {
	return store.State{SearchQuery: q}
}

func TestUndoRedo(t *testing.T) {
	h := New(10)

	h.Push(snapshotWithQuery("v1"))
	h.Push(snapshotWithQuery("v2"))
	require.True(t, h.CanUndo())

	state, ok := h.Undo(snapshotWithQuery("v3"))
	require.True(t, ok)
	assert.Equal(t, "v2", state.SearchQuery)
	require.True(t, h.CanRedo())

	state, ok = h.Redo(state)
	require.True(t, ok)
	assert.Equal(t, "v3", state.SearchQuery)
	assert.False(t, h.CanRedo())
}

func TestUndoEmpty(t *testing.T) {
	h := New(10)

	_, ok := h.Undo(snapshotWithQuery("current"))
	assert.False(t, ok)
	_, ok = h.Redo(snapshotWithQuery("current"))
	assert.False(t, ok)
}

func TestPushClearsRedo(t *testing.T) {
	h := New(10)

	h.Push(snapshotWithQuery("v1"))
	_, ok := h.Undo(snapshotWithQuery("v2"))
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Push(snapshotWithQuery("v3"))
	assert.False(t, h.CanRedo())
}

func TestBoundedDepthEvictsOldest(t *testing.T) {
	h := New(3)

	for i := 0; i < 5; i++ {
		h.Push(snapshotWithQuery("v" + strconv.Itoa(i)))
	}
	assert.Equal(t, 3, h.Depth())

	// Oldest surviving snapshot is v2.
	var last store.State
	for h.CanUndo() {
		last, _ = h.Undo(store.State{})
	}
	assert.Equal(t, "v2", last.SearchQuery)
}
