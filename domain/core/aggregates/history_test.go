package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
)

func snapshotOf(t *testing.T, names ...string) Snapshot {
	t.Helper()
	nodes := make([]*entities.Node, 0, len(names))
	for i, name := range names {
		n, err := entities.ReconstructNode(
			valueobjects.MustNodeID(name),
			valueobjects.NodeTypeMatter,
			valueobjects.Attributes{valueobjects.AttrName: valueobjects.Plain(name)},
			valueobjects.Pos(float64(i), 0),
			100,
			i,
		)
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	return takeSnapshot(nodes, nil)
}

func TestHistory_UndoRedo(t *testing.T) {
	h := NewHistory(10)
	s1 := snapshotOf(t, "a")
	s2 := snapshotOf(t, "a", "b")
	s3 := snapshotOf(t, "a", "b", "c")

	h.Record(s1)
	h.Record(s2)

	got, ok := h.Undo(s3)
	require.True(t, ok)
	assert.True(t, got.Equivalent(s2))
	assert.True(t, h.CanRedo())

	got, ok = h.Redo(s2)
	require.True(t, ok)
	assert.True(t, got.Equivalent(s3))
	assert.False(t, h.CanRedo())

	h.Clear()
	assert.False(t, h.CanUndo())
	_, ok = h.Undo(s3)
	assert.False(t, ok)
	_, ok = h.Redo(s3)
	assert.False(t, ok)
}

func TestHistory_DropsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Record(snapshotOf(t, "a"))
	h.Record(snapshotOf(t, "a", "b"))
	h.Record(snapshotOf(t, "a", "b", "c"))
	assert.Equal(t, 2, h.PastLen())

	current := snapshotOf(t, "x")
	got, ok := h.Undo(current)
	require.True(t, ok)
	assert.Equal(t, 3, got.NodeCount())
	got, ok = h.Undo(got)
	require.True(t, ok)
	assert.Equal(t, 2, got.NodeCount())
	_, ok = h.Undo(got)
	assert.False(t, ok)

	assert.Equal(t, 1, NewHistory(0).Limit())
}

func TestHistory_RecordClearsFuture(t *testing.T) {
	h := NewHistory(5)
	h.Record(snapshotOf(t, "a"))
	_, ok := h.Undo(snapshotOf(t, "a", "b"))
	require.True(t, ok)
	require.Equal(t, 1, h.FutureLen())

	h.Record(snapshotOf(t, "c"))
	assert.Equal(t, 0, h.FutureLen())
}

func TestSnapshot_Immutable(t *testing.T) {
	s := snapshotOf(t, "a")
	nodes := s.Nodes()
	nodes[0].SetAttribute(valueobjects.AttrName, valueobjects.Plain("changed"))
	nodes[0].SetEditing(true)

	assert.Equal(t, "a", s.Nodes()[0].Name())
	assert.False(t, s.Nodes()[0].IsEditing())
	assert.True(t, s.hasNode(valueobjects.MustNodeID("a")))
}
