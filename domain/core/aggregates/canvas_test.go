package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/domain/services"
)

type fixedClock struct{ t time.Time }

func (f *fixedClock) now() time.Time          { return f.t }
func (f *fixedClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCanvas(t *testing.T, opts ...CanvasOption) *Canvas {
	t.Helper()
	return NewCanvas(config.DefaultDomainConfig(), opts...)
}

func addNamed(t *testing.T, c *Canvas, nodeType valueobjects.NodeType, name string, x, y float64) valueobjects.NodeID {
	t.Helper()
	id, err := c.AddNode(nodeType, valueobjects.Pos(x, y))
	require.NoError(t, err)
	_, err = c.RenameNode(id, name)
	require.NoError(t, err)
	return id
}

func TestCanvas_AddNode(t *testing.T) {
	c := newTestCanvas(t)

	id, err := c.AddNode(valueobjects.NodeTypeMatter, valueobjects.Pos(5000, -20))
	require.NoError(t, err)

	n, ok := c.Node(id)
	require.True(t, ok)
	assert.True(t, n.IsEditing())
	assert.Empty(t, n.Attributes())
	assert.Equal(t, c.Viewport().MaxX(), n.Position().X())
	assert.Equal(t, c.Viewport().MinY(), n.Position().Y())
	assert.Equal(t, 1, c.History().PastLen())

	_, err = c.AddNode(valueobjects.NodeType("rock"), valueobjects.Pos(0, 0))
	assert.ErrorIs(t, err, ErrInvalidNodeType)
	assert.Equal(t, 1, c.History().PastLen())
}

func TestCanvas_NonFiniteCoordinates(t *testing.T) {
	c := newTestCanvas(t)
	nan, inf := math.NaN(), math.Inf(1)

	for _, p := range []valueobjects.Position{valueobjects.Pos(nan, 10), valueobjects.Pos(0, inf)} {
		_, err := c.AddNode(valueobjects.NodeTypeMatter, p)
		assert.ErrorIs(t, err, ErrInvalidPosition)
	}
	assert.Empty(t, c.Nodes())
	assert.Equal(t, 0, c.History().PastLen())

	id := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 100, 100)
	before, _ := c.Node(id)
	start := before.Position()
	past := c.History().PastLen()

	assert.ErrorIs(t, c.MoveNode(id, nan, 0), ErrInvalidPosition)
	assert.ErrorIs(t, c.MoveNode(id, 0, -inf), ErrInvalidPosition)

	require.NoError(t, c.BeginDrag(id))
	c.DragBy(nan, 5)
	c.EndDrag()

	n, _ := c.Node(id)
	assert.Equal(t, start, n.Position())
	assert.Equal(t, past, c.History().PastLen())

	dx, dy := c.Viewport().ClampDelta([]valueobjects.Position{n.Position()}, nan, inf)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestCanvas_AddRelationship(t *testing.T) {
	c := newTestCanvas(t)
	silicon := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 100, 100)
	etch := addNamed(t, c, valueobjects.NodeTypeManufacturing, "Etch", 300, 100)
	param := addNamed(t, c, valueobjects.NodeTypeParameter, "Temperature", 500, 100)

	relID, err := c.AddRelationship(silicon, etch)
	require.NoError(t, err)
	rt, err := c.RelationshipTypeOf(relID)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.RelIsManufacturingInput, rt)

	tests := []struct {
		name    string
		start   valueobjects.NodeID
		end     valueobjects.NodeID
		wantErr error
	}{
		{"reverse duplicate", etch, silicon, ErrDuplicateRelationship},
		{"same duplicate", silicon, etch, ErrDuplicateRelationship},
		{"self", silicon, silicon, ErrSelfRelationship},
		{"illegal pair", silicon, param, ErrIllegalRelationship},
		{"unknown node", silicon, valueobjects.NewNodeID(), ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.Snapshot()
			past := c.History().PastLen()

			_, err := c.AddRelationship(tt.start, tt.end)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, before.Equivalent(c.Snapshot()))
			assert.Equal(t, past, c.History().PastLen())
		})
	}
	assert.Len(t, c.Relationships(), 1)
}

func TestCanvas_IllegalPairsNeverConnect(t *testing.T) {
	for _, start := range valueobjects.AllNodeTypes {
		for _, end := range valueobjects.AllNodeTypes {
			if valueobjects.IsAllowedRelationship(start, end) {
				continue
			}
			c := newTestCanvas(t)
			a, err := c.AddNode(start, valueobjects.Pos(10, 10))
			require.NoError(t, err)
			b, err := c.AddNode(end, valueobjects.Pos(20, 20))
			require.NoError(t, err)

			_, err = c.AddRelationship(a, b)
			assert.ErrorIs(t, err, ErrIllegalRelationship, "%s -> %s", start, end)
			assert.Empty(t, c.Relationships())
		}
	}
}

func TestCanvas_ReverseRelationship(t *testing.T) {
	c := newTestCanvas(t)
	silicon := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 100, 100)
	etch := addNamed(t, c, valueobjects.NodeTypeManufacturing, "Etch", 300, 100)
	relID, err := c.AddRelationship(silicon, etch)
	require.NoError(t, err)

	require.NoError(t, c.ReverseRelationship(relID))
	rels := c.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, relID, rels[0].ID())
	assert.Equal(t, etch, rels[0].Start())
	assert.Equal(t, silicon, rels[0].End())

	data, err := c.Export()
	require.NoError(t, err)
	var exported []struct {
		ID            string `json:"id"`
		Relationships []struct {
			RelType    string    `json:"rel_type"`
			Connection [2]string `json:"connection"`
		} `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 2)
	assert.Empty(t, exported[0].Relationships)
	require.Len(t, exported[1].Relationships, 1)
	assert.Equal(t, "IS_MANUFACTURING_OUTPUT", exported[1].Relationships[0].RelType)
	assert.Equal(t, [2]string{etch.String(), silicon.String()}, exported[1].Relationships[0].Connection)

	t.Run("irreversible", func(t *testing.T) {
		c := newTestCanvas(t)
		m := addNamed(t, c, valueobjects.NodeTypeMatter, "Film", 0, 0)
		p := addNamed(t, c, valueobjects.NodeTypeProperty, "Thickness", 0, 0)
		relID, err := c.AddRelationship(m, p)
		require.NoError(t, err)
		before := c.Snapshot()

		assert.ErrorIs(t, c.ReverseRelationship(relID), ErrIrreversibleRelationship)
		assert.True(t, before.Equivalent(c.Snapshot()))
	})

	t.Run("unknown", func(t *testing.T) {
		assert.ErrorIs(t, c.ReverseRelationship(valueobjects.NewRelationshipID()), ErrRelationshipNotFound)
	})
}

func TestCanvas_DeleteNodeCascades(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "Wafer", 0, 0)
	b := addNamed(t, c, valueobjects.NodeTypeManufacturing, "Anneal", 0, 0)
	d := addNamed(t, c, valueobjects.NodeTypeMatter, "Annealed wafer", 0, 0)
	m := addNamed(t, c, valueobjects.NodeTypeMeasurement, "XRD", 0, 0)

	_, err := c.AddRelationship(a, b)
	require.NoError(t, err)
	_, err = c.AddRelationship(b, d)
	require.NoError(t, err)
	keep, err := c.AddRelationship(d, m)
	require.NoError(t, err)
	require.NoError(t, c.Select(b))
	require.NoError(t, c.StartConnection(b))

	require.NoError(t, c.DeleteNode(b))

	rels := c.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, keep, rels[0].ID())
	assert.Len(t, c.Nodes(), 3)
	assert.Empty(t, c.Selection())
	_, connecting := c.ConnectingNode()
	assert.False(t, connecting)

	assert.ErrorIs(t, c.DeleteNode(b), ErrNodeNotFound)

	require.True(t, c.Undo())
	assert.Len(t, c.Relationships(), 3)
	assert.Len(t, c.Nodes(), 4)
}

func TestCanvas_DeleteSelection(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)
	b := addNamed(t, c, valueobjects.NodeTypeManufacturing, "B", 0, 0)
	d := addNamed(t, c, valueobjects.NodeTypeMatter, "D", 0, 0)
	_, err := c.AddRelationship(a, b)
	require.NoError(t, err)
	_, err = c.AddRelationship(b, d)
	require.NoError(t, err)

	require.NoError(t, c.Select(a))
	require.NoError(t, c.Select(d))
	past := c.History().PastLen()

	assert.Equal(t, 2, c.DeleteSelection())
	assert.Equal(t, past+1, c.History().PastLen())
	assert.Len(t, c.Nodes(), 1)
	assert.Empty(t, c.Relationships())
	assert.Equal(t, 0, c.DeleteSelection())

	require.NoError(t, c.Select(b))
	c.ClearSelection()
	assert.Empty(t, c.Selection())
}

func TestCanvas_UndoRedoSymmetry(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 100, 100)
	b := addNamed(t, c, valueobjects.NodeTypeManufacturing, "Etch", 300, 100)
	_, err := c.AddRelationship(a, b)
	require.NoError(t, err)
	require.NoError(t, c.SetEditing(a, true))

	require.True(t, c.Undo())
	afterUndo := c.Snapshot()
	for _, n := range c.Nodes() {
		assert.False(t, n.IsEditing())
	}

	require.True(t, c.Redo())
	for _, n := range c.Nodes() {
		assert.False(t, n.IsEditing())
	}
	assert.Len(t, c.Relationships(), 1)

	require.True(t, c.Undo())
	assert.True(t, afterUndo.Equivalent(c.Snapshot()))
	assert.Empty(t, c.Relationships())

	for c.Undo() {
	}
	assert.Empty(t, c.Nodes())
	assert.False(t, c.Undo())
	assert.True(t, c.History().CanRedo())
}

func TestCanvas_NewActionClearsRedo(t *testing.T) {
	c := newTestCanvas(t)
	addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)
	require.True(t, c.Undo())
	require.True(t, c.History().CanRedo())

	_, err := c.AddNode(valueobjects.NodeTypeMetadata, valueobjects.Pos(0, 0))
	require.NoError(t, err)
	assert.False(t, c.History().CanRedo())
	assert.False(t, c.Redo())
}

func TestCanvas_AttributeSettersRecordOnlyChanges(t *testing.T) {
	c := newTestCanvas(t)
	id, err := c.AddNode(valueobjects.NodeTypeParameter, valueobjects.Pos(0, 0))
	require.NoError(t, err)
	past := c.History().PastLen()

	changed, err := c.RenameNode(id, "Temperature")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, past+1, c.History().PastLen())

	changed, err = c.RenameNode(id, "Temperature")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, past+1, c.History().PastLen())

	changed, err = c.UpdateAttributes(id, valueobjects.Attributes{
		valueobjects.AttrName:  valueobjects.Plain("Temperature"),
		valueobjects.AttrValue: valueobjects.Qualified("450", valueobjects.OpEqual),
		valueobjects.AttrUnit:  valueobjects.Plain("C"),
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, past+2, c.History().PastLen())
	assert.Empty(t, c.Warnings())

	require.NoError(t, c.SetEditing(id, false))
	assert.Equal(t, past+2, c.History().PastLen())

	_, err = c.RenameNode(valueobjects.NewNodeID(), "x")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCanvas_Warnings(t *testing.T) {
	c := newTestCanvas(t)
	m, err := c.AddNode(valueobjects.NodeTypeMatter, valueobjects.Pos(0, 0))
	require.NoError(t, err)
	p := addNamed(t, c, valueobjects.NodeTypeProperty, "Hardness", 0, 0)

	w := c.Warnings()
	assert.Equal(t, []valueobjects.AttributeKey{valueobjects.AttrName}, w[m])
	assert.Equal(t, []valueobjects.AttributeKey{valueobjects.AttrValue}, w[p])

	_, err = c.AddRelationship(m, p)
	assert.NoError(t, err)
}

func TestCanvas_PendingConnectionOnAddNode(t *testing.T) {
	t.Run("legal", func(t *testing.T) {
		c := newTestCanvas(t)
		silicon := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 0, 0)
		require.NoError(t, c.StartConnection(silicon))
		past := c.History().PastLen()

		etch, err := c.AddNode(valueobjects.NodeTypeManufacturing, valueobjects.Pos(200, 0))
		require.NoError(t, err)

		rels := c.Relationships()
		require.Len(t, rels, 1)
		assert.Equal(t, silicon, rels[0].Start())
		assert.Equal(t, etch, rels[0].End())
		assert.Equal(t, past+1, c.History().PastLen())
		_, connecting := c.ConnectingNode()
		assert.False(t, connecting)

		require.True(t, c.Undo())
		assert.Len(t, c.Nodes(), 1)
		assert.Empty(t, c.Relationships())
	})

	t.Run("illegal keeps node", func(t *testing.T) {
		c := newTestCanvas(t)
		silicon := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 0, 0)
		require.NoError(t, c.StartConnection(silicon))

		id, err := c.AddNode(valueobjects.NodeTypeParameter, valueobjects.Pos(200, 0))
		assert.ErrorIs(t, err, ErrIllegalRelationship)
		_, ok := c.Node(id)
		assert.True(t, ok)
		assert.Empty(t, c.Relationships())
		_, connecting := c.ConnectingNode()
		assert.False(t, connecting)
	})
}

func TestCanvas_ClickPriority(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)
	b := addNamed(t, c, valueobjects.NodeTypeManufacturing, "B", 0, 0)

	require.NoError(t, c.Click(b))
	assert.Equal(t, []valueobjects.NodeID{b}, c.Selection())

	require.NoError(t, c.StartConnection(a))
	require.NoError(t, c.Click(b))
	assert.Len(t, c.Relationships(), 1)
	assert.Equal(t, []valueobjects.NodeID{b}, c.Selection(), "completing a connection does not toggle selection")

	require.NoError(t, c.StartConnection(a))
	assert.ErrorIs(t, c.Click(a), ErrSelfRelationship)
	_, connecting := c.ConnectingNode()
	assert.False(t, connecting)
	assert.Equal(t, []valueobjects.NodeID{b}, c.Selection())

	require.NoError(t, c.Click(b))
	assert.Empty(t, c.Selection())
}

func TestCanvas_DragIsOneUndoStep(t *testing.T) {
	clock := &fixedClock{t: time.Unix(1700000000, 0)}
	c := newTestCanvas(t, WithClock(clock.now))
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 100, 100)
	b := addNamed(t, c, valueobjects.NodeTypeMatter, "B", 200, 200)
	other := addNamed(t, c, valueobjects.NodeTypeMatter, "C", 300, 300)
	require.NoError(t, c.Select(a))
	require.NoError(t, c.Select(b))
	past := c.History().PastLen()

	require.NoError(t, c.BeginDrag(b))
	for i := 0; i < 10; i++ {
		c.DragBy(1, 2)
		clock.advance(time.Millisecond)
	}
	c.EndDrag()

	assert.Equal(t, past+1, c.History().PastLen())
	na, _ := c.Node(a)
	nb, _ := c.Node(b)
	nc, _ := c.Node(other)
	assert.Equal(t, valueobjects.Pos(110, 120), na.Position())
	assert.Equal(t, valueobjects.Pos(210, 220), nb.Position())
	assert.Equal(t, valueobjects.Pos(300, 300), nc.Position())
	assert.Greater(t, nb.Layer(), nc.Layer())

	require.True(t, c.Undo())
	na, _ = c.Node(a)
	assert.Equal(t, valueobjects.Pos(100, 100), na.Position())
}

func TestCanvas_DragThrottleFlushesOnEnd(t *testing.T) {
	clock := &fixedClock{t: time.Unix(1700000000, 0)}
	c := newTestCanvas(t, WithClock(clock.now))
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 100, 100)

	require.NoError(t, c.BeginDrag(a))
	c.DragBy(5, 0)
	n, _ := c.Node(a)
	assert.Equal(t, valueobjects.Pos(105, 100), n.Position())

	// Same instant: throttled, held back.
	c.DragBy(5, 0)
	c.DragBy(5, 0)
	n, _ = c.Node(a)
	assert.Equal(t, valueobjects.Pos(105, 100), n.Position())

	c.EndDrag()
	n, _ = c.Node(a)
	assert.Equal(t, valueobjects.Pos(115, 100), n.Position())
	assert.False(t, c.Dragging())
}

func TestCanvas_DragSingleWhenNotInSelection(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 100, 100)
	b := addNamed(t, c, valueobjects.NodeTypeMatter, "B", 200, 200)
	d := addNamed(t, c, valueobjects.NodeTypeMatter, "D", 300, 300)
	require.NoError(t, c.Select(a))
	require.NoError(t, c.Select(b))

	require.NoError(t, c.MoveNode(d, 10, 10))
	na, _ := c.Node(a)
	nd, _ := c.Node(d)
	assert.Equal(t, valueobjects.Pos(100, 100), na.Position())
	assert.Equal(t, valueobjects.Pos(310, 310), nd.Position())
}

func TestCanvas_DragClampsGroup(t *testing.T) {
	c := newTestCanvas(t)
	vp := c.Viewport()
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", vp.MaxX()-10, 100)
	b := addNamed(t, c, valueobjects.NodeTypeMatter, "B", vp.MaxX()-50, 200)
	require.NoError(t, c.Select(a))
	require.NoError(t, c.Select(b))

	require.NoError(t, c.MoveNode(a, 100, 0))
	na, _ := c.Node(a)
	nb, _ := c.Node(b)
	assert.Equal(t, vp.MaxX(), na.Position().X())
	assert.Equal(t, vp.MaxX()-40, nb.Position().X())

	past := c.History().PastLen()
	require.NoError(t, c.MoveNode(a, 100, 0))
	assert.Equal(t, past, c.History().PastLen(), "a drag that moves nothing is not recorded")
}

func TestCanvas_Layout(t *testing.T) {
	layouters := map[string]services.Layouter{
		"force":        services.NewForceDirectedLayouter(),
		"hierarchical": services.NewHierarchicalLayouter(),
		"grid":         services.NewGridLayouter(3),
	}
	for name, l := range layouters {
		t.Run(name, func(t *testing.T) {
			c := newTestCanvas(t, WithLayouter(l))
			a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)
			b := addNamed(t, c, valueobjects.NodeTypeManufacturing, "B", 0, 0)
			d := addNamed(t, c, valueobjects.NodeTypeMatter, "D", 0, 0)
			_, err := c.AddRelationship(a, b)
			require.NoError(t, err)
			_, err = c.AddRelationship(b, d)
			require.NoError(t, err)
			past := c.History().PastLen()

			require.NoError(t, c.Layout(context.Background()))
			assert.Equal(t, past+1, c.History().PastLen())

			inner := c.Viewport().Inset(config.DefaultDomainConfig().LayoutPadding)
			for _, n := range c.Nodes() {
				assert.True(t, inner.Contains(n.Position()), "%v outside %v", n.Position(), inner)
			}
		})
	}

	t.Run("empty canvas", func(t *testing.T) {
		c := newTestCanvas(t)
		require.NoError(t, c.Layout(context.Background()))
		assert.False(t, c.History().CanUndo())
	})

	t.Run("layouter error", func(t *testing.T) {
		c := newTestCanvas(t, WithLayouter(failingLayouter{}))
		addNamed(t, c, valueobjects.NodeTypeMatter, "A", 10, 10)
		past := c.History().PastLen()
		before := c.Snapshot()

		assert.Error(t, c.Layout(context.Background()))
		assert.Equal(t, past, c.History().PastLen())
		assert.True(t, before.Equivalent(c.Snapshot()))
	})
}

type failingLayouter struct{}

func (failingLayouter) Layout(context.Context, []*entities.Node, []*entities.Relationship) (map[valueobjects.NodeID]valueobjects.Position, error) {
	return nil, errors.New("layout failed")
}

func TestCanvas_ExportImportRoundTrip(t *testing.T) {
	c := newTestCanvas(t)
	silicon := addNamed(t, c, valueobjects.NodeTypeMatter, "Silicon", 0, 0)
	etch := addNamed(t, c, valueobjects.NodeTypeManufacturing, "Etch", 0, 0)
	temp := addNamed(t, c, valueobjects.NodeTypeParameter, "Temperature", 0, 0)
	_, err := c.SetAttribute(temp, valueobjects.AttrValue, valueobjects.Qualified("300", valueobjects.OpLessEqual))
	require.NoError(t, err)
	_, err = c.AddRelationship(silicon, etch)
	require.NoError(t, err)
	_, err = c.AddRelationship(etch, temp)
	require.NoError(t, err)

	data, err := c.Export()
	require.NoError(t, err)

	other := newTestCanvas(t)
	report, err := other.Import(data)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 1, other.History().PastLen())

	orig := c.Nodes()
	got := other.Nodes()
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.True(t, orig[i].Equivalent(got[i]), "node %d", i)
		assert.True(t, other.Viewport().Contains(got[i].Position()))
	}

	gotRels := other.Relationships()
	require.Len(t, gotRels, 2)
	assert.Equal(t, silicon, gotRels[0].Start())
	assert.Equal(t, etch, gotRels[0].End())

	_, err = other.Import([]byte("not json"))
	assert.Error(t, err)
	assert.Len(t, other.Nodes(), 3)
	assert.Equal(t, 1, other.History().PastLen())

	require.True(t, other.Undo())
	assert.Empty(t, other.Nodes())
}

func TestCanvas_ContextMenu(t *testing.T) {
	c := newTestCanvas(t)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)

	require.NoError(t, c.OpenContextMenu(valueobjects.Pos(5, 5), a))
	menu, ok := c.ContextMenu()
	require.True(t, ok)
	assert.Equal(t, a, menu.Target)

	assert.ErrorIs(t, c.OpenContextMenu(valueobjects.Pos(0, 0), valueobjects.NewNodeID()), ErrNodeNotFound)

	require.NoError(t, c.DeleteNode(a))
	_, ok = c.ContextMenu()
	assert.False(t, ok)

	require.NoError(t, c.OpenContextMenu(valueobjects.Pos(1, 1), valueobjects.NodeID{}))
	c.CloseContextMenu()
	_, ok = c.ContextMenu()
	assert.False(t, ok)
}

func TestCanvas_ResizeNode(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	c := NewCanvas(cfg)
	a := addNamed(t, c, valueobjects.NodeTypeMatter, "A", 0, 0)

	changed, err := c.ResizeNode(a, 10000)
	require.NoError(t, err)
	assert.True(t, changed)
	n, _ := c.Node(a)
	assert.Equal(t, cfg.MaxNodeSize, n.Size())

	past := c.History().PastLen()
	changed, err = c.ResizeNode(a, cfg.MaxNodeSize)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, past, c.History().PastLen())
}
