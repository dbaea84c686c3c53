package services

import (
	"context"
	"encoding/json"
	"testing"

	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkflow = `[
  {"id": "m1", "type": "EMMOMatter", "attributes": {"name": "Steel"},
   "relationships": [{"rel_type": "IS_MANUFACTURING_INPUT", "connection": ["m1", "f1"]}]},
  {"id": "f1", "type": "EMMOManufacturing", "attributes": {"name": "Rolling"},
   "relationships": [
     {"rel_type": "X", "connection": ["f1", "f1"]},
     {"rel_type": "IS_MANUFACTURING_OUTPUT", "connection": ["f1", "m1"]},
     {"rel_type": "X", "connection": ["f1", "zz"]},
     {"rel_type": "HAS_PARAMETER", "connection": ["f1", "p1"]}
   ]},
  {"id": "p1", "type": "EMMOParameter",
   "attributes": {"name": "Temperature", "value": {"value": 900, "operator": ">="}, "unit": "C"},
   "relationships": [{"rel_type": "X", "connection": ["p1", "m1"]}]},
  {"id": "m1", "type": "EMMOMatter", "attributes": {}, "relationships": []}
]`

func TestDeserializeWorkflow(t *testing.T) {
	nodes, rels, report, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)

	require.Len(t, nodes, 3)
	assert.Equal(t, valueobjects.NodeTypeMatter, nodes[0].Type())
	assert.Equal(t, "Steel", nodes[0].Name())
	assert.True(t, nodes[2].Attribute(valueobjects.AttrValue).Equal(valueobjects.Qualified("900", valueobjects.OpGreaterEqual)))

	require.Len(t, rels, 2)
	assert.True(t, rels[0].Connects(valueobjects.MustNodeID("m1"), valueobjects.MustNodeID("f1")))
	assert.True(t, rels[1].Connects(valueobjects.MustNodeID("f1"), valueobjects.MustNodeID("p1")))

	assert.Equal(t, []string{"m1"}, report.DuplicateNodes)
	reasons := make([]string, 0, len(report.DroppedRelationships))
	for _, d := range report.DroppedRelationships {
		reasons = append(reasons, d.Reason)
	}
	assert.Equal(t, []string{DropSelf, DropDuplicate, DropUnknownEndpoint, DropIllegal}, reasons)
	assert.False(t, report.Clean())
}

func TestDeserializeWorkflow_BareNumbers(t *testing.T) {
	data := `[{"id": "q1", "type": "EMMOProperty", "relationships": [],
	  "attributes": {"name": "Hardness", "unit": 5, "batch_num": 12.5, "value": {"value": 7, "operator": ">"}}}]`

	nodes, _, _, err := DeserializeWorkflow([]byte(data), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	n := nodes[0]
	assert.True(t, n.Attribute(valueobjects.AttrUnit).Equal(valueobjects.Plain("5")))
	assert.True(t, n.Attribute(valueobjects.AttrBatchNum).Equal(valueobjects.Plain("12.5")))
	assert.True(t, n.Attribute(valueobjects.AttrValue).Equal(valueobjects.Qualified("7", valueobjects.OpGreater)))
}

func TestDeserializeWorkflow_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"object instead of list", `{"id": "a"}`},
		{"unknown node type", `[{"id": "a", "type": "EMMOWidget", "attributes": {}, "relationships": []}]`},
		{"empty id", `[{"id": "", "type": "EMMOMatter", "attributes": {}, "relationships": []}]`},
		{"boolean attribute", `[{"id": "a", "type": "EMMOMatter", "attributes": {"unit": true}, "relationships": []}]`},
		{"bad operator", `[{"id": "a", "type": "EMMOProperty", "attributes": {"value": {"value": "1", "operator": "~"}}, "relationships": []}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := DeserializeWorkflow([]byte(tt.data), config.DefaultDomainConfig())
			assert.Error(t, err)
		})
	}
}

func TestSerializeWorkflow_Sentinels(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	property, err := entities.NewNode(valueobjects.NodeTypeProperty, valueobjects.Pos(0, 0), cfg)
	require.NoError(t, err)
	property.SetAttribute(valueobjects.AttrValue, valueobjects.Plain("5"))
	matter, err := entities.NewNode(valueobjects.NodeTypeMatter, valueobjects.Pos(0, 0), cfg)
	require.NoError(t, err)

	data, err := SerializeWorkflow(
		[]*entities.Node{matter, property},
		[]*entities.Relationship{entities.NewRelationship(matter.ID(), property.ID())},
	)
	require.NoError(t, err)

	var exported []struct {
		ID            string                     `json:"id"`
		Type          string                     `json:"type"`
		Attributes    map[string]json.RawMessage `json:"attributes"`
		Relationships []struct {
			RelType    string    `json:"rel_type"`
			Connection [2]string `json:"connection"`
		} `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 2)

	assert.Equal(t, "EMMOMatter", exported[0].Type)
	assert.JSONEq(t, `"MISSING_NAME"`, string(exported[0].Attributes["name"]))
	require.Len(t, exported[0].Relationships, 1)
	assert.Equal(t, "HAS_PROPERTY", exported[0].Relationships[0].RelType)

	assert.JSONEq(t, `{"value": "5", "operator": "MISSING_VALUE_OR_OPERATOR"}`, string(exported[1].Attributes["value"]))
	assert.Empty(t, exported[1].Relationships)
}

func TestSerializeWorkflow_RoundTrip(t *testing.T) {
	nodes, rels, _, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)

	data, err := SerializeWorkflow(nodes, rels)
	require.NoError(t, err)
	again, againRels, report, err := DeserializeWorkflow(data, nil)
	require.NoError(t, err)

	assert.True(t, report.Clean())
	require.Len(t, again, len(nodes))
	for i := range nodes {
		assert.True(t, nodes[i].Equivalent(again[i]), "node %d", i)
	}
	assert.Len(t, againRels, len(rels))
}

func TestBuildManifest(t *testing.T) {
	nodes, rels, _, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)

	m := BuildManifest(nodes, rels)

	require.Len(t, m.Nodes, 3)
	assert.Equal(t, "Temperature", m.Nodes[2].Name)
	require.Len(t, m.Edges, 2)
	assert.Equal(t, "IS_MANUFACTURING_INPUT", m.Edges[0].RelType)
	assert.Equal(t, "HAS_PARAMETER", m.Edges[1].RelType)
}

func TestNewLayouter(t *testing.T) {
	for _, name := range []string{"", LayoutForce, LayoutHierarchical, LayoutGrid} {
		l, err := NewLayouter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, l)
	}
	_, err := NewLayouter("spiral")
	assert.Error(t, err)
}

func TestLayouters_PlaceEveryNode(t *testing.T) {
	nodes, rels, _, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)

	layouters := map[string]Layouter{
		"force":        NewForceDirectedLayouter(),
		"hierarchical": NewHierarchicalLayouter(),
		"grid":         NewGridLayouter(2),
	}
	for name, l := range layouters {
		t.Run(name, func(t *testing.T) {
			out, err := l.Layout(context.Background(), nodes, rels)
			require.NoError(t, err)
			assert.Len(t, out, len(nodes))
		})
	}
}

func TestHierarchicalLayouter_Columns(t *testing.T) {
	nodes, rels, _, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)

	out, err := NewHierarchicalLayouter().Layout(context.Background(), nodes, rels)
	require.NoError(t, err)

	m1 := out[valueobjects.MustNodeID("m1")]
	f1 := out[valueobjects.MustNodeID("f1")]
	p1 := out[valueobjects.MustNodeID("p1")]
	assert.Less(t, m1.X(), f1.X())
	assert.Less(t, f1.X(), p1.X())
}

func TestLayout_CancelledContext(t *testing.T) {
	nodes, rels, _, err := DeserializeWorkflow([]byte(sampleWorkflow), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewForceDirectedLayouter().Layout(ctx, nodes, rels)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGridPositions(t *testing.T) {
	got := GridPositions(5, 2, 10, valueobjects.Pos(1, 1))

	require.Len(t, got, 5)
	assert.True(t, got[0].Equals(valueobjects.Pos(1, 1)))
	assert.True(t, got[1].Equals(valueobjects.Pos(11, 1)))
	assert.True(t, got[4].Equals(valueobjects.Pos(1, 21)))
}

func TestFitToBounds(t *testing.T) {
	a, b := valueobjects.MustNodeID("a"), valueobjects.MustNodeID("b")
	bounds := valueobjects.ViewportBounds(200, 100)

	t.Run("scales into the padded box", func(t *testing.T) {
		out := FitToBounds(map[valueobjects.NodeID]valueobjects.Position{
			a: valueobjects.Pos(-5, 0),
			b: valueobjects.Pos(5, 0),
		}, bounds, 10)

		assert.InDelta(t, 10, out[a].X(), 1e-9)
		assert.InDelta(t, 190, out[b].X(), 1e-9)
		assert.InDelta(t, 50, out[a].Y(), 1e-9)
	})

	t.Run("single point is centred", func(t *testing.T) {
		out := FitToBounds(map[valueobjects.NodeID]valueobjects.Position{a: valueobjects.Pos(42, -7)}, bounds, 10)
		assert.InDelta(t, 100, out[a].X(), 1e-9)
		assert.InDelta(t, 50, out[a].Y(), 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, FitToBounds(nil, bounds, 10))
	})
}
