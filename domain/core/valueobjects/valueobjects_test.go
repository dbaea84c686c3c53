package valueobjects

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		in      string
		want    NodeType
		wantErr bool
	}{
		{in: "matter", want: NodeTypeMatter},
		{in: "EMMOMatter", want: NodeTypeMatter},
		{in: "emmomanufacturing", want: NodeTypeManufacturing},
		{in: " property ", want: NodeTypeProperty},
		{in: "EMMOMetadata", want: NodeTypeMetadata},
		{in: "sample", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNodeType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeType_RequiredAttributes(t *testing.T) {
	assert.Equal(t, []AttributeKey{AttrName}, NodeTypeMatter.RequiredAttributes())
	assert.Equal(t, []AttributeKey{AttrName, AttrValue}, NodeTypeParameter.RequiredAttributes())
	assert.Equal(t, []AttributeKey{AttrName, AttrValue}, NodeTypeProperty.RequiredAttributes())
	assert.Equal(t, "EMMOMeasurement", NodeTypeMeasurement.ExportLabel())
}

func TestRelationshipType(t *testing.T) {
	rt, ok := RelationshipType(NodeTypeMatter, NodeTypeManufacturing)
	assert.True(t, ok)
	assert.Equal(t, RelIsManufacturingInput, rt)

	rt, ok = RelationshipType(NodeTypeManufacturing, NodeTypeMatter)
	assert.True(t, ok)
	assert.Equal(t, RelIsManufacturingOutput, rt)

	_, ok = RelationshipType(NodeTypeProperty, NodeTypeMatter)
	assert.False(t, ok)

	_, ok = RelationshipType(NodeTypeMatter, NodeTypeMatter)
	assert.False(t, ok)

	assert.ElementsMatch(t,
		[]NodeType{NodeTypeParameter, NodeTypeMatter, NodeTypeMetadata},
		AllowedTargets(NodeTypeManufacturing),
	)
}

func TestParseOperator(t *testing.T) {
	for _, s := range []string{"", "<", "<=", "=", "!=", ">=", ">"} {
		op, err := ParseOperator(s)
		require.NoError(t, err, s)
		assert.Equal(t, Operator(s), op)
	}
	_, err := ParseOperator("=>")
	assert.Error(t, err)
}

func TestAttributeValue(t *testing.T) {
	plain := Plain("Si", "Ge")
	assert.False(t, plain.HasQualifiers())
	assert.False(t, plain.HasOperatorValue())
	assert.True(t, plain.HasText())
	assert.Equal(t, []string{"Si", "Ge"}, plain.Values())

	q := Qualified("300", OpGreater)
	assert.True(t, q.HasQualifiers())
	assert.True(t, q.HasOperatorValue())

	assert.True(t, AttributeValue{{Value: "  "}}.IsEmpty())
	assert.False(t, AttributeValue{{Operator: OpEqual}}.IsEmpty())

	clone := plain.Clone()
	clone[0].Value = "C"
	assert.Equal(t, "Si", plain[0].Value)
}

func TestAttributes_Equal(t *testing.T) {
	a := Attributes{AttrName: Plain("Silicon"), AttrUnit: AttributeValue{}}
	b := Attributes{AttrName: Plain("Silicon")}
	assert.True(t, a.Equal(b))

	b[AttrValue] = Qualified("1", OpEqual)
	assert.False(t, a.Equal(b))

	c := a.Clone()
	c[AttrName][0].Value = "Carbon"
	assert.Equal(t, "Silicon", a.Text(AttrName))
}

func TestBounds_ClampDelta(t *testing.T) {
	b := NewBounds(0, 0, 100, 100)
	ps := []Position{Pos(10, 10), Pos(90, 50)}

	dx, dy := b.ClampDelta(ps, 30, -20)
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, -10.0, dy)

	dx, dy = b.ClampDelta(ps, -5, 5)
	assert.Equal(t, -5.0, dx)
	assert.Equal(t, 5.0, dy)

	assert.Equal(t, Pos(100, 0), b.Clamp(Pos(150, -3)))
	assert.True(t, b.Contains(Pos(100, 100)))
}

func TestBounds_Inset(t *testing.T) {
	b := NewBounds(100, 100, 0, 0).Inset(10)
	assert.Equal(t, 10.0, b.MinX())
	assert.Equal(t, 90.0, b.MaxY())

	collapsed := NewBounds(0, 0, 10, 10).Inset(50)
	assert.Equal(t, 5.0, collapsed.MinX())
	assert.Equal(t, 5.0, collapsed.MaxX())
}

func TestNewPosition_RejectsNonFinite(t *testing.T) {
	_, err := NewPosition(math.NaN(), 0)
	assert.Error(t, err)
	_, err = NewPosition(0, math.Inf(1))
	assert.Error(t, err)

	p, err := NewPosition(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.DistanceTo(Pos(0, 0)))
}

func TestNodeID_JSON(t *testing.T) {
	id := MustNodeID("node-1")
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"node-1"`, string(data))

	var back NodeID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, id.Equals(back))

	_, err = NewNodeIDFromString("")
	assert.Error(t, err)
	assert.False(t, NewNodeID().IsZero())
}
