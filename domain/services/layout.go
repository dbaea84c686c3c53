package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Layouter computes node positions in its own coordinate space. Callers fit
// the result into the viewport with FitToBounds.
type Layouter interface {
	Layout(ctx context.Context, nodes []*entities.Node, relationships []*entities.Relationship) (map[valueobjects.NodeID]valueobjects.Position, error)
}

// Layout algorithm names accepted by NewLayouter.
const (
	LayoutForce        = "force"
	LayoutHierarchical = "hierarchical"
	LayoutGrid         = "grid"
)

// NewLayouter returns the layouter registered under name.
func NewLayouter(name string) (Layouter, error) {
	switch name {
	case "", LayoutForce:
		return NewForceDirectedLayouter(), nil
	case LayoutHierarchical:
		return NewHierarchicalLayouter(), nil
	case LayoutGrid:
		return NewGridLayouter(6), nil
	default:
		return nil, fmt.Errorf("unknown layout algorithm %q", name)
	}
}

// indexGraph maps canvas node ids onto dense gonum node ids.
type indexGraph struct {
	ids   []valueobjects.NodeID
	index map[valueobjects.NodeID]int64
}

func newIndexGraph(nodes []*entities.Node) indexGraph {
	ig := indexGraph{
		ids:   make([]valueobjects.NodeID, len(nodes)),
		index: make(map[valueobjects.NodeID]int64, len(nodes)),
	}
	for i, n := range nodes {
		ig.ids[i] = n.ID()
		ig.index[n.ID()] = int64(i)
	}
	return ig
}

func (ig indexGraph) endpoints(r *entities.Relationship) (int64, int64, bool) {
	from, ok1 := ig.index[r.Start()]
	to, ok2 := ig.index[r.End()]
	return from, to, ok1 && ok2 && from != to
}

// ForceDirectedLayouter runs an Eades spring embedding.
type ForceDirectedLayouter struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
}

// NewForceDirectedLayouter returns a layouter with settings that converge for
// workflows of a few hundred nodes.
func NewForceDirectedLayouter() *ForceDirectedLayouter {
	return &ForceDirectedLayouter{
		Updates:   100,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.2,
	}
}

// Layout implements Layouter
func (l *ForceDirectedLayouter) Layout(ctx context.Context, nodes []*entities.Node, relationships []*entities.Relationship) (map[valueobjects.NodeID]valueobjects.Position, error) {
	out := make(map[valueobjects.NodeID]valueobjects.Position, len(nodes))
	if len(nodes) == 0 {
		return out, nil
	}
	if len(nodes) == 1 {
		out[nodes[0].ID()] = valueobjects.Pos(0, 0)
		return out, nil
	}

	ig := newIndexGraph(nodes)
	g := simple.NewUndirectedGraph()
	for i := range nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, r := range relationships {
		if from, to, ok := ig.endpoints(r); ok {
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	eades := layout.EadesR2{
		Updates:   l.Updates,
		Repulsion: l.Repulsion,
		Rate:      l.Rate,
		Theta:     l.Theta,
	}
	opt := layout.NewOptimizerR2(g, eades.Update)
	for opt.Update() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for i, id := range ig.ids {
		v := opt.Coord2(int64(i))
		out[id] = valueobjects.Pos(v.X, v.Y)
	}
	return out, nil
}

// HierarchicalLayouter arranges nodes in columns by longest path along
// relationship direction. Nodes on a cycle share a column.
type HierarchicalLayouter struct {
	ColumnGap float64
	RowGap    float64
}

// NewHierarchicalLayouter returns a layouter with unit spacing.
func NewHierarchicalLayouter() *HierarchicalLayouter {
	return &HierarchicalLayouter{ColumnGap: 1, RowGap: 1}
}

// Layout implements Layouter
func (l *HierarchicalLayouter) Layout(ctx context.Context, nodes []*entities.Node, relationships []*entities.Relationship) (map[valueobjects.NodeID]valueobjects.Position, error) {
	out := make(map[valueobjects.NodeID]valueobjects.Position, len(nodes))
	if len(nodes) == 0 {
		return out, nil
	}

	ig := newIndexGraph(nodes)
	g := simple.NewDirectedGraph()
	for i := range nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, r := range relationships {
		if from, to, ok := ig.endpoints(r); ok {
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	// TarjanSCC yields components in reverse topological order.
	sccs := topo.TarjanSCC(g)
	component := make(map[int64]int, len(nodes))
	for ci, scc := range sccs {
		for _, n := range scc {
			component[n.ID()] = ci
		}
	}

	depth := make([]int, len(sccs))
	for ci := len(sccs) - 1; ci >= 0; ci-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, n := range sccs[ci] {
			succ := g.From(n.ID())
			for succ.Next() {
				cj := component[succ.Node().ID()]
				if cj != ci && depth[cj] < depth[ci]+1 {
					depth[cj] = depth[ci] + 1
				}
			}
		}
	}

	columns := map[int][]int64{}
	for i := range nodes {
		d := depth[component[int64(i)]]
		columns[d] = append(columns[d], int64(i))
	}
	for d, members := range columns {
		sort.Slice(members, func(a, b int) bool {
			return orderKey(g, members[a]) < orderKey(g, members[b])
		})
		offset := float64(len(members)-1) / 2
		for row, idx := range members {
			out[ig.ids[idx]] = valueobjects.Pos(float64(d)*l.ColumnGap, (float64(row)-offset)*l.RowGap)
		}
	}
	return out, nil
}

// orderKey keeps siblings grouped by their first predecessor, then by
// insertion order.
func orderKey(g graph.Directed, id int64) float64 {
	pred := g.To(id)
	first := int64(math.MaxInt32)
	for pred.Next() {
		if p := pred.Node().ID(); p < first {
			first = p
		}
	}
	return float64(first)*1e6 + float64(id)
}

// GridLayouter places nodes row by row in insertion order.
type GridLayouter struct {
	Columns int
}

// NewGridLayouter returns a grid layouter with the given column count.
func NewGridLayouter(columns int) *GridLayouter {
	if columns < 1 {
		columns = 1
	}
	return &GridLayouter{Columns: columns}
}

// Layout implements Layouter
func (l *GridLayouter) Layout(_ context.Context, nodes []*entities.Node, _ []*entities.Relationship) (map[valueobjects.NodeID]valueobjects.Position, error) {
	out := make(map[valueobjects.NodeID]valueobjects.Position, len(nodes))
	for i, n := range nodes {
		out[n.ID()] = valueobjects.Pos(float64(i%l.Columns), float64(i/l.Columns))
	}
	return out, nil
}

// GridPositions returns n positions in a grid anchored at origin.
func GridPositions(n, columns int, gap float64, origin valueobjects.Position) []valueobjects.Position {
	if columns < 1 {
		columns = 1
	}
	out := make([]valueobjects.Position, n)
	for i := range out {
		out[i] = origin.Translate(float64(i%columns)*gap, float64(i/columns)*gap)
	}
	return out
}

// FitToBounds uniformly scales and translates positions so that they fill
// bounds shrunk by padding, centred. A degenerate axis is centred.
func FitToBounds(positions map[valueobjects.NodeID]valueobjects.Position, bounds valueobjects.Bounds, padding float64) map[valueobjects.NodeID]valueobjects.Position {
	out := make(map[valueobjects.NodeID]valueobjects.Position, len(positions))
	if len(positions) == 0 {
		return out
	}

	inner := bounds.Inset(padding)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X())
		minY = math.Min(minY, p.Y())
		maxX = math.Max(maxX, p.X())
		maxY = math.Max(maxY, p.Y())
	}
	w, h := maxX-minX, maxY-minY

	scale := math.Inf(1)
	if w > 0 {
		scale = inner.Width() / w
	}
	if h > 0 {
		scale = math.Min(scale, inner.Height()/h)
	}
	if math.IsInf(scale, 1) {
		scale = 0
	}

	cx := (inner.MinX() + inner.MaxX()) / 2
	cy := (inner.MinY() + inner.MaxY()) / 2
	mx := (minX + maxX) / 2
	my := (minY + maxY) / 2
	for id, p := range positions {
		out[id] = inner.Clamp(valueobjects.Pos(cx+(p.X()-mx)*scale, cy+(p.Y()-my)*scale))
	}
	return out
}
