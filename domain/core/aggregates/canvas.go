// Package aggregates holds the canvas aggregate: the authoritative in-memory
// state of one open workflow, with its interaction state and undo history.
package aggregates

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/domain/services"
)

// ContextMenu is the anchor of an open context menu. Target is zero when the
// menu was opened on empty canvas.
type ContextMenu struct {
	Position valueobjects.Position
	Target   valueobjects.NodeID
}

type dragSession struct {
	ids       []valueobjects.NodeID
	before    Snapshot
	pendingDX float64
	pendingDY float64
	moved     bool
}

// Canvas is the aggregate root for one workflow being edited.
// It is not safe for concurrent use.
type Canvas struct {
	cfg *config.DomainConfig

	nodes    map[valueobjects.NodeID]*entities.Node
	order    []valueobjects.NodeID
	rels     map[valueobjects.RelationshipID]*entities.Relationship
	relOrder []valueobjects.RelationshipID

	selection  map[valueobjects.NodeID]struct{}
	connecting valueobjects.NodeID
	drag       *dragSession
	menu       *ContextMenu
	viewport   valueobjects.Bounds
	nextLayer  int

	history  *History
	layouter services.Layouter
	limiter  *rate.Limiter
	now      func() time.Time
}

// CanvasOption customises a Canvas at construction.
type CanvasOption func(*Canvas)

// WithLayouter replaces the default force-directed layouter.
func WithLayouter(l services.Layouter) CanvasOption {
	return func(c *Canvas) {
		if l != nil {
			c.layouter = l
		}
	}
}

// WithClock sets the clock used by the drag throttle.
func WithClock(now func() time.Time) CanvasOption {
	return func(c *Canvas) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCanvas creates an empty canvas sized to the configured viewport.
func NewCanvas(cfg *config.DomainConfig, opts ...CanvasOption) *Canvas {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	limit := rate.Inf
	if cfg.DragThrottle > 0 {
		limit = rate.Every(cfg.DragThrottle)
	}

	c := &Canvas{
		cfg:       cfg,
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		rels:      make(map[valueobjects.RelationshipID]*entities.Relationship),
		selection: make(map[valueobjects.NodeID]struct{}),
		viewport:  valueobjects.ViewportBounds(cfg.ViewportWidth, cfg.ViewportHeight),
		history:   NewHistory(cfg.HistoryLimit),
		layouter:  services.NewForceDirectedLayouter(),
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History exposes the undo stacks for inspection.
func (c *Canvas) History() *History { return c.history }

// Viewport returns the bounds nodes are kept inside.
func (c *Canvas) Viewport() valueobjects.Bounds { return c.viewport }

// SetViewport changes the bounds used for clamping, layout and import. Nodes
// already on the canvas are not moved.
func (c *Canvas) SetViewport(b valueobjects.Bounds) { c.viewport = b }

// Node returns a copy of the node with the given id.
func (c *Canvas) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (c *Canvas) Nodes() []*entities.Node {
	out := make([]*entities.Node, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.nodes[id].Clone())
	}
	return out
}

// Relationships returns copies of all relationships in insertion order.
func (c *Canvas) Relationships() []*entities.Relationship {
	out := make([]*entities.Relationship, 0, len(c.relOrder))
	for _, id := range c.relOrder {
		out = append(out, c.rels[id].Clone())
	}
	return out
}

// RelationshipTypeOf returns the exported relationship name for id.
func (c *Canvas) RelationshipTypeOf(id valueobjects.RelationshipID) (valueobjects.RelType, error) {
	r, ok := c.rels[id]
	if !ok {
		return "", ErrRelationshipNotFound
	}
	rt, _ := valueobjects.RelationshipType(c.nodes[r.Start()].Type(), c.nodes[r.End()].Type())
	return rt, nil
}

// Snapshot captures the current nodes and relationships.
func (c *Canvas) Snapshot() Snapshot {
	return takeSnapshot(c.orderedNodes(), c.orderedRelationships())
}

func (c *Canvas) orderedNodes() []*entities.Node {
	out := make([]*entities.Node, len(c.order))
	for i, id := range c.order {
		out[i] = c.nodes[id]
	}
	return out
}

func (c *Canvas) orderedRelationships() []*entities.Relationship {
	out := make([]*entities.Relationship, len(c.relOrder))
	for i, id := range c.relOrder {
		out[i] = c.rels[id]
	}
	return out
}

func (c *Canvas) record() {
	c.history.Record(c.Snapshot())
}

// restore replaces the canvas content with s. Editing flags are cleared and
// transient state that points at vanished nodes is dropped.
func (c *Canvas) restore(s Snapshot) {
	c.replace(s.Nodes(), s.Relationships())
	for _, id := range c.order {
		c.nodes[id].SetEditing(false)
	}
}

func (c *Canvas) replace(nodes []*entities.Node, relationships []*entities.Relationship) {
	c.nodes = make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	c.order = make([]valueobjects.NodeID, 0, len(nodes))
	c.nextLayer = 0
	for _, n := range nodes {
		c.nodes[n.ID()] = n
		c.order = append(c.order, n.ID())
		if n.Layer() >= c.nextLayer {
			c.nextLayer = n.Layer() + 1
		}
	}
	c.rels = make(map[valueobjects.RelationshipID]*entities.Relationship, len(relationships))
	c.relOrder = make([]valueobjects.RelationshipID, 0, len(relationships))
	for _, r := range relationships {
		c.rels[r.ID()] = r
		c.relOrder = append(c.relOrder, r.ID())
	}
	c.pruneTransient()
}

func (c *Canvas) pruneTransient() {
	for id := range c.selection {
		if _, ok := c.nodes[id]; !ok {
			delete(c.selection, id)
		}
	}
	if !c.connecting.IsZero() {
		if _, ok := c.nodes[c.connecting]; !ok {
			c.connecting = valueobjects.NodeID{}
		}
	}
	if c.menu != nil && !c.menu.Target.IsZero() {
		if _, ok := c.nodes[c.menu.Target]; !ok {
			c.menu = nil
		}
	}
}

// AddNode creates a node of the given type at position, clamped into the
// viewport. When a connection is pending, the relationship from the pending
// node to the new node is created in the same undo step and the connector is
// cleared. If that relationship is rejected the node is kept and the
// relationship error is returned alongside its id.
func (c *Canvas) AddNode(nodeType valueobjects.NodeType, position valueobjects.Position) (valueobjects.NodeID, error) {
	if !nodeType.IsValid() {
		return valueobjects.NodeID{}, ErrInvalidNodeType
	}
	if !position.IsFinite() {
		return valueobjects.NodeID{}, ErrInvalidPosition
	}
	node, err := entities.NewNode(nodeType, c.viewport.Clamp(position), c.cfg)
	if err != nil {
		return valueobjects.NodeID{}, err
	}

	c.record()
	node.SetLayer(c.nextLayer)
	c.nextLayer++
	c.nodes[node.ID()] = node
	c.order = append(c.order, node.ID())

	if c.connecting.IsZero() {
		return node.ID(), nil
	}
	from := c.connecting
	c.connecting = valueobjects.NodeID{}
	if _, err := c.addRelationship(from, node.ID()); err != nil {
		return node.ID(), err
	}
	return node.ID(), nil
}

// AddRelationship connects start to end.
func (c *Canvas) AddRelationship(start, end valueobjects.NodeID) (valueobjects.RelationshipID, error) {
	if err := c.checkRelationship(start, end); err != nil {
		return valueobjects.RelationshipID{}, err
	}
	c.record()
	return c.addRelationship(start, end)
}

func (c *Canvas) checkRelationship(start, end valueobjects.NodeID) error {
	a, okA := c.nodes[start]
	b, okB := c.nodes[end]
	if !okA || !okB {
		return ErrNodeNotFound
	}
	if start.Equals(end) {
		return ErrSelfRelationship
	}
	for _, id := range c.relOrder {
		if c.rels[id].Connects(start, end) {
			return ErrDuplicateRelationship
		}
	}
	if !valueobjects.IsAllowedRelationship(a.Type(), b.Type()) {
		return ErrIllegalRelationship
	}
	return nil
}

// addRelationship validates and inserts without touching history.
func (c *Canvas) addRelationship(start, end valueobjects.NodeID) (valueobjects.RelationshipID, error) {
	if err := c.checkRelationship(start, end); err != nil {
		return valueobjects.RelationshipID{}, err
	}
	r := entities.NewRelationship(start, end)
	c.rels[r.ID()] = r
	c.relOrder = append(c.relOrder, r.ID())
	return r.ID(), nil
}

// StartConnection marks id as the start of a pending relationship.
func (c *Canvas) StartConnection(id valueobjects.NodeID) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	c.connecting = id
	return nil
}

// CancelConnection drops any pending connector.
func (c *Canvas) CancelConnection() {
	c.connecting = valueobjects.NodeID{}
}

// ConnectingNode returns the pending connector, if any.
func (c *Canvas) ConnectingNode() (valueobjects.NodeID, bool) {
	return c.connecting, !c.connecting.IsZero()
}

// Click handles a click on node id. A pending connection is completed first,
// and cleared whatever the outcome; otherwise the node's selection is toggled.
func (c *Canvas) Click(id valueobjects.NodeID) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	if !c.connecting.IsZero() {
		from := c.connecting
		c.connecting = valueobjects.NodeID{}
		_, err := c.AddRelationship(from, id)
		return err
	}
	c.ToggleSelection(id)
	return nil
}

// Select adds id to the selection.
func (c *Canvas) Select(id valueobjects.NodeID) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	c.selection[id] = struct{}{}
	return nil
}

// Deselect removes id from the selection.
func (c *Canvas) Deselect(id valueobjects.NodeID) {
	delete(c.selection, id)
}

// ToggleSelection flips the selection state of id.
func (c *Canvas) ToggleSelection(id valueobjects.NodeID) {
	if _, ok := c.selection[id]; ok {
		delete(c.selection, id)
		return
	}
	if _, ok := c.nodes[id]; ok {
		c.selection[id] = struct{}{}
	}
}

func (c *Canvas) ClearSelection() {
	c.selection = make(map[valueobjects.NodeID]struct{})
}

// Selection returns the selected node ids in insertion order.
func (c *Canvas) Selection() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(c.selection))
	for _, id := range c.order {
		if _, ok := c.selection[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// BeginDrag starts a drag gesture on id. When id belongs to a selection of
// more than one node the whole selection is dragged. Dragged nodes are raised
// to the top of the layer order.
func (c *Canvas) BeginDrag(id valueobjects.NodeID) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	c.EndDrag()

	ids := []valueobjects.NodeID{id}
	if _, selected := c.selection[id]; selected && len(c.selection) > 1 {
		ids = c.Selection()
	}

	c.drag = &dragSession{ids: ids, before: c.Snapshot()}
	for _, nid := range ids {
		c.nodes[nid].SetLayer(c.nextLayer)
		c.nextLayer++
	}
	return nil
}

// Dragging reports whether a drag gesture is active.
func (c *Canvas) Dragging() bool { return c.drag != nil }

// DragBy moves the dragged nodes by (dx, dy). Moves arriving faster than the
// throttle allows are accumulated and applied on the next allowed move or at
// EndDrag. Non-finite moves are ignored.
func (c *Canvas) DragBy(dx, dy float64) {
	if c.drag == nil || !valueobjects.Pos(dx, dy).IsFinite() {
		return
	}
	c.drag.pendingDX += dx
	c.drag.pendingDY += dy
	if c.limiter.AllowN(c.now(), 1) {
		c.flushDrag()
	}
}

func (c *Canvas) flushDrag() {
	d := c.drag
	if d.pendingDX == 0 && d.pendingDY == 0 {
		return
	}
	positions := make([]valueobjects.Position, len(d.ids))
	for i, id := range d.ids {
		positions[i] = c.nodes[id].Position()
	}
	dx, dy := c.viewport.ClampDelta(positions, d.pendingDX, d.pendingDY)
	d.pendingDX, d.pendingDY = 0, 0
	for i, id := range d.ids {
		if c.nodes[id].MoveTo(positions[i].Translate(dx, dy)) {
			d.moved = true
		}
	}
}

// EndDrag applies any pending displacement and records the gesture as one
// undo step if anything moved.
func (c *Canvas) EndDrag() {
	if c.drag == nil {
		return
	}
	c.flushDrag()
	d := c.drag
	c.drag = nil
	if d.moved {
		c.history.Record(d.before)
	}
}

// MoveNode performs a whole drag gesture of (dx, dy) on id.
func (c *Canvas) MoveNode(id valueobjects.NodeID, dx, dy float64) error {
	if !valueobjects.Pos(dx, dy).IsFinite() {
		return ErrInvalidPosition
	}
	if err := c.BeginDrag(id); err != nil {
		return err
	}
	c.drag.pendingDX, c.drag.pendingDY = dx, dy
	c.EndDrag()
	return nil
}

// SetAttribute replaces one attribute slot of id. History is only recorded
// when the value changes.
func (c *Canvas) SetAttribute(id valueobjects.NodeID, key valueobjects.AttributeKey, value valueobjects.AttributeValue) (bool, error) {
	return c.UpdateAttributes(id, valueobjects.Attributes{key: value})
}

// RenameNode sets the name slot of id.
func (c *Canvas) RenameNode(id valueobjects.NodeID, name string) (bool, error) {
	return c.SetAttribute(id, valueobjects.AttrName, valueobjects.Plain(name))
}

// UpdateAttributes replaces several slots as one undo step. An empty value
// clears its slot.
func (c *Canvas) UpdateAttributes(id valueobjects.NodeID, attrs valueobjects.Attributes) (bool, error) {
	n, ok := c.nodes[id]
	if !ok {
		return false, ErrNodeNotFound
	}
	before := c.Snapshot()
	changed := false
	for _, key := range valueobjects.AllAttributeKeys {
		v, present := attrs[key]
		if !present {
			continue
		}
		if n.SetAttribute(key, v) {
			changed = true
		}
	}
	if changed {
		c.history.Record(before)
	}
	return changed, nil
}

// SetEditing toggles the editing flag of id. Editing state is not undoable.
func (c *Canvas) SetEditing(id valueobjects.NodeID, editing bool) error {
	n, ok := c.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.SetEditing(editing)
	return nil
}

// ResizeNode sets the display size of id within the configured range.
func (c *Canvas) ResizeNode(id valueobjects.NodeID, size float64) (bool, error) {
	n, ok := c.nodes[id]
	if !ok {
		return false, ErrNodeNotFound
	}
	before := c.Snapshot()
	if !n.Resize(size, c.cfg) {
		return false, nil
	}
	c.history.Record(before)
	return true, nil
}

// DeleteNode removes id and every relationship touching it.
func (c *Canvas) DeleteNode(id valueobjects.NodeID) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	c.EndDrag()
	c.record()
	c.removeNodes(map[valueobjects.NodeID]struct{}{id: {}})
	return nil
}

// DeleteSelection removes every selected node as one undo step.
func (c *Canvas) DeleteSelection() int {
	if len(c.selection) == 0 {
		return 0
	}
	c.EndDrag()
	c.record()
	doomed := make(map[valueobjects.NodeID]struct{}, len(c.selection))
	for id := range c.selection {
		doomed[id] = struct{}{}
	}
	c.removeNodes(doomed)
	return len(doomed)
}

func (c *Canvas) removeNodes(doomed map[valueobjects.NodeID]struct{}) {
	order := c.order[:0]
	for _, id := range c.order {
		if _, gone := doomed[id]; gone {
			delete(c.nodes, id)
			continue
		}
		order = append(order, id)
	}
	c.order = order

	relOrder := c.relOrder[:0]
	for _, rid := range c.relOrder {
		r := c.rels[rid]
		_, startGone := doomed[r.Start()]
		_, endGone := doomed[r.End()]
		if startGone || endGone {
			delete(c.rels, rid)
			continue
		}
		relOrder = append(relOrder, rid)
	}
	c.relOrder = relOrder
	c.pruneTransient()
}

// DeleteRelationship removes one relationship.
func (c *Canvas) DeleteRelationship(id valueobjects.RelationshipID) error {
	if _, ok := c.rels[id]; !ok {
		return ErrRelationshipNotFound
	}
	c.record()
	delete(c.rels, id)
	for i, rid := range c.relOrder {
		if rid == id {
			c.relOrder = append(c.relOrder[:i], c.relOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ReverseRelationship swaps the endpoints of id if the reversed type pair is
// allowed.
func (c *Canvas) ReverseRelationship(id valueobjects.RelationshipID) error {
	r, ok := c.rels[id]
	if !ok {
		return ErrRelationshipNotFound
	}
	if !valueobjects.IsAllowedRelationship(c.nodes[r.End()].Type(), c.nodes[r.Start()].Type()) {
		return ErrIrreversibleRelationship
	}
	c.record()
	c.rels[id] = r.Reversed()
	return nil
}

// Layout repositions every node with the canvas layouter and fits the result
// into the viewport. A layouter error leaves the canvas unchanged.
func (c *Canvas) Layout(ctx context.Context) error {
	if len(c.order) == 0 {
		return nil
	}
	c.EndDrag()
	positions, err := c.layouter.Layout(ctx, c.orderedNodes(), c.orderedRelationships())
	if err != nil {
		return err
	}
	positions = services.FitToBounds(positions, c.viewport, c.cfg.LayoutPadding)

	c.record()
	for id, p := range positions {
		if n, ok := c.nodes[id]; ok {
			n.MoveTo(p)
		}
	}
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (c *Canvas) Undo() bool {
	c.EndDrag()
	prev, ok := c.history.Undo(c.Snapshot())
	if !ok {
		return false
	}
	c.restore(prev)
	return true
}

// Redo re-applies the most recently undone snapshot.
func (c *Canvas) Redo() bool {
	c.EndDrag()
	next, ok := c.history.Redo(c.Snapshot())
	if !ok {
		return false
	}
	c.restore(next)
	return true
}

// Export serialises the canvas to the workflow export format.
func (c *Canvas) Export() ([]byte, error) {
	return services.SerializeWorkflow(c.orderedNodes(), c.orderedRelationships())
}

// Import replaces the canvas content with a decoded workflow as one undo
// step. Nodes are spread on a grid inside the viewport. Parse errors leave the
// canvas unchanged.
func (c *Canvas) Import(data []byte) (services.DecodeReport, error) {
	nodes, relationships, report, err := services.DeserializeWorkflow(data, c.cfg)
	if err != nil {
		return report, err
	}
	c.EndDrag()
	c.record()

	inner := c.viewport.Inset(c.cfg.LayoutPadding)
	origin := valueobjects.Pos(inner.MinX(), inner.MinY())
	grid := services.GridPositions(len(nodes), c.cfg.ImportGridColumn, c.cfg.ImportGridGap, origin)
	for i, n := range nodes {
		n.MoveTo(inner.Clamp(grid[i]))
	}
	c.replace(nodes, relationships)
	c.connecting = valueobjects.NodeID{}
	return report, nil
}

// OpenContextMenu anchors a context menu at position, optionally on a node.
func (c *Canvas) OpenContextMenu(position valueobjects.Position, target valueobjects.NodeID) error {
	if !target.IsZero() {
		if _, ok := c.nodes[target]; !ok {
			return ErrNodeNotFound
		}
	}
	c.menu = &ContextMenu{Position: position, Target: target}
	return nil
}

func (c *Canvas) CloseContextMenu() { c.menu = nil }

// ContextMenu returns the open context menu, if any.
func (c *Canvas) ContextMenu() (ContextMenu, bool) {
	if c.menu == nil {
		return ContextMenu{}, false
	}
	return *c.menu, true
}

// Warnings lists, per incomplete node, the required attributes it is missing.
// Incomplete nodes are never blocked from connecting.
func (c *Canvas) Warnings() map[valueobjects.NodeID][]valueobjects.AttributeKey {
	out := make(map[valueobjects.NodeID][]valueobjects.AttributeKey)
	for _, id := range c.order {
		if missing := c.nodes[id].MissingAttributes(); len(missing) > 0 {
			out[id] = missing
		}
	}
	return out
}
