package aggregates

import (
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
)

// Snapshot is an immutable copy of a canvas's nodes and relationships.
// Accessors return copies, so a snapshot can be shared by both stacks.
type Snapshot struct {
	nodes         []*entities.Node
	relationships []*entities.Relationship
}

func takeSnapshot(nodes []*entities.Node, relationships []*entities.Relationship) Snapshot {
	s := Snapshot{
		nodes:         make([]*entities.Node, len(nodes)),
		relationships: make([]*entities.Relationship, len(relationships)),
	}
	for i, n := range nodes {
		s.nodes[i] = n.Clone()
	}
	for i, r := range relationships {
		s.relationships[i] = r.Clone()
	}
	return s
}

// Nodes returns copies of the snapshot's nodes in canvas order.
func (s Snapshot) Nodes() []*entities.Node {
	out := make([]*entities.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Relationships returns copies of the snapshot's relationships.
func (s Snapshot) Relationships() []*entities.Relationship {
	out := make([]*entities.Relationship, len(s.relationships))
	for i, r := range s.relationships {
		out[i] = r.Clone()
	}
	return out
}

// NodeCount returns the number of nodes in the snapshot
func (s Snapshot) NodeCount() int { return len(s.nodes) }

// Equivalent compares two snapshots node by node and relationship by
// relationship, ignoring editing flags.
func (s Snapshot) Equivalent(other Snapshot) bool {
	if len(s.nodes) != len(other.nodes) || len(s.relationships) != len(other.relationships) {
		return false
	}
	for i, n := range s.nodes {
		o := other.nodes[i]
		if !n.Equivalent(o) || !n.Position().Equals(o.Position()) || n.Size() != o.Size() || n.Layer() != o.Layer() {
			return false
		}
	}
	for i, r := range s.relationships {
		o := other.relationships[i]
		if r.ID() != o.ID() || !r.Start().Equals(o.Start()) || !r.End().Equals(o.End()) {
			return false
		}
	}
	return true
}

func (s Snapshot) hasNode(id valueobjects.NodeID) bool {
	for _, n := range s.nodes {
		if n.ID().Equals(id) {
			return true
		}
	}
	return false
}

// History holds bounded undo and redo stacks. When a stack is full the oldest
// entry is dropped.
type History struct {
	limit  int
	past   []Snapshot
	future []Snapshot
}

// NewHistory creates a history holding at most limit entries per stack.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Record pushes s onto the undo stack and clears the redo stack.
func (h *History) Record(s Snapshot) {
	h.past = pushBounded(h.past, s, h.limit)
	h.future = nil
}

// Undo moves current onto the redo stack and returns the snapshot to restore.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.past) == 0 {
		return Snapshot{}, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = pushBounded(h.future, current, h.limit)
	return prev, true
}

// Redo moves current onto the undo stack and returns the snapshot to restore.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = pushBounded(h.past, current, h.limit)
	return next, true
}

func (h *History) CanUndo() bool  { return len(h.past) > 0 }
func (h *History) CanRedo() bool  { return len(h.future) > 0 }
func (h *History) PastLen() int   { return len(h.past) }
func (h *History) FutureLen() int { return len(h.future) }
func (h *History) Limit() int     { return h.limit }

// Clear drops both stacks.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}

func pushBounded(stack []Snapshot, s Snapshot, limit int) []Snapshot {
	stack = append(stack, s)
	if over := len(stack) - limit; over > 0 {
		// Copy so the dropped prefix can be collected.
		stack = append([]Snapshot(nil), stack[over:]...)
	}
	return stack
}
