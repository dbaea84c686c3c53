package entities

import (
	"matflow/domain/core/valueobjects"
)

// Relationship is a directed edge between two nodes on a canvas. It owns no
// data beyond its endpoints.
type Relationship struct {
	id    valueobjects.RelationshipID
	start valueobjects.NodeID
	end   valueobjects.NodeID
}

// NewRelationship creates a relationship with a fresh id.
func NewRelationship(start, end valueobjects.NodeID) *Relationship {
	return &Relationship{
		id:    valueobjects.NewRelationshipID(),
		start: start,
		end:   end,
	}
}

// ReconstructRelationship rebuilds a relationship with a known id.
func ReconstructRelationship(id valueobjects.RelationshipID, start, end valueobjects.NodeID) *Relationship {
	return &Relationship{id: id, start: start, end: end}
}

func (r *Relationship) ID() valueobjects.RelationshipID { return r.id }
func (r *Relationship) Start() valueobjects.NodeID      { return r.start }
func (r *Relationship) End() valueobjects.NodeID        { return r.end }

// Touches reports whether either endpoint is id.
func (r *Relationship) Touches(id valueobjects.NodeID) bool {
	return r.start.Equals(id) || r.end.Equals(id)
}

// Connects reports whether r joins a and b in either direction.
func (r *Relationship) Connects(a, b valueobjects.NodeID) bool {
	return (r.start.Equals(a) && r.end.Equals(b)) || (r.start.Equals(b) && r.end.Equals(a))
}

// Reversed returns a copy with the same id and swapped endpoints.
func (r *Relationship) Reversed() *Relationship {
	return &Relationship{id: r.id, start: r.end, end: r.start}
}

// Clone returns a copy of r
func (r *Relationship) Clone() *Relationship {
	c := *r
	return &c
}
