package aggregates

import "errors"

// Canvas errors. Every one of them leaves the canvas unchanged.
var (
	ErrNodeNotFound             = errors.New("node not found")
	ErrRelationshipNotFound     = errors.New("relationship not found")
	ErrSelfRelationship         = errors.New("cannot connect a node to itself")
	ErrDuplicateRelationship    = errors.New("nodes are already connected")
	ErrIllegalRelationship      = errors.New("relationship between these node types is not allowed")
	ErrIrreversibleRelationship = errors.New("relationship cannot be reversed")
	ErrNoConnection             = errors.New("no connection in progress")
	ErrInvalidNodeType          = errors.New("invalid node type")
	ErrInvalidPosition          = errors.New("coordinates must be finite numbers")
)
