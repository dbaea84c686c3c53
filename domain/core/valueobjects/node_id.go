package valueobjects

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier.
// Imported workflows may carry ids minted elsewhere, so any non-empty
// string is accepted.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID is NewNodeIDFromString for literals known to be valid.
func MustNodeID(id string) NodeID {
	nid, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nid
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = s
	return nil
}

// RelationshipID identifies a relationship on a canvas. Relationship ids are
// never exported, so they are always minted locally.
type RelationshipID struct {
	value string
}

// NewRelationshipID creates a new random RelationshipID
func NewRelationshipID() RelationshipID {
	return RelationshipID{value: uuid.New().String()}
}

// NewRelationshipIDFromString creates a RelationshipID from an existing string
func NewRelationshipIDFromString(id string) (RelationshipID, error) {
	if id == "" {
		return RelationshipID{}, errors.New("relationship ID cannot be empty")
	}
	return RelationshipID{value: id}, nil
}

func (id RelationshipID) String() string { return id.value }

func (id RelationshipID) IsZero() bool { return id.value == "" }

// UserID identifies an account.
type UserID struct {
	value string
}

// NewUserID creates a new random UserID
func NewUserID() UserID {
	return UserID{value: uuid.New().String()}
}

// NewUserIDFromString creates a UserID from an existing string
func NewUserIDFromString(id string) (UserID, error) {
	if id == "" {
		return UserID{}, errors.New("user ID cannot be empty")
	}
	return UserID{value: id}, nil
}

func (id UserID) String() string { return id.value }

func (id UserID) IsZero() bool { return id.value == "" }

// WorkflowID identifies a persisted workflow record.
type WorkflowID struct {
	value string
}

// NewWorkflowID creates a new random WorkflowID
func NewWorkflowID() WorkflowID {
	return WorkflowID{value: uuid.New().String()}
}

// NewWorkflowIDFromString creates a WorkflowID from an existing string
func NewWorkflowIDFromString(id string) (WorkflowID, error) {
	if id == "" {
		return WorkflowID{}, errors.New("workflow ID cannot be empty")
	}
	return WorkflowID{value: id}, nil
}

func (id WorkflowID) String() string { return id.value }

func (id WorkflowID) IsZero() bool { return id.value == "" }
