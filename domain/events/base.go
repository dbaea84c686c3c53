package events

import (
	"time"
)

// SourceBackend is the event source name used on the bus.
const SourceBackend = "matflow.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeUserRegistered  = "user.registered"
	TypeUserUpdated     = "user.updated"
	TypeUserDeleted     = "user.deleted"
	TypeWorkflowSaved   = "workflow.saved"
	TypeWorkflowDeleted = "workflow.deleted"
)

// User Events

// UserRegistered is raised when an account is created
type UserRegistered struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserRegistered creates a UserRegistered event
func NewUserRegistered(userID, username, email string, timestamp time.Time) UserRegistered {
	return UserRegistered{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeUserRegistered,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:   userID,
		Username: username,
		Email:    email,
	}
}

// UserUpdated is raised when a single profile field changes. The new value is
// not carried for the password field.
type UserUpdated struct {
	BaseEvent
	UserID string `json:"user_id"`
	Field  string `json:"field"`
}

// NewUserUpdated creates a UserUpdated event
func NewUserUpdated(userID, field string, timestamp time.Time) UserUpdated {
	return UserUpdated{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeUserUpdated,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID: userID,
		Field:  field,
	}
}

// UserDeleted is raised when an account is removed
type UserDeleted struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewUserDeleted creates a UserDeleted event
func NewUserDeleted(userID string, timestamp time.Time) UserDeleted {
	return UserDeleted{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeUserDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID: userID,
	}
}

// Workflow Events

// WorkflowSaved is raised when a workflow record is appended
type WorkflowSaved struct {
	BaseEvent
	WorkflowID string `json:"workflow_id"`
	UserID     string `json:"user_id"`
	Checksum   string `json:"checksum"`
}

// NewWorkflowSaved creates a WorkflowSaved event
func NewWorkflowSaved(workflowID, userID, checksum string, timestamp time.Time) WorkflowSaved {
	return WorkflowSaved{
		BaseEvent: BaseEvent{
			AggregateID: workflowID,
			EventType:   TypeWorkflowSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		WorkflowID: workflowID,
		UserID:     userID,
		Checksum:   checksum,
	}
}

// WorkflowDeleted is raised when a workflow record is removed
type WorkflowDeleted struct {
	BaseEvent
	WorkflowID string `json:"workflow_id"`
	UserID     string `json:"user_id"`
}

// NewWorkflowDeleted creates a WorkflowDeleted event
func NewWorkflowDeleted(workflowID, userID string, timestamp time.Time) WorkflowDeleted {
	return WorkflowDeleted{
		BaseEvent: BaseEvent{
			AggregateID: workflowID,
			EventType:   TypeWorkflowDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		WorkflowID: workflowID,
		UserID:     userID,
	}
}
