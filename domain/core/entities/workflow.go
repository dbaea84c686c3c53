package entities

import (
	"strings"
	"time"

	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	"matflow/domain/versioning"
	pkgerrors "matflow/pkg/errors"
)

// Workflow is one saved export blob. Records are append-only: a save creates
// a new record and existing ones are never edited.
type Workflow struct {
	id        valueobjects.WorkflowID
	userID    valueobjects.UserID
	blob      string
	checksum  string
	timestamp time.Time
}

// NewWorkflow creates a record for blob owned by userID. A zero id is
// replaced with a fresh one.
func NewWorkflow(id valueobjects.WorkflowID, userID valueobjects.UserID, blob string, maxBytes int) (*Workflow, error) {
	if userID.IsZero() {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if strings.TrimSpace(blob) == "" {
		return nil, pkgerrors.NewValidationError("workflow is required")
	}
	if maxBytes > 0 && len(blob) > maxBytes {
		return nil, pkgerrors.NewValidationError("workflow exceeds maximum size")
	}
	if id.IsZero() {
		id = valueobjects.NewWorkflowID()
	}
	return &Workflow{
		id:        id,
		userID:    userID,
		blob:      blob,
		checksum:  versioning.Checksum([]byte(blob)),
		timestamp: time.Now().UTC(),
	}, nil
}

// ReconstructWorkflow rebuilds a record from storage.
func ReconstructWorkflow(id, userID, blob, checksum string, timestamp time.Time) (*Workflow, error) {
	wid, err := valueobjects.NewWorkflowIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	uid, err := valueobjects.NewUserIDFromString(userID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if checksum == "" {
		checksum = versioning.Checksum([]byte(blob))
	}
	return &Workflow{id: wid, userID: uid, blob: blob, checksum: checksum, timestamp: timestamp}, nil
}

func (w *Workflow) ID() valueobjects.WorkflowID { return w.id }
func (w *Workflow) UserID() valueobjects.UserID { return w.userID }
func (w *Workflow) Blob() string                { return w.blob }
func (w *Workflow) Checksum() string            { return w.checksum }
func (w *Workflow) Timestamp() time.Time        { return w.timestamp }

// SavedEvent describes the creation of w.
func (w *Workflow) SavedEvent() events.DomainEvent {
	return events.NewWorkflowSaved(w.id.String(), w.userID.String(), w.checksum, w.timestamp)
}

// WorkflowView is the client-facing representation.
type WorkflowView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Workflow  string    `json:"workflow"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// View renders w for responses.
func (w *Workflow) View() WorkflowView {
	return WorkflowView{
		ID:        w.id.String(),
		UserID:    w.userID.String(),
		Workflow:  w.blob,
		Checksum:  w.checksum,
		Timestamp: w.timestamp,
	}
}
