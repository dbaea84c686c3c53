package commands

import (
	pkgerrors "matflow/pkg/errors"
)

// SaveWorkflowCommand appends a workflow record. WorkflowID is assigned by
// the caller so the new record can be read back after Send.
type SaveWorkflowCommand struct {
	WorkflowID string
	UserID     string
	Workflow   string
}

// Validate implements bus.Command
func (cmd SaveWorkflowCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if cmd.WorkflowID == "" {
		return pkgerrors.NewValidationError("Workflow ID is required!")
	}
	if cmd.Workflow == "" {
		return pkgerrors.NewValidationError("Workflow is required!")
	}
	return nil
}

// DeleteWorkflowCommand removes one of the caller's workflow records
type DeleteWorkflowCommand struct {
	UserID     string
	WorkflowID string
}

// Validate implements bus.Command
func (cmd DeleteWorkflowCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if cmd.WorkflowID == "" {
		return pkgerrors.NewValidationError("Workflow ID is required!")
	}
	return nil
}
