package handlers

import (
	"context"
	"time"

	"matflow/application/commands"
	"matflow/application/ports"
	"matflow/domain/config"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// WorkflowHandler handles saving and deleting workflow records
type WorkflowHandler struct {
	workflows ports.WorkflowRepository
	cache     ports.Cache
	publisher ports.EventPublisher
	metrics   *observability.Collector
	maxBytes  int
	logger    *zap.Logger
}

// NewWorkflowHandler creates a new handler instance
func NewWorkflowHandler(
	workflows ports.WorkflowRepository,
	cache ports.Cache,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		workflows: workflows,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		maxBytes:  cfg.MaxWorkflowBytes,
		logger:    nopIfNil(logger),
	}
}

// HandleSave appends a record. The blob is stored as sent.
func (h *WorkflowHandler) HandleSave(ctx context.Context, cmd commands.SaveWorkflowCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	workflowID, err := valueobjects.NewWorkflowIDFromString(cmd.WorkflowID)
	if err != nil {
		return err
	}

	wf, err := entities.NewWorkflow(workflowID, userID, cmd.Workflow, h.maxBytes)
	if err != nil {
		return err
	}
	if err := h.workflows.Save(ctx, wf); err != nil {
		return ports.MapError("save workflow", err)
	}

	h.logger.Info("Workflow saved",
		zap.String("workflow_id", wf.ID().String()),
		zap.String("user_id", cmd.UserID),
		zap.Int("bytes", len(cmd.Workflow)),
	)
	h.metrics.RecordWorkflowSaved(len(cmd.Workflow))
	invalidateWorkflowLists(ctx, h.cache, h.logger, cmd.UserID)
	publish(ctx, h.publisher, h.logger, wf.SavedEvent())
	return nil
}

// HandleDelete removes one of the caller's records
func (h *WorkflowHandler) HandleDelete(ctx context.Context, cmd commands.DeleteWorkflowCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	workflowID, err := valueobjects.NewWorkflowIDFromString(cmd.WorkflowID)
	if err != nil {
		return err
	}

	if err := h.workflows.Delete(ctx, userID, workflowID); err != nil {
		return ports.MapError("delete workflow", err)
	}

	h.metrics.RecordWorkflowDeleted(1)
	invalidateWorkflowLists(ctx, h.cache, h.logger, cmd.UserID)
	publish(ctx, h.publisher, h.logger, events.NewWorkflowDeleted(cmd.WorkflowID, cmd.UserID, timeNow()))
	return nil
}
