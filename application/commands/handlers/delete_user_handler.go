package handlers

import (
	"context"

	"matflow/application/commands"
	"matflow/application/ports"
	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

// DeleteUserHandler removes an account together with its workflows
type DeleteUserHandler struct {
	users     ports.UserRepository
	workflows ports.WorkflowRepository
	cache     ports.Cache
	publisher ports.EventPublisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewDeleteUserHandler creates a new handler instance
func NewDeleteUserHandler(
	users ports.UserRepository,
	workflows ports.WorkflowRepository,
	cache ports.Cache,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *DeleteUserHandler {
	return &DeleteUserHandler{
		users:     users,
		workflows: workflows,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    nopIfNil(logger),
	}
}

// Handle deletes workflows first so an interrupted run never leaves records
// without an owner.
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd commands.DeleteUserCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	if _, err := h.users.FindByID(ctx, userID); err != nil {
		return ports.MapError("find user", err)
	}

	removed, err := h.workflows.DeleteByUser(ctx, userID)
	if err != nil {
		return ports.MapError("delete workflows", err)
	}
	if err := h.users.Delete(ctx, userID); err != nil {
		return ports.MapError("delete user", err)
	}

	h.logger.Info("User deleted",
		zap.String("user_id", cmd.UserID),
		zap.Int("workflows_removed", removed),
	)
	h.metrics.RecordWorkflowDeleted(removed)
	invalidateWorkflowLists(ctx, h.cache, h.logger, cmd.UserID)
	publish(ctx, h.publisher, h.logger, events.NewUserDeleted(cmd.UserID, timeNow()))
	return nil
}
