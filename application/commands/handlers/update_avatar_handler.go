package handlers

import (
	"context"

	"matflow/application/commands"
	"matflow/application/ports"
	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

// UpdateAvatarHandler uploads a profile image and stores its URL
type UpdateAvatarHandler struct {
	users     ports.UserRepository
	images    ports.ImageStore
	publisher ports.EventPublisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewUpdateAvatarHandler creates a new handler instance
func NewUpdateAvatarHandler(
	users ports.UserRepository,
	images ports.ImageStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *UpdateAvatarHandler {
	return &UpdateAvatarHandler{
		users:     users,
		images:    images,
		publisher: publisher,
		metrics:   metrics,
		logger:    nopIfNil(logger),
	}
}

// Handle uploads the image before touching the account, so a failed upload
// leaves the previous URL in place.
func (h *UpdateAvatarHandler) Handle(ctx context.Context, cmd commands.UpdateAvatarCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	if _, err := h.users.FindByID(ctx, userID); err != nil {
		return ports.MapError("find user", err)
	}

	url, err := h.images.Upload(ctx, userID, cmd.Filename, cmd.Image)
	h.metrics.RecordAvatarUpload(err)
	if err != nil {
		h.logger.Error("Avatar upload failed",
			zap.String("user_id", cmd.UserID),
			zap.Error(err),
		)
		if pkgerrors.IsAppError(err) {
			return err
		}
		return pkgerrors.NewExternalError("image store", err)
	}

	if err := h.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return ports.MapError("update avatar", err)
	}

	publish(ctx, h.publisher, h.logger, events.NewUserUpdated(cmd.UserID, "imageUrl", timeNow()))
	return nil
}
