package handlers

import (
	"context"

	"matflow/application/ports"
	"matflow/application/queries"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
)

// GetCurrentUserHandler handles GetCurrentUserQuery
type GetCurrentUserHandler struct {
	users ports.UserRepository
}

// NewGetCurrentUserHandler creates a new handler instance
func NewGetCurrentUserHandler(users ports.UserRepository) *GetCurrentUserHandler {
	return &GetCurrentUserHandler{users: users}
}

// Handle returns the public view of the caller's account
func (h *GetCurrentUserHandler) Handle(ctx context.Context, query queries.GetCurrentUserQuery) (*entities.PublicUser, error) {
	userID, err := valueobjects.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, err
	}
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ports.MapError("find user", err)
	}
	view := user.PublicView()
	return &view, nil
}
