package handlers

import (
	"context"
	"errors"
	"strings"

	"matflow/application/commands"
	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/validators"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

// RegisterUserHandler handles RegisterUserCommand
type RegisterUserHandler struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	validator *validators.UserValidator
	publisher ports.EventPublisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewRegisterUserHandler creates a new handler instance
func NewRegisterUserHandler(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	validator *validators.UserValidator,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:     users,
		hasher:    hasher,
		validator: validator,
		publisher: publisher,
		metrics:   metrics,
		logger:    nopIfNil(logger),
	}
}

// Handle creates the account. Email and username are checked up front for a
// friendly conflict message; the repository enforces the same rule on insert.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd commands.RegisterUserCommand) error {
	if err := h.validator.ValidateRegistration(cmd.Username, cmd.Email, cmd.Password); err != nil {
		return err
	}
	email := entities.NormalizeEmail(cmd.Email)
	username := strings.TrimSpace(cmd.Username)

	if err := h.ensureFree(ctx, email, username); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return pkgerrors.Wrap(err, "hash password")
	}

	user, err := entities.NewUser(username, email, hash)
	if err != nil {
		return err
	}
	if err := h.users.Create(ctx, user); err != nil {
		return ports.MapError("create user", err)
	}

	h.logger.Info("User registered",
		zap.String("user_id", user.ID().String()),
		zap.String("username", user.Username()),
	)
	h.metrics.RecordRegistration()

	publish(ctx, h.publisher, h.logger, user.GetUncommittedEvents()...)
	user.MarkEventsAsCommitted()
	return nil
}

func (h *RegisterUserHandler) ensureFree(ctx context.Context, email, username string) error {
	_, err := h.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ports.MapError("find user", ports.ErrEmailTaken)
	case !errors.Is(err, ports.ErrUserNotFound):
		return ports.MapError("find user", err)
	}

	_, err = h.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ports.MapError("find user", ports.ErrUsernameTaken)
	case !errors.Is(err, ports.ErrUserNotFound):
		return ports.MapError("find user", err)
	}
	return nil
}
