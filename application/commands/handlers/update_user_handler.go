package handlers

import (
	"context"
	"errors"
	"strings"

	"matflow/application/commands"
	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/validators"
	"matflow/domain/core/valueobjects"
	"matflow/domain/events"
	pkgerrors "matflow/pkg/errors"

	"go.uber.org/zap"
)

// UpdateUserHandler handles single-field profile updates and password changes
type UpdateUserHandler struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	validator *validators.UserValidator
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewUpdateUserHandler creates a new handler instance
func NewUpdateUserHandler(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	validator *validators.UserValidator,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *UpdateUserHandler {
	return &UpdateUserHandler{
		users:     users,
		hasher:    hasher,
		validator: validator,
		publisher: publisher,
		logger:    nopIfNil(logger),
	}
}

// HandleField replaces one profile field
func (h *UpdateUserHandler) HandleField(ctx context.Context, cmd commands.UpdateUserFieldCommand) error {
	value := strings.TrimSpace(cmd.Value)
	if err := h.validateField(cmd.Field, value); err != nil {
		return err
	}

	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}
	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return ports.MapError("find user", err)
	}

	switch cmd.Field {
	case commands.FieldName:
		err = h.users.UpdateName(ctx, userID, value)
	case commands.FieldInstitution:
		err = h.users.UpdateInstitution(ctx, userID, value)
	case commands.FieldUsername:
		if value == user.Username() {
			return nil
		}
		if err := h.ensureUnowned(h.users.FindByUsername(ctx, value)); err != nil {
			return ports.MapError("find user", errOr(err, ports.ErrUsernameTaken))
		}
		err = h.users.UpdateUsername(ctx, userID, value)
	case commands.FieldEmail:
		value = entities.NormalizeEmail(value)
		if value == user.Email() {
			return nil
		}
		if err := h.ensureUnowned(h.users.FindByEmail(ctx, value)); err != nil {
			return ports.MapError("find user", errOr(err, ports.ErrEmailTaken))
		}
		err = h.users.UpdateEmail(ctx, userID, value)
	}
	if err != nil {
		return ports.MapError("update user", err)
	}

	h.logger.Info("User updated",
		zap.String("user_id", cmd.UserID),
		zap.String("field", string(cmd.Field)),
	)
	publish(ctx, h.publisher, h.logger, events.NewUserUpdated(cmd.UserID, string(cmd.Field), timeNow()))
	return nil
}

// HandlePassword hashes and stores a new password
func (h *UpdateUserHandler) HandlePassword(ctx context.Context, cmd commands.UpdatePasswordCommand) error {
	if err := h.validator.ValidatePassword(cmd.Password); err != nil {
		return err
	}
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return err
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return pkgerrors.Wrapf(err, "hash password for user %s", cmd.UserID)
	}
	if err := h.users.UpdatePassword(ctx, userID, hash); err != nil {
		return ports.MapError("update password", err)
	}

	publish(ctx, h.publisher, h.logger, events.NewUserUpdated(cmd.UserID, "password", timeNow()))
	return nil
}

func (h *UpdateUserHandler) validateField(field commands.UserField, value string) error {
	switch field {
	case commands.FieldName:
		return h.validator.ValidateName(value)
	case commands.FieldUsername:
		return h.validator.ValidateUsername(value)
	case commands.FieldInstitution:
		return h.validator.ValidateInstitution(value)
	case commands.FieldEmail:
		return h.validator.ValidateEmail(value)
	}
	return nil
}

// errTaken marks a lookup that found another account.
var errTaken = errors.New("taken")

// ensureUnowned turns the result of a uniqueness lookup into errTaken when
// another account holds the value. The caller's own account never reaches
// here because unchanged values return early.
func (h *UpdateUserHandler) ensureUnowned(_ *entities.User, err error) error {
	switch {
	case err == nil:
		return errTaken
	case errors.Is(err, ports.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// errOr substitutes taken for errTaken and keeps any other error.
func errOr(err, taken error) error {
	if errors.Is(err, errTaken) {
		return taken
	}
	return err
}
