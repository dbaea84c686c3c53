package handlers

import (
	"context"
	"errors"

	"matflow/application/ports"
	"matflow/application/queries"
	"matflow/domain/core/entities"
	"matflow/domain/core/validators"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/observability"

	"go.uber.org/zap"
)

// LoginHandler handles LoginQuery
type LoginHandler struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	validator *validators.UserValidator
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	validator *validators.UserValidator,
	metrics *observability.Collector,
	logger *zap.Logger,
) *LoginHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginHandler{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle executes the login query. An unknown email is reported as not
// found and a wrong password as unauthorized.
func (h *LoginHandler) Handle(ctx context.Context, query queries.LoginQuery) (*queries.LoginResult, error) {
	if err := h.validator.ValidateLogin(query.Email, query.Password); err != nil {
		return nil, err
	}

	user, err := h.users.FindByEmail(ctx, entities.NormalizeEmail(query.Email))
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			h.metrics.RecordLogin("unknown_user")
		}
		return nil, ports.MapError("find user", err)
	}

	if err := h.hasher.Compare(user.PasswordHash(), query.Password); err != nil {
		h.metrics.RecordLogin("invalid_password")
		h.logger.Info("Login rejected",
			zap.String("user_id", user.ID().String()),
		)
		return nil, pkgerrors.NewUnauthorizedError("Invalid credentials!")
	}

	token, err := h.tokens.GenerateToken(user.ID().String(), user.Email(), user.Roles())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue token").WithCause(err)
	}

	h.metrics.RecordLogin("success")
	return &queries.LoginResult{Token: token, User: user.PublicView()}, nil
}
