package queries

import (
	"matflow/domain/core/entities"
	pkgerrors "matflow/pkg/errors"
)

// LoginQuery verifies credentials and issues a session token
type LoginQuery struct {
	Email    string
	Password string
}

// Validate implements bus.Query. Field messages come from the handler's
// validator.
func (q LoginQuery) Validate() error {
	return nil
}

// LoginResult carries the signed token and the account it belongs to
type LoginResult struct {
	Token string              `json:"token"`
	User  entities.PublicUser `json:"user"`
}

// GetCurrentUserQuery loads the caller's own profile
type GetCurrentUserQuery struct {
	UserID string
}

// Validate implements bus.Query
func (q GetCurrentUserQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
