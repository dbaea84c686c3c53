package commands

import (
	"io"

	pkgerrors "matflow/pkg/errors"
)

// UserField names a single profile field that can be updated on its own.
type UserField string

const (
	FieldName        UserField = "name"
	FieldUsername    UserField = "username"
	FieldInstitution UserField = "institution"
	FieldEmail       UserField = "email"
)

// ParseUserField maps a route segment onto a UserField.
func ParseUserField(s string) (UserField, bool) {
	switch f := UserField(s); f {
	case FieldName, FieldUsername, FieldInstitution, FieldEmail:
		return f, true
	}
	return "", false
}

// RegisterUserCommand creates an account
type RegisterUserCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements bus.Command. Field rules are enforced by the handler's
// validator so that messages are consistent with the update commands.
func (cmd RegisterUserCommand) Validate() error {
	return nil
}

// UpdateUserFieldCommand replaces one profile field
type UpdateUserFieldCommand struct {
	UserID string
	Field  UserField
	Value  string
}

// Validate implements bus.Command
func (cmd UpdateUserFieldCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if _, ok := ParseUserField(string(cmd.Field)); !ok {
		return pkgerrors.NewValidationError("Unknown field!")
	}
	return nil
}

// UpdatePasswordCommand replaces the account password
type UpdatePasswordCommand struct {
	UserID   string
	Password string
}

// Validate implements bus.Command
func (cmd UpdatePasswordCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}

// UpdateAvatarCommand uploads a new profile image
type UpdateAvatarCommand struct {
	UserID   string
	Filename string
	Image    io.Reader
}

// Validate implements bus.Command
func (cmd UpdateAvatarCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if cmd.Image == nil {
		return pkgerrors.NewValidationError("Image is required!")
	}
	return nil
}

// DeleteUserCommand removes an account and every workflow it owns
type DeleteUserCommand struct {
	UserID string
}

// Validate implements bus.Command
func (cmd DeleteUserCommand) Validate() error {
	if cmd.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
