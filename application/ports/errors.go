package ports

import (
	"errors"

	pkgerrors "matflow/pkg/errors"
)

// MapError converts repository sentinels into the client-facing AppError.
// AppErrors pass through and anything else becomes a database error for op.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case pkgerrors.IsAppError(err):
		return err
	case errors.Is(err, ErrUserNotFound):
		return pkgerrors.NewNotFoundError("User not found!").WithCause(err)
	case errors.Is(err, ErrEmailTaken):
		return pkgerrors.NewConflictError("Email already in use!").WithCause(err)
	case errors.Is(err, ErrUsernameTaken):
		return pkgerrors.NewConflictError("Username already in use!").WithCause(err)
	case errors.Is(err, ErrWorkflowNotFound):
		return pkgerrors.NewNotFoundError("Workflow not found!").WithCause(err)
	default:
		return pkgerrors.NewDatabaseError(op, err)
	}
}
