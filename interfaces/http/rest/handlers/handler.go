// Package handlers turns HTTP requests into commands and queries.
package handlers

import (
	"errors"
	"net/http"

	"matflow/application/commands/bus"
	querybus "matflow/application/queries/bus"
	"matflow/pkg/auth"
	"matflow/pkg/common"
	pkgerrors "matflow/pkg/errors"

	"go.uber.org/zap"
)

// Deps is what every handler needs
type Deps struct {
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Errors       *pkgerrors.ErrorHandler
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// decode parses the JSON body, reporting failures as 400.
func (d *Deps) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, d.MaxBodyBytes); err != nil {
		msg := "Invalid request body!"
		if errors.Is(err, common.ErrEmptyBody) {
			msg = "Request body is required!"
		}
		d.Errors.Handle(w, r, pkgerrors.NewValidationError(msg).WithCause(err))
		return false
	}
	return true
}

// currentUser returns the id set by the auth middleware.
func (d *Deps) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		d.Errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authorization token!"))
		return "", false
	}
	return user.UserID, true
}
