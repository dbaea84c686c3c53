package handlers

import (
	"net/http"
	"path/filepath"

	"matflow/application/commands"
	"matflow/application/queries"
	"matflow/domain/core/entities"
	"matflow/pkg/common"
	pkgerrors "matflow/pkg/errors"
	"matflow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves the /users endpoints
type UserHandler struct {
	*Deps
	maxUploadBytes int64
}

// NewUserHandler creates a new user handler. maxUploadBytes caps avatar
// uploads.
func NewUserHandler(deps *Deps, maxUploadBytes int64) *UserHandler {
	return &UserHandler{Deps: deps, maxUploadBytes: maxUploadBytes}
}

// RegisterRequest is the body of POST /users/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRequest is the body of PATCH /users/update/password
type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.CommandBus.Send(r.Context(), commands.RegisterUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "User created!")
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.QueryBus.Ask(r.Context(), queries.LoginQuery{Email: req.Email, Password: req.Password})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	login := result.(*queries.LoginResult)
	common.RespondJSON(w, http.StatusOK, common.Message("Logged in!").
		With("token", login.Token).
		With("user", login.User))
}

// Current handles GET /users/current
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.profile(r, userID)
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.Message("User found!").With("user", user))
}

// UpdateField handles PATCH /users/update/{field} for name, username,
// institution and email. The body carries the new value under the field's
// own key.
func (h *UserHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	field, ok := commands.ParseUserField(chi.URLParam(r, "field"))
	if !ok {
		h.Errors.Handle(w, r, pkgerrors.NewNotFoundError("Unknown field!").
			WithDetail("field", chi.URLParam(r, "field")))
		return
	}

	var body map[string]string
	if !h.decode(w, r, &body) {
		return
	}
	value, present := body[string(field)]
	if !present {
		h.Errors.Handle(w, r, pkgerrors.NewValidationError(fieldLabel(field)+" is required!"))
		return
	}

	err := h.CommandBus.Send(r.Context(), commands.UpdateUserFieldCommand{
		UserID: userID,
		Field:  field,
		Value:  value,
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, fieldLabel(field)+" updated!")
}

// UpdatePassword handles PATCH /users/update/password
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.Errors.Handle(w, r, err)
		return
	}

	if err := h.CommandBus.Send(r.Context(), commands.UpdatePasswordCommand{UserID: userID, Password: req.Password}); err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Password updated!")
}

// UploadAvatar handles POST /users/update/img with a multipart "image" part
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.Errors.Handle(w, r, pkgerrors.NewValidationError("Invalid upload!").WithCause(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.Errors.Handle(w, r, pkgerrors.NewValidationError("Image is required!").WithCause(err))
		return
	}
	defer file.Close()

	err = h.CommandBus.Send(r.Context(), commands.UpdateAvatarCommand{
		UserID:   userID,
		Filename: filepath.Base(header.Filename),
		Image:    file,
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}

	user, err := h.profile(r, userID)
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	h.Logger.Debug("Avatar updated", zap.String("user_id", userID), zap.Int64("bytes", header.Size))
	common.RespondJSON(w, http.StatusOK, common.Message("Image updated!").With("url", user.ImageURL))
}

// Delete handles DELETE /users/delete
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.CommandBus.Send(r.Context(), commands.DeleteUserCommand{UserID: userID}); err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "User deleted!")
}

func (h *UserHandler) profile(r *http.Request, userID string) (*entities.PublicUser, error) {
	result, err := h.QueryBus.Ask(r.Context(), queries.GetCurrentUserQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	return result.(*entities.PublicUser), nil
}

func fieldLabel(f commands.UserField) string {
	switch f {
	case commands.FieldName:
		return "Name"
	case commands.FieldUsername:
		return "Username"
	case commands.FieldInstitution:
		return "Institution"
	case commands.FieldEmail:
		return "Email"
	}
	return string(f)
}
