package middleware

import (
	"net/http"
	"strings"

	"matflow/pkg/auth"
	pkgerrors "matflow/pkg/errors"

	"go.uber.org/zap"
)

// Error codes returned in the response body
const (
	CodeMissingToken = "missing_token"
	CodeInvalidToken = "invalid_token"
	CodeRateLimited  = "rate_limited"
)

// TokenValidator verifies a bearer token
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Authenticate verifies the bearer token before any handler runs. A missing
// header gives 401 and a token that fails verification gives 403.
func Authenticate(validator TokenValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authorization token!").WithCode(CodeMissingToken))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, pkgerrors.NewForbiddenError("Invalid token!").WithCode(CodeInvalidToken).WithCause(err))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads "Authorization: Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
