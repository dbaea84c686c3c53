package middleware

import (
	"net"
	"net/http"

	"matflow/pkg/auth"
	"matflow/pkg/common"
	pkgerrors "matflow/pkg/errors"

	"go.uber.org/zap"
)

// ClientIP stores the caller address in the request context. It runs after
// chi's RealIP so proxies are honoured.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(common.WithClientIP(r.Context(), ip)))
	})
}

// RateLimit rejects requests over the per client budget with 429.
func RateLimit(limiter auth.RateLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := common.GetClientIP(r.Context())
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter failed").WithCause(err))
				return
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError("Too many attempts, try again later!").WithCode(CodeRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
