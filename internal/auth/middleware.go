package auth

import (
	"net/http"

	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
)

const (
	msgTokenRequired = "Admin token is required"
	msgTokenInvalid  = "Invalid admin token"
)

// RequireAdmin rejects requests that do not carry the admin token with 401.
// Token values are never logged.
func RequireAdmin(v *AdminValidator, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.WithContext(r.Context()).WithFields(
				logging.String("path", r.URL.Path),
				logging.String("remote_addr", r.RemoteAddr),
			)

			token := ExtractToken(r)
			if token == "" {
				deny(w, log, apperrors.AuthError(msgTokenRequired).WithCode("token_missing"))
				return
			}

			if !v.Validate(token) {
				deny(w, log, apperrors.AuthError(msgTokenInvalid).
					WithCode("token_invalid").
					WithContext("admin_configured", v.Configured()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// deny logs err and answers with the body admin clients expect. err never
// carries the presented token.
func deny(w http.ResponseWriter, log logging.Logger, err *apperrors.AppError) {
	log.Warn("Admin request rejected", logging.Err(err))
	response.Error(w, apperrors.HTTPStatus(err), "Unauthorized", err.Message)
}
