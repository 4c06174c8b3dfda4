// Package response writes the JSON bodies shared by middleware and handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode JSON response", err, logging.Int("status", status))
	}
}

// Error writes an ErrorBody with the given status.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorBody{Error: kind, Message: message})
}

// AppError writes err using the status its ErrorType maps to. Messages of
// 5xx errors are replaced so causes never reach the client.
func AppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := "internal error"

	var appErr *apperrors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	Error(w, status, string(apperrors.GetType(err)), message)
}
