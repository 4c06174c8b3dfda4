package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
)

type bodyKey struct{}

// BodyFromContext returns the bytes stored by PreserveBody.
func BodyFromContext(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(bodyKey{}).([]byte)
	return body, ok
}

// ContextWithBody stores body for BodyFromContext.
func ContextWithBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

// ReadBody reads at most maxBytes of r.Body and puts the same bytes back on
// r.Body. A body over the limit yields a payload-too-large AppError.
func ReadBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		r.Body = http.NoBody
		return []byte{}, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.PayloadTooLargeError(maxBytes)
		}
		return nil, apperrors.ValidationError("failed to read request body").WithContext("cause", err.Error())
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// PreserveBody reads the request body once, rejects bodies over maxBytes with
// 413, and makes the exact bytes available through BodyFromContext and r.Body.
func PreserveBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := ReadBody(w, r, maxBytes)
			if err != nil {
				logging.WithContext(r.Context()).Warn("Rejected request body",
					logging.String("path", r.URL.Path),
					logging.Err(err),
				)
				response.AppError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithBody(r.Context(), body)))
		})
	}
}
