package signature

import (
	"bytes"
	"io"
	"net/http"

	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
	"webhook-guard/internal/common/secret"
	"webhook-guard/internal/middleware"
)

// MiddlewareConfig configures signature checking for one webhook route.
type MiddlewareConfig struct {
	Provider string
	Header   string
	Secret   secret.Secret
	Verifier Verifier
	// FailureStatus is answered for every failure. Defaults to the status
	// signature errors map to (403).
	FailureStatus int
	// AllowUnsigned lets requests through when Secret is unset. Config refuses
	// it in production.
	AllowUnsigned bool
}

// Middleware rejects requests whose signature header does not verify.
type Middleware struct {
	config MiddlewareConfig
	logger logging.Logger
}

// NewMiddleware creates signature middleware for a route.
func NewMiddleware(config MiddlewareConfig, logger logging.Logger) *Middleware {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if config.FailureStatus == 0 {
		config.FailureStatus = apperrors.HTTPStatus(apperrors.SignatureError(failureBody, nil))
	}

	return &Middleware{
		config: config,
		logger: logger.WithFields(
			logging.String("component", "signature"),
			logging.Provider(config.Provider),
		),
	}
}

// Wrap returns next guarded by signature verification.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := m.logger.WithContext(r.Context())

		if !m.config.Secret.IsSet() && m.config.AllowUnsigned {
			log.Warn("Accepting unsigned webhook, secret not configured")
			next.ServeHTTP(w, r)
			return
		}

		body, err := requestBody(r)
		if err != nil {
			m.reject(w, log, apperrors.SignatureError(failureBody, err).WithCode("body_unreadable"))
			return
		}

		result := m.config.Verifier.Check(m.config.Secret.Reveal(), body, r.Header.Get(m.config.Header))
		if !result.Valid {
			err := apperrors.SignatureError(failureBody, result.Err(m.config.Header)).
				WithCode(string(result.Reason)).
				WithContext("scheme", string(m.config.Verifier.Scheme)).
				WithContext("body_bytes", len(body))
			m.reject(w, log, err)
			return
		}

		log.Debug("Webhook signature verified")
		next.ServeHTTP(w, r)
	})
}

const failureBody = "invalid_signature"

// reject logs err and writes the one body every failure reason shares.
func (m *Middleware) reject(w http.ResponseWriter, log logging.Logger, err *apperrors.AppError) {
	log.Warn("Webhook signature rejected", logging.Err(err))
	response.JSON(w, m.config.FailureStatus, map[string]string{"error": failureBody})
}

// requestBody prefers bytes stored by middleware.PreserveBody and otherwise
// reads r.Body and puts it back.
func requestBody(r *http.Request) ([]byte, error) {
	if body, ok := middleware.BodyFromContext(r.Context()); ok {
		return body, nil
	}
	if r.Body == nil {
		return []byte{}, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
