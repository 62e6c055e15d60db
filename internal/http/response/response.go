// Package response writes the versioned JSON envelope for handlers that run
// outside huma (middleware rejections, router fallbacks, the metrics guard).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

// Version is the envelope schema version sent as "v".
const Version = 1

// Envelope is the body of every successful response and of plain errors.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope is the body of coded domain errors.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data wrapped in an Envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Version: Version, Success: status < 400, Data: data}, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes a coded error envelope. Errors that are not domain errors
// become INTERNAL and are logged.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		if logger != nil {
			logger.Error("Unhandled error", "error", err)
		}
		domainErr = domainerrors.Internal("internal server error")
	}

	write(w, domainErr.HTTPStatus(), ErrorEnvelope{
		Version: Version,
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Details: domainErr.Details,
	}, logger)
}

// NotFound writes a NOT_FOUND error envelope.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.NotFound(message), logger)
}

// TooManyRequests writes a RATE_LIMITED error envelope.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.RateLimited(message), logger)
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}
