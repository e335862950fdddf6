package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
	"github.com/utafrali/gomarketplace/pkg/logger"
	"github.com/utafrali/gomarketplace/pkg/validator"
)

// Response is the standard JSON response envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // status already sent
}

// WriteData wraps data in the response envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError maps err onto the error envelope with pkg/errors.Classify.
// Server-side failures are logged with the request-scoped logger when one
// is installed, else with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	kind, message := apperrors.Classify(err)

	if kind.Status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", kind.Status),
		)
	}

	WriteJSON(w, kind.Status, Response{Error: &ErrorResponse{
		Code:      kind.Code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteValidationError answers 400. A *validator.ValidationError is reported
// per field; any other error (a malformed body) is reported as INVALID_INPUT.
func WriteValidationError(w http.ResponseWriter, err error) {
	resp := &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp = &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: resp})
}
