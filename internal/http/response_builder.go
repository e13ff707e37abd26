package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody), errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrGoalNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Server-side failures are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}

	logger := log.FromContext(r.Context())
	switch {
	case status >= 500:
		kind := log.ErrorTypeInternal
		if status == http.StatusServiceUnavailable {
			kind = log.ErrorTypeStorage
			resp.Error = "storage unavailable"
		} else {
			resp.Error = "internal error"
		}
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(err).WithErrorType(kind).WithHTTPRequest(r.Method, r.URL.Path, "", "", "").ToSlice()...)
	case status == http.StatusNotFound:
		logger.InfoContext(r.Context(), "Resource not found", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNotFound)
	default:
		logger.InfoContext(r.Context(), "Request rejected", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
	}

	writeJSON(w, status, resp)
}
