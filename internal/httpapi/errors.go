package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/poll"
	"github.com/Achi00/jobs-server/internal/secrets"
	"github.com/Achi00/jobs-server/internal/store"
)

// APIError is the envelope for every non-2xx JSON response.
type APIError struct {
	Error struct {
		Code      string   `json:"code"`
		Message   string   `json:"message"`
		Details   []string `json:"details,omitempty"`
		Warnings  []string `json:"warnings,omitempty"`
		RequestID string   `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("level=warn msg=\"encode response\" status=%d err=%v", status, err)
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, code, message, nil, nil)
}

// WriteValidation reports every config problem at once.
func WriteValidation(w http.ResponseWriter, r *http.Request, v config.Validation) {
	writeEnvelope(w, r, http.StatusBadRequest, "invalid_config", "config validation failed", v.Errors, v.Warnings)
}

// WriteErr maps known sentinel errors to a status and code. Anything else
// is a 500.
func WriteErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	writeEnvelope(w, r, status, code, err.Error(), nil, nil)
}

func classify(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, secrets.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, poll.ErrAlreadyRunning):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, code, message string, details, warnings []string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Details = details
	e.Error.Warnings = warnings
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
