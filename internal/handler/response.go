package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "post not found with id 42"}
//
// so the frontend always knows what fields to expect, regardless of whether
// it's a 400, 404, or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/microblog/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once
// w.Write() runs (Encode does it internally), the headers are sent and any
// later changes are silently ignored. So: Set → WriteHeader → Encode.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// This is where domain errors (from the service layer) get translated to
// HTTP. The service layer returns apperror sentinels; errors.Is() walks the
// whole wrap chain (via Unwrap()) to find them:
//
//	ErrValidation         → 400
//	ErrInvalidCredentials → 401
//	ErrForbidden          → 403
//	ErrNotFound           → 404
//	ErrConflict           → 409
//	anything else         → 500 (storage failure — details stay in the logs)
//
// WHY HERE AND NOT IN THE SERVICE?
// The service layer should not know about HTTP status codes. A different
// consumer (gRPC, CLI) would map the same domain errors differently.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	// errors.As() walks the chain and fills appErr if it finds an *AppError.
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — return a generic 500.
	// NEVER expose internal error details to the client: the raw message
	// might contain SQL or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
