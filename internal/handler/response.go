package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// success shape per endpoint and one error shape everywhere:
//
//	{"error": "not_found", "message": "journal not found with id 7"}
//	{"error": "validation_error", "message": "...", "fields": {"title": "is required"}}
//
// The frontend can rely on those keys regardless of the status code.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/journalize/internal/apperror"
)

// maxBodyBytes caps request bodies. Large enough for an import of
// MaxImportJournals entries with long content.
const maxBodyBytes = 32 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string            `json:"message"`          // human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // per-field reasons on validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// headers, then status, then body. Anything set on the header map after
// WriteHeader is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// errors.Is walks the whole chain, so a service returning
// fmt.Errorf("updating journal: %w", apperror.NotFound(...)) still maps to
// 404. Internal errors and anything that isn't an *AppError become a generic
// 500: their text may carry SQL or file paths and stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || errors.Is(err, apperror.ErrInternal) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	kind := "internal_error"
	var fields map[string]string

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest // 400
		kind = "validation_error"
		fields = appErr.Fields
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized // 401
		kind = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden // 403
		kind = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound // 404
		kind = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict // 409
		kind = "conflict"
	case errors.Is(err, apperror.ErrNotImplemented):
		status = http.StatusNotImplemented // 501
		kind = "not_implemented"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Fields:  fields,
	})
}

// decodeJSON reads a JSON body into dst. Malformed or oversized bodies come
// back as a validation error on the "body" field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is empty")
		default:
			return apperror.ValidationFailed("body", "invalid JSON: "+err.Error())
		}
	}
	return nil
}

// pathID parses the {id} URL parameter. Anything that isn't a positive
// integer can't name a record, so it's reported as not found.
func pathID(r *http.Request, resource string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("%s not found with id %q", resource, raw),
		}
	}
	return id, nil
}
