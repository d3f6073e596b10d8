package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eshop-api/products/internal/services"
	"github.com/eshop-api/products/internal/store"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries field-level detail for a 400 response.
type ValidationErrorResponse struct {
	Error       string                `json:"error"`
	FieldErrors []services.FieldError `json:"fieldErrors"`
}

func subjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError is the single mapping from the service error taxonomy to
// status codes. Unknown identifiers yield 404 with an empty body; everything
// else degrades to 400 with the error message, and the server keeps serving.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:       "validation failed",
			FieldErrors: validationErr.Fields,
		})
	case errors.Is(err, store.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
