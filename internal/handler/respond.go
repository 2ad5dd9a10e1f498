package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourorg/libralend/internal/domain"
	"github.com/yourorg/libralend/internal/security/auth"
)

// ErrorResponse is the error body for every 4xx/5xx
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse is the envelope for every collection endpoint
type ListResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// validation 400, not found 404, conflict 409, bad session 401.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidSession):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
