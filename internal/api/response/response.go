package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/herense/cloudsentinel/internal/cloud"
	"github.com/herense/cloudsentinel/internal/core"
	"github.com/herense/cloudsentinel/internal/vault"
)

// ErrorResponse is the JSON shape of every error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteServiceError maps service-layer errors to HTTP statuses. Provider
// errors go out sanitized and crypto failures never leak cipher details.
func WriteServiceError(w http.ResponseWriter, err error) {
	var providerErr *cloud.ProviderError
	var cryptoErr *vault.CryptoError

	switch {
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrConflict):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &providerErr):
		WriteError(w, http.StatusBadRequest, providerErr.Sanitized())
	case errors.As(err, &cryptoErr):
		WriteError(w, http.StatusBadRequest, "credential error")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
