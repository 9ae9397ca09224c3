package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/wallet"
)

// problem is the error body returned by every endpoint.
type problem struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeProblem(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, problem{Error: code, Description: description})
}

// writeError maps wallet errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var insufficient wallet.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		writeProblem(w, http.StatusUnprocessableEntity, "insufficient_balance", insufficient.Error())
	case errors.Is(err, wallet.ErrInvalidUsername):
		writeProblem(w, http.StatusBadRequest, "invalid_username", err.Error())
	case errors.Is(err, wallet.ErrAlreadyRegistered):
		writeProblem(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, wallet.ErrUnauthenticated):
		writeProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, wallet.ErrSupplyExhausted):
		writeProblem(w, http.StatusServiceUnavailable, "supply_exhausted", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
