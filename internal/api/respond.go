package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"triptally/internal/errs"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Validation is
// the caller's fault, state and concurrency are conflicts with current
// reality, transport is a downstream outage worth retrying against.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"})
	case errs.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "validation"})
	case errs.IsState(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "state"})
	case errs.IsConcurrency(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "concurrency"})
	case errs.IsTransport(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: "transport"})
	default:
		slog.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "internal"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errs.Validationf("invalid request payload: %v", err))
		return false
	}
	return true
}
