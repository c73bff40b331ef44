package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"finanzas/internal/errs"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is logged and answered with a generic 500 so internals never
// leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errs.IsValidationError(err):
		respondJSON(w, http.StatusBadRequest, errorBody(err))
	case errs.IsForbiddenError(err):
		respondJSON(w, http.StatusForbidden, errorBody(err))
	case errs.IsNotFoundError(err):
		respondJSON(w, http.StatusNotFound, errorBody(err))
	case errs.IsConflictError(err):
		respondJSON(w, http.StatusConflict, errorBody(err))
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
