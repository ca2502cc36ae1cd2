package web

// errors.go provides unified response handling for the web layer.
//
// Every endpoint returns a structured JSON result carrying a success flag
// and either a payload or a human-readable message. Technical error detail
// is logged server-side with the request ID; only the message string
// reaches the caller.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"klisi/internal/logging"
	"klisi/internal/store"
)

// failure is the JSON body for any unsuccessful query.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondJSON writes v with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("json encode error", "error", err)
	}
}

// respondFailure writes a structured {success: false, message} body.
func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, failure{Success: false, Message: message})
}

// respondError maps an internal error to a user-facing failure response
// and logs the technical detail with the request ID for correlation.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	respondFailure(w, status, message)
}

// mapError converts store errors to a status code and a safe message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable,
			"The verb database is not available yet. Please try again later."
	case errors.Is(err, store.ErrUnknownForm):
		return http.StatusBadRequest,
			fmt.Sprintf("Unknown conjugation form. %s", err.Error())
	default:
		return http.StatusInternalServerError,
			"An internal error occurred while querying the verb database."
	}
}
