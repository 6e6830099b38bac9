// Package service is the facade layer the (out-of-scope) HTTP server would
// mount: a chi-routed admin JSON surface over the store/scheduler, and a
// gorilla/mux-routed HLS surface over the segment engine. Neither router
// owns process lifecycle — cmd/sceneforgedd wires whichever it needs onto
// its own top-level mux, following CineVault's Server.setupRoutes split of
// "this package builds handlers, the daemon decides how to serve them."
package service

import (
	"encoding/json"
	"net/http"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// errorResponse is the {error, code, request_id} JSON shape spec §7
// describes for translating apperr.Error across the API boundary.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an apperr.Kind to an HTTP status, following the same
// kind-to-status table the rest of the ecosystem (CineVault's
// respondError) maps ad hoc per handler — here it's centralized since
// internal/apperr already carries the kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := string(apperr.KindOf(err))
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case "":
		code = "internal"
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: r.Header.Get("X-Request-ID"),
	})
}
