// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/middleware"
)

// statusByKind maps election failure kinds to HTTP statuses.
var statusByKind = map[string]int{
	"unauthorized":        http.StatusForbidden,
	"invalid_phase":       http.StatusConflict,
	"invalid_argument":    http.StatusBadRequest,
	"already_registered":  http.StatusConflict,
	"already_voted":       http.StatusConflict,
	"not_registered":      http.StatusForbidden,
	"candidate_not_found": http.StatusNotFound,
	"no_candidates":       http.StatusConflict,
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	kind := election.KindOf(err)
	if status, ok := statusByKind[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, "internal"
}

// writeError answers with the status and code for err. Election failures carry
// their message; anything else is logged and reported generically.
func (h *ElectionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		middleware.ErrorResponse(w, status, code, "internal error")
		return
	}
	middleware.ErrorResponse(w, status, code, err.Error())
}
