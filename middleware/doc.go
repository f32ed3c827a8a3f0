// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

Every middleware has the func(http.Handler) http.Handler shape, so it plugs
straight into chi:

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.WithLogging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Latency(m))

# Request IDs

RequestID keeps an incoming X-Request-ID (up to 128 bytes) or generates a
uuid, stores it in the context and echoes it on the response:

	id := middleware.GetRequestID(r.Context())

# Request Logging

WithLogging logs request start at debug level and completion (status,
duration_ms, request_id) at info level.

# Recovery

Recovery logs a panic with its stack and answers 500 with code "internal".

# Authentication

RequireCaller verifies the bearer token and stores its subject as the caller:

	r.With(middleware.RequireCaller(tokens, logger)).Post("/election/votes", h.CastVote)

	caller, ok := middleware.CallerFrom(r.Context())

Missing, malformed or expired tokens get 401 with code "unauthenticated".
Whether the caller may perform the operation is decided by the election, not
here.

# Metrics

Latency observes ballot_http_request_duration_seconds labelled with method,
chi route pattern and status.

# CORS Middleware

CORS reflects the request origin (or "*"), allows GET, POST and OPTIONS with
Content-Type, Authorization and X-Request-ID, and answers preflight requests
directly.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusConflict, "already_voted", "p1 has already voted")

Parse JSON request bodies:

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Invalid JSON")
		return
	}

ParseJSONBody rejects unknown fields, trailing data and bodies over 1 MiB.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request logs.
*/
package middleware
