// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dikshapatel15/Decentralized-Voting-System/handlers"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/middleware"
)

// Banner is the body served at GET /.
const Banner = "ballot API v1"

// NewRouter wires the election API. A nil m disables /metrics and latency
// recording.
func NewRouter(l handlers.Ledger, verifier middleware.TokenVerifier, m *metrics.Metrics, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.WithLogging(logger))
	r.Use(middleware.CORS)
	if m != nil {
		r.Use(middleware.Latency(m))
	}

	electionHandler := handlers.NewElectionHandler(l, logger)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/election", func(r chi.Router) {
		// Reads (public)
		r.Get("/", electionHandler.GetStatus)
		r.Get("/results", electionHandler.GetResults)
		r.Get("/candidates", electionHandler.ListCandidates)
		r.Get("/candidates/{id}", electionHandler.GetCandidate)
		r.Get("/voters/{principal}", electionHandler.GetVoter)
		r.Get("/events", electionHandler.ListEvents)

		// Writes act as the token subject
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCaller(verifier, logger))
			r.Post("/candidates", electionHandler.AddCandidate)
			r.Post("/voters", electionHandler.RegisterVoter)
			r.Post("/start", electionHandler.StartVoting)
			r.Post("/votes", electionHandler.CastVote)
			r.Post("/end", electionHandler.EndVoting)
		})
	})

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Banner))
	})

	return r
}
