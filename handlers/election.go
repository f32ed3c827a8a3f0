// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/middleware"
	"github.com/dikshapatel15/Decentralized-Voting-System/models"
)

// Ledger is the election host the handlers drive.
type Ledger interface {
	AddCandidate(ctx context.Context, caller election.Principal, name string) (int, error)
	RegisterVoter(ctx context.Context, caller, principal election.Principal) error
	StartVoting(ctx context.Context, caller election.Principal) error
	CastVote(ctx context.Context, caller election.Principal, candidateID int) error
	EndVoting(ctx context.Context, caller election.Principal) error

	Results() (election.Results, error)
	Candidate(id int) (election.Candidate, error)
	Candidates() []election.Candidate
	Voter(principal election.Principal) election.VoterStatus
	Status() election.Status
	Administrator() election.Principal
	Events(ctx context.Context, after uint64, limit int) ([]election.Event, error)
}

type ElectionHandler struct {
	ledger Ledger
	logger *slog.Logger
}

func NewElectionHandler(l Ledger, logger *slog.Logger) *ElectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ElectionHandler{ledger: l, logger: logger}
}

// caller returns the authenticated principal, answering 401 when the route
// was mounted without RequireCaller.
func (h *ElectionHandler) caller(w http.ResponseWriter, r *http.Request) (election.Principal, bool) {
	p, ok := middleware.CallerFrom(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	}
	return p, ok
}

func (h *ElectionHandler) status() models.StatusResponse {
	st := h.ledger.Status()
	return models.StatusResponse{
		Name:           st.Name,
		Administrator:  h.ledger.Administrator(),
		Phase:          st.Phase,
		CandidateCount: st.CandidateCount,
		TotalVotes:     st.TotalVotes,
	}
}

// GetStatus handles GET /election
func (h *ElectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.status())
}

// GetResults handles GET /election/results
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.ledger.Results()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		WinnerID:    res.WinnerID,
		WinnerName:  res.WinnerName,
		WinnerVotes: res.WinnerVotes,
		TotalVotes:  res.TotalVotes,
		Phase:       res.Phase,
		Final:       res.Phase == election.PhaseClosed,
	})
}

// ListCandidates handles GET /election/candidates
func (h *ElectionHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		Candidates: h.ledger.Candidates(),
	})
}

// GetCandidate handles GET /election/candidates/{id}
func (h *ElectionHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "candidate id must be an integer")
		return
	}

	c, err := h.ledger.Candidate(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// GetVoter handles GET /election/voters/{principal}
func (h *ElectionHandler) GetVoter(w http.ResponseWriter, r *http.Request) {
	principal := election.Principal(chi.URLParam(r, "principal"))
	if !election.ValidPrincipal(principal) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "malformed principal")
		return
	}

	v := h.ledger.Voter(principal)
	middleware.JSONResponse(w, http.StatusOK, models.VoterResponse{
		Principal:  principal,
		Registered: v.Registered,
		Voted:      v.Voted,
	})
}

// ListEvents handles GET /election/events?after=&limit=
func (h *ElectionHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if s := r.URL.Query().Get("after"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "after must be a non-negative integer")
			return
		}
		after = v
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "limit must be a positive integer")
			return
		}
		limit = v
	}

	events, err := h.ledger.Events(r.Context(), after, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	next := after
	if n := len(events); n > 0 {
		next = events[n-1].Seq
	}
	middleware.JSONResponse(w, http.StatusOK, models.EventsResponse{Events: events, Next: next})
}

// AddCandidate handles POST /election/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Invalid JSON")
		return
	}

	id, err := h.ledger.AddCandidate(r.Context(), caller, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{CandidateID: id})
}

// RegisterVoter handles POST /election/voters
func (h *ElectionHandler) RegisterVoter(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Invalid JSON")
		return
	}

	if err := h.ledger.RegisterVoter(r.Context(), caller, req.Principal); err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{Principal: req.Principal})
}

// StartVoting handles POST /election/start
func (h *ElectionHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.ledger.StartVoting(r.Context(), caller); err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.status())
}

// CastVote handles POST /election/votes
func (h *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_argument", "Invalid JSON")
		return
	}

	if err := h.ledger.CastVote(r.Context(), caller, req.CandidateID); err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		CandidateID: req.CandidateID,
		Message:     "vote recorded",
	})
}

// EndVoting handles POST /election/end
func (h *ElectionHandler) EndVoting(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.ledger.EndVoting(r.Context(), caller); err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.status())
}
