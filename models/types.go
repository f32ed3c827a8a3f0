package models

import "github.com/dikshapatel15/Decentralized-Voting-System/election"

// Request types

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type RegisterVoterRequest struct {
	Principal election.Principal `json:"principal"`
}

type CastVoteRequest struct {
	CandidateID int `json:"candidate_id"`
}

// Response types

type AddCandidateResponse struct {
	CandidateID int `json:"candidate_id"`
}

type RegisterVoterResponse struct {
	Principal election.Principal `json:"principal"`
}

type CastVoteResponse struct {
	CandidateID int    `json:"candidate_id"`
	Message     string `json:"message"`
}

type StatusResponse struct {
	Name           string             `json:"name"`
	Administrator  election.Principal `json:"administrator"`
	Phase          election.Phase     `json:"phase"`
	CandidateCount int                `json:"candidate_count"`
	TotalVotes     int                `json:"total_votes"`
}

// Final is true once voting has ended; before that the results are a
// running tally.
type ResultsResponse struct {
	WinnerID    int            `json:"winner_id"`
	WinnerName  string         `json:"winner_name"`
	WinnerVotes int            `json:"winner_votes"`
	TotalVotes  int            `json:"total_votes"`
	Phase       election.Phase `json:"phase"`
	Final       bool           `json:"final"`
}

type CandidatesResponse struct {
	Candidates []election.Candidate `json:"candidates"`
}

type VoterResponse struct {
	Principal  election.Principal `json:"principal"`
	Registered bool               `json:"registered"`
	Voted      bool               `json:"voted"`
}

// Next is the sequence number to pass as after= for the following page.
type EventsResponse struct {
	Events []election.Event `json:"events"`
	Next   uint64           `json:"next"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
