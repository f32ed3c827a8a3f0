// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

// Failure kinds. Operations wrap these with context; match with errors.Is.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPhase      = errors.New("invalid phase")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrNotRegistered     = errors.New("not registered")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrNoCandidates      = errors.New("no candidates")
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidPhase, "invalid_phase"},
	{ErrInvalidArgument, "invalid_argument"},
	{ErrAlreadyRegistered, "already_registered"},
	{ErrAlreadyVoted, "already_voted"},
	{ErrNotRegistered, "not_registered"},
	{ErrCandidateNotFound, "candidate_not_found"},
	{ErrNoCandidates, "no_candidates"},
}

// KindOf returns the stable code for an election failure, "" for nil and
// "internal" for anything that is not an election failure.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}
