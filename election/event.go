// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "time"

// EventKind names a committed mutation.
type EventKind string

const (
	EventCandidateAdded  EventKind = "candidate_added"
	EventVoterRegistered EventKind = "voter_registered"
	EventVotingStarted   EventKind = "voting_started"
	EventVoteCast        EventKind = "vote_cast"
	EventVotingEnded     EventKind = "voting_ended"
)

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventCandidateAdded, EventVoterRegistered, EventVotingStarted, EventVoteCast, EventVotingEnded:
		return true
	}
	return false
}

// Event describes one successful mutation. Seq starts at 1 and increases by
// one per committed mutation, so it totally orders the election's history.
type Event struct {
	Seq           uint64    `json:"seq"`
	Kind          EventKind `json:"kind"`
	Caller        Principal `json:"caller"`
	CandidateID   int       `json:"candidate_id,omitempty"`
	CandidateName string    `json:"candidate_name,omitempty"`
	Principal     Principal `json:"principal,omitempty"`
	Phase         Phase     `json:"phase"`
	At            time.Time `json:"at"`
}

// Observer receives events after the mutation has committed and the election
// lock has been released. Observers run in the mutating goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
