// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"time"

	"github.com/algorand/go-deadlock"
)

// Election is the single-election state machine. All methods are safe for
// concurrent use: mutations are serialised by one lock and reads observe a
// consistent state.
type Election struct {
	mu deadlock.RWMutex

	administrator Principal
	name          string
	phase         Phase
	// candidates[i] has ID i+1; IDs are never reused.
	candidates   []Candidate
	participants map[Principal]voter
	totalVotes   int
	seq          uint64

	observers []Observer
	now       func() time.Time
}

// Option configures an Election at construction.
type Option func(*Election)

// WithObserver registers an observer for committed mutations.
func WithObserver(o Observer) Option {
	return func(e *Election) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Election) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an election in the Setup phase administered by administrator.
func New(administrator Principal, name string, opts ...Option) (*Election, error) {
	if !ValidPrincipal(administrator) {
		return nil, fmt.Errorf("%w: malformed administrator %q", ErrInvalidArgument, administrator)
	}
	if !validCandidateName(name) {
		return nil, fmt.Errorf("%w: election name is required", ErrInvalidArgument)
	}
	return build(administrator, name, opts), nil
}

func build(administrator Principal, name string, opts []Option) *Election {
	e := &Election{
		administrator: administrator,
		name:          name,
		phase:         PhaseSetup,
		participants:  make(map[Principal]voter),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// mutate runs fn under the write lock. On success the event is sequenced and
// stamped, then delivered to observers once the lock is released.
func (e *Election) mutate(fn func() (Event, error)) (Event, error) {
	e.mu.Lock()
	ev, err := fn()
	if err == nil {
		e.seq++
		ev.Seq = e.seq
		ev.Phase = e.phase
		ev.At = e.now()
	}
	e.mu.Unlock()

	if err != nil {
		return Event{}, err
	}
	for _, o := range e.observers {
		o.Observe(ev)
	}
	return ev, nil
}

func (e *Election) requireAdmin(caller Principal, op string) error {
	if caller != e.administrator {
		return fmt.Errorf("%w: %s is restricted to the administrator", ErrUnauthorized, op)
	}
	return nil
}

func (e *Election) requirePhase(want Phase, op string) error {
	if e.phase != want {
		return fmt.Errorf("%w: %s requires phase %s, election is %s", ErrInvalidPhase, op, want, e.phase)
	}
	return nil
}

// AddCandidate appends a candidate and returns its ID. IDs start at 1.
func (e *Election) AddCandidate(caller Principal, name string) (int, error) {
	ev, err := e.mutate(func() (Event, error) {
		if err := e.requireAdmin(caller, "add candidate"); err != nil {
			return Event{}, err
		}
		if err := e.requirePhase(PhaseSetup, "add candidate"); err != nil {
			return Event{}, err
		}
		if !validCandidateName(name) {
			return Event{}, fmt.Errorf("%w: candidate name is required", ErrInvalidArgument)
		}

		id := len(e.candidates) + 1
		e.candidates = append(e.candidates, Candidate{ID: id, Name: name})
		return Event{
			Kind:          EventCandidateAdded,
			Caller:        caller,
			CandidateID:   id,
			CandidateName: name,
		}, nil
	})
	if err != nil {
		return 0, err
	}
	return ev.CandidateID, nil
}

// RegisterVoter makes principal eligible to vote. Registering twice fails.
func (e *Election) RegisterVoter(caller, principal Principal) error {
	_, err := e.mutate(func() (Event, error) {
		if err := e.requireAdmin(caller, "register voter"); err != nil {
			return Event{}, err
		}
		if err := e.requirePhase(PhaseSetup, "register voter"); err != nil {
			return Event{}, err
		}
		if !ValidPrincipal(principal) {
			return Event{}, fmt.Errorf("%w: malformed principal %q", ErrInvalidArgument, principal)
		}
		if _, ok := e.participants[principal]; ok {
			return Event{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, principal)
		}

		e.participants[principal] = voter{}
		return Event{
			Kind:      EventVoterRegistered,
			Caller:    caller,
			Principal: principal,
		}, nil
	})
	return err
}

// StartVoting moves the election from Setup to Open.
func (e *Election) StartVoting(caller Principal) error {
	_, err := e.mutate(func() (Event, error) {
		if err := e.requireAdmin(caller, "start voting"); err != nil {
			return Event{}, err
		}
		if err := e.requirePhase(PhaseSetup, "start voting"); err != nil {
			return Event{}, err
		}
		if len(e.candidates) == 0 {
			return Event{}, fmt.Errorf("%w: add a candidate before starting", ErrNoCandidates)
		}

		e.phase = PhaseOpen
		return Event{Kind: EventVotingStarted, Caller: caller}, nil
	})
	return err
}

// CastVote records caller's single vote for candidateID.
func (e *Election) CastVote(caller Principal, candidateID int) error {
	_, err := e.mutate(func() (Event, error) {
		if err := e.requirePhase(PhaseOpen, "cast vote"); err != nil {
			return Event{}, err
		}
		v, ok := e.participants[caller]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrNotRegistered, caller)
		}
		if v.hasVoted {
			return Event{}, fmt.Errorf("%w: %s", ErrAlreadyVoted, caller)
		}
		if candidateID < 1 || candidateID > len(e.candidates) {
			return Event{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, candidateID)
		}

		e.participants[caller] = voter{hasVoted: true, candidateID: candidateID}
		c := &e.candidates[candidateID-1]
		c.VoteCount++
		e.totalVotes++
		return Event{
			Kind:          EventVoteCast,
			Caller:        caller,
			CandidateID:   candidateID,
			CandidateName: c.Name,
			Principal:     caller,
		}, nil
	})
	return err
}

// EndVoting moves the election from Open to Closed. Counts are frozen after.
func (e *Election) EndVoting(caller Principal) error {
	_, err := e.mutate(func() (Event, error) {
		if err := e.requireAdmin(caller, "end voting"); err != nil {
			return Event{}, err
		}
		if err := e.requirePhase(PhaseOpen, "end voting"); err != nil {
			return Event{}, err
		}

		e.phase = PhaseClosed
		return Event{Kind: EventVotingEnded, Caller: caller}, nil
	})
	return err
}

// Results scans candidates in ID order. Only a strictly greater count replaces
// the leader, so ties resolve to the earliest-added candidate.
func (e *Election) Results() (Results, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.candidates) == 0 {
		return Results{}, fmt.Errorf("%w: nothing to tally", ErrNoCandidates)
	}

	winner := e.candidates[0]
	for _, c := range e.candidates[1:] {
		if c.VoteCount > winner.VoteCount {
			winner = c
		}
	}
	return Results{
		WinnerID:    winner.ID,
		WinnerName:  winner.Name,
		WinnerVotes: winner.VoteCount,
		TotalVotes:  e.totalVotes,
		Phase:       e.phase,
	}, nil
}

// Candidate looks up a candidate by ID.
func (e *Election) Candidate(id int) (Candidate, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if id < 1 || id > len(e.candidates) {
		return Candidate{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
	}
	return e.candidates[id-1], nil
}

// Candidates returns every candidate ordered by ID.
func (e *Election) Candidates() []Candidate {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Candidate, len(e.candidates))
	copy(out, e.candidates)
	return out
}

// Voter reports the registration and voting state of principal.
func (e *Election) Voter(principal Principal) VoterStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.participants[principal]
	if !ok {
		return VoterStatus{}
	}
	return VoterStatus{Registered: true, Voted: v.hasVoted}
}

// Status summarizes the election in one consistent read.
func (e *Election) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Status{
		Name:           e.name,
		Phase:          e.phase,
		CandidateCount: len(e.candidates),
		TotalVotes:     e.totalVotes,
	}
}

// Administrator returns the principal allowed to run administrative operations.
func (e *Election) Administrator() Principal {
	return e.administrator
}

// Name returns the election name fixed at construction.
func (e *Election) Name() string {
	return e.name
}
