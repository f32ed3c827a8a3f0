// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/sentinel"
)

// MemoryStore implements the ledger store in process memory, for tests and
// throwaway elections.
type MemoryStore struct {
	mu     sync.RWMutex
	snap   *election.Snapshot
	voters map[election.Principal]int // index into snap.Voters
	events []election.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (election.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return election.Snapshot{}, fmt.Errorf("election: %w", sentinel.ErrNotFound)
	}
	return copySnapshot(*s.snap), nil
}

func (s *MemoryStore) Create(_ context.Context, snap election.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil {
		return fmt.Errorf("election already exists: %w", sentinel.ErrConflict)
	}
	c := copySnapshot(snap)
	s.snap = &c
	s.voters = make(map[election.Principal]int, len(c.Voters))
	for i, v := range c.Voters {
		s.voters[v.Principal] = i
	}
	return nil
}

// Apply checks every precondition before touching the snapshot so a rejected
// event leaves the store unchanged.
func (s *MemoryStore) Apply(_ context.Context, ev election.Event) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", election.ErrInvalidArgument, ev.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil {
		return fmt.Errorf("election: %w", sentinel.ErrNotFound)
	}
	snap := s.snap
	if ev.Seq != snap.Seq+1 {
		return fmt.Errorf("event %d does not follow %d: %w", ev.Seq, snap.Seq, sentinel.ErrConflict)
	}

	switch ev.Kind {
	case election.EventCandidateAdded:
		if ev.CandidateID != len(snap.Candidates)+1 {
			return fmt.Errorf("candidate %d out of order: %w", ev.CandidateID, sentinel.ErrConflict)
		}
		snap.Candidates = append(snap.Candidates, election.Candidate{ID: ev.CandidateID, Name: ev.CandidateName})

	case election.EventVoterRegistered:
		if _, ok := s.voters[ev.Principal]; ok {
			return fmt.Errorf("voter %s exists: %w", ev.Principal, sentinel.ErrConflict)
		}
		s.voters[ev.Principal] = len(snap.Voters)
		snap.Voters = append(snap.Voters, election.VoterRecord{Principal: ev.Principal})

	case election.EventVotingStarted, election.EventVotingEnded:
		snap.Phase = ev.Phase

	case election.EventVoteCast:
		i, ok := s.voters[ev.Principal]
		if !ok || snap.Voters[i].HasVoted {
			return fmt.Errorf("voter %s is unknown or has already voted: %w", ev.Principal, sentinel.ErrConflict)
		}
		if ev.CandidateID < 1 || ev.CandidateID > len(snap.Candidates) {
			return fmt.Errorf("candidate %d is unknown: %w", ev.CandidateID, sentinel.ErrConflict)
		}
		snap.Voters[i].HasVoted = true
		snap.Voters[i].CandidateID = ev.CandidateID
		snap.Candidates[ev.CandidateID-1].VoteCount++
		snap.TotalVotes++
	}

	snap.Seq = ev.Seq
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) Events(_ context.Context, after uint64, limit int) ([]election.Event, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := sort.Search(len(s.events), func(i int) bool { return s.events[i].Seq > after })
	end := start + limit
	if end > len(s.events) {
		end = len(s.events)
	}
	return append([]election.Event{}, s.events[start:end]...), nil
}

func copySnapshot(s election.Snapshot) election.Snapshot {
	out := s
	out.Candidates = append([]election.Candidate{}, s.Candidates...)
	out.Voters = append([]election.VoterRecord{}, s.Voters...)
	sort.Slice(out.Voters, func(i, j int) bool { return out.Voters[i].Principal < out.Voters[j].Principal })
	return out
}
