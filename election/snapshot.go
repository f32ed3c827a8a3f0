// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"sort"
)

// VoterRecord is the persisted form of a registered participant.
// CandidateID is zero while HasVoted is false.
type VoterRecord struct {
	Principal   Principal `json:"principal"`
	HasVoted    bool      `json:"has_voted"`
	CandidateID int       `json:"candidate_id,omitempty"`
}

// Snapshot is the full persisted state of an election.
type Snapshot struct {
	Administrator Principal     `json:"administrator"`
	Name          string        `json:"name"`
	Phase         Phase         `json:"phase"`
	Candidates    []Candidate   `json:"candidates"`
	Voters        []VoterRecord `json:"voters"`
	TotalVotes    int           `json:"total_votes"`
	Seq           uint64        `json:"seq"`
}

// Snapshot copies the current state. Voters are sorted by principal so equal
// states produce equal snapshots.
func (e *Election) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Administrator: e.administrator,
		Name:          e.name,
		Phase:         e.phase,
		Candidates:    make([]Candidate, len(e.candidates)),
		Voters:        make([]VoterRecord, 0, len(e.participants)),
		TotalVotes:    e.totalVotes,
		Seq:           e.seq,
	}
	copy(s.Candidates, e.candidates)
	for p, v := range e.participants {
		s.Voters = append(s.Voters, VoterRecord{Principal: p, HasVoted: v.hasVoted, CandidateID: v.candidateID})
	}
	sort.Slice(s.Voters, func(i, j int) bool { return s.Voters[i].Principal < s.Voters[j].Principal })
	return s
}

// Restore rebuilds an election from a snapshot after checking every invariant
// the state machine maintains.
func Restore(s Snapshot, opts ...Option) (*Election, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	e := build(s.Administrator, s.Name, opts)
	e.phase = s.Phase
	e.totalVotes = s.TotalVotes
	e.seq = s.Seq
	e.candidates = make([]Candidate, len(s.Candidates))
	copy(e.candidates, s.Candidates)
	for _, v := range s.Voters {
		e.participants[v.Principal] = voter{hasVoted: v.HasVoted, candidateID: v.CandidateID}
	}
	return e, nil
}

// Validate checks a snapshot for internal consistency.
func (s Snapshot) Validate() error {
	if !ValidPrincipal(s.Administrator) {
		return fmt.Errorf("%w: snapshot administrator %q is malformed", ErrInvalidArgument, s.Administrator)
	}
	if !validCandidateName(s.Name) {
		return fmt.Errorf("%w: snapshot has no election name", ErrInvalidArgument)
	}
	if s.Phase < PhaseSetup || s.Phase > PhaseClosed {
		return fmt.Errorf("%w: snapshot phase %d", ErrInvalidArgument, int(s.Phase))
	}
	if s.Phase != PhaseSetup && len(s.Candidates) == 0 {
		return fmt.Errorf("%w: snapshot left setup without candidates", ErrInvalidArgument)
	}

	sum := 0
	for i, c := range s.Candidates {
		if c.ID != i+1 {
			return fmt.Errorf("%w: candidate at position %d has id %d", ErrInvalidArgument, i, c.ID)
		}
		if !validCandidateName(c.Name) {
			return fmt.Errorf("%w: candidate %d has no name", ErrInvalidArgument, c.ID)
		}
		if c.VoteCount < 0 {
			return fmt.Errorf("%w: candidate %d has negative votes", ErrInvalidArgument, c.ID)
		}
		sum += c.VoteCount
	}

	perCandidate := make([]int, len(s.Candidates)+1)
	seen := make(map[Principal]struct{}, len(s.Voters))
	voted := 0
	for _, v := range s.Voters {
		if !ValidPrincipal(v.Principal) {
			return fmt.Errorf("%w: voter %q is malformed", ErrInvalidArgument, v.Principal)
		}
		if _, dup := seen[v.Principal]; dup {
			return fmt.Errorf("%w: voter %s appears twice", ErrInvalidArgument, v.Principal)
		}
		seen[v.Principal] = struct{}{}
		if !v.HasVoted {
			if v.CandidateID != 0 {
				return fmt.Errorf("%w: voter %s has a choice but no vote", ErrInvalidArgument, v.Principal)
			}
			continue
		}
		if v.CandidateID < 1 || v.CandidateID > len(s.Candidates) {
			return fmt.Errorf("%w: voter %s voted for unknown candidate %d", ErrInvalidArgument, v.Principal, v.CandidateID)
		}
		perCandidate[v.CandidateID]++
		voted++
	}

	if sum != s.TotalVotes || voted != s.TotalVotes {
		return fmt.Errorf("%w: vote totals disagree (candidates %d, voters %d, total %d)",
			ErrInvalidArgument, sum, voted, s.TotalVotes)
	}
	for _, c := range s.Candidates {
		if perCandidate[c.ID] != c.VoteCount {
			return fmt.Errorf("%w: candidate %d counts %d votes but %d voters chose it",
				ErrInvalidArgument, c.ID, c.VoteCount, perCandidate[c.ID])
		}
	}
	if s.Phase == PhaseSetup && s.TotalVotes != 0 {
		return fmt.Errorf("%w: votes recorded before voting opened", ErrInvalidArgument)
	}
	return nil
}
