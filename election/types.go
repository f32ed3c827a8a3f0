// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "fmt"

// Principal identifies a caller. The election never authenticates it; the host
// supplies an already-verified value.
type Principal string

// Phase is the lifecycle state of an election.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseOpen
	PhaseClosed
)

var phaseNames = [...]string{
	PhaseSetup:  "setup",
	PhaseOpen:   "open",
	PhaseClosed: "closed",
}

func (p Phase) String() string {
	if p < PhaseSetup || p > PhaseClosed {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase as its lowercase name.
func (p Phase) MarshalText() ([]byte, error) {
	if p < PhaseSetup || p > PhaseClosed {
		return nil, fmt.Errorf("%w: unknown phase %d", ErrInvalidArgument, int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a stored phase name back into a Phase.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return PhaseSetup, fmt.Errorf("%w: unknown phase %q", ErrInvalidArgument, s)
}

// Candidate is a read-only view of a candidate record.
type Candidate struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	VoteCount int    `json:"vote_count"`
}

// VoterStatus is the public view of a participant. Unknown principals report
// the zero value.
type VoterStatus struct {
	Registered bool `json:"registered"`
	Voted      bool `json:"voted"`
}

// Status is a point-in-time summary of the election.
type Status struct {
	Name           string `json:"name"`
	Phase          Phase  `json:"phase"`
	CandidateCount int    `json:"candidate_count"`
	TotalVotes     int    `json:"total_votes"`
}

// Results reports the leading candidate. Ties go to the lowest candidate ID.
// Phase is read together with the counts, so a closed phase means final counts.
type Results struct {
	WinnerID    int    `json:"winner_id"`
	WinnerName  string `json:"winner_name"`
	WinnerVotes int    `json:"winner_votes"`
	TotalVotes  int    `json:"total_votes"`
	Phase       Phase  `json:"phase"`
}

// voter is the payload stored for a registered principal. Presence in the
// participants map is what makes a principal registered.
type voter struct {
	hasVoted    bool
	candidateID int
}
