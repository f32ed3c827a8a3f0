// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package e2e

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/models"
)

// RegisterSteps registers every election step definition.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	s := &electionSteps{tc: tc}

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.Close()
		return ctx, nil
	})

	// Background
	ctx.Step(`^an election "([^"]*)" administered by "([^"]*)"$`, s.startElection)

	// Actions
	ctx.Step(`^"([^"]*)" adds candidate "([^"]*)"$`, s.addCandidate)
	ctx.Step(`^"([^"]*)" registers voter "([^"]*)"$`, s.registerVoter)
	ctx.Step(`^"([^"]*)" starts voting$`, s.startVoting)
	ctx.Step(`^"([^"]*)" ends voting$`, s.endVoting)
	ctx.Step(`^"([^"]*)" votes for candidate (\d+)$`, s.castVote)
	ctx.Step(`^an anonymous caller starts voting$`, s.anonymousStart)

	// Assertions
	ctx.Step(`^the request succeeds$`, s.requestSucceeds)
	ctx.Step(`^the request fails with status (\d+) and code "([^"]*)"$`, s.requestFails)
	ctx.Step(`^the phase is "([^"]*)"$`, s.phaseIs)
	ctx.Step(`^the winner is "([^"]*)" with (\d+) of (\d+) votes$`, s.winnerIs)
	ctx.Step(`^candidate (\d+) has (\d+) votes?$`, s.candidateHas)
	ctx.Step(`^"([^"]*)" has voted$`, s.hasVoted)
	ctx.Step(`^"([^"]*)" has not voted$`, s.hasNotVoted)
	ctx.Step(`^the event log has (\d+) events$`, s.eventCount)
}

type electionSteps struct {
	tc *TestContext
}

func (s *electionSteps) startElection(ctx context.Context, name, admin string) error {
	return s.tc.Start(ctx, name, election.Principal(admin))
}

func (s *electionSteps) addCandidate(caller, name string) error {
	return s.tc.Do(http.MethodPost, "/election/candidates", election.Principal(caller), models.AddCandidateRequest{Name: name})
}

func (s *electionSteps) registerVoter(caller, principal string) error {
	return s.tc.Do(http.MethodPost, "/election/voters", election.Principal(caller),
		models.RegisterVoterRequest{Principal: election.Principal(principal)})
}

func (s *electionSteps) startVoting(caller string) error {
	return s.tc.Do(http.MethodPost, "/election/start", election.Principal(caller), nil)
}

func (s *electionSteps) endVoting(caller string) error {
	return s.tc.Do(http.MethodPost, "/election/end", election.Principal(caller), nil)
}

func (s *electionSteps) castVote(caller string, candidateID int) error {
	return s.tc.Do(http.MethodPost, "/election/votes", election.Principal(caller), models.CastVoteRequest{CandidateID: candidateID})
}

func (s *electionSteps) anonymousStart() error {
	return s.tc.Do(http.MethodPost, "/election/start", "", nil)
}

func (s *electionSteps) requestSucceeds() error {
	if code := s.tc.Status(); code < 200 || code > 299 {
		return fmt.Errorf("expected success, got %d: %s", code, s.tc.Body())
	}
	return nil
}

func (s *electionSteps) requestFails(status int, code string) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	var resp models.ErrorResponse
	if err := s.tc.Decode(&resp); err != nil {
		return err
	}
	if resp.Code != code {
		return fmt.Errorf("expected code %q, got %q", code, resp.Code)
	}
	return nil
}

func (s *electionSteps) phaseIs(phase string) error {
	if err := s.tc.Do(http.MethodGet, "/election", "", nil); err != nil {
		return err
	}
	var st models.StatusResponse
	if err := s.tc.Decode(&st); err != nil {
		return err
	}
	if st.Phase.String() != phase {
		return fmt.Errorf("expected phase %s, got %s", phase, st.Phase)
	}
	return nil
}

func (s *electionSteps) winnerIs(name string, votes, total int) error {
	if err := s.tc.Do(http.MethodGet, "/election/results", "", nil); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("results answered %d: %s", s.tc.Status(), s.tc.Body())
	}
	var res models.ResultsResponse
	if err := s.tc.Decode(&res); err != nil {
		return err
	}
	if res.WinnerName != name || res.WinnerVotes != votes || res.TotalVotes != total {
		return fmt.Errorf("expected %s with %d of %d, got %s with %d of %d",
			name, votes, total, res.WinnerName, res.WinnerVotes, res.TotalVotes)
	}
	return nil
}

func (s *electionSteps) candidateHas(id, votes int) error {
	if err := s.tc.Do(http.MethodGet, fmt.Sprintf("/election/candidates/%d", id), "", nil); err != nil {
		return err
	}
	var c election.Candidate
	if err := s.tc.Decode(&c); err != nil {
		return err
	}
	if c.VoteCount != votes {
		return fmt.Errorf("candidate %d has %d votes, expected %d", id, c.VoteCount, votes)
	}
	return nil
}

func (s *electionSteps) voter(principal string) (models.VoterResponse, error) {
	var v models.VoterResponse
	if err := s.tc.Do(http.MethodGet, "/election/voters/"+principal, "", nil); err != nil {
		return v, err
	}
	err := s.tc.Decode(&v)
	return v, err
}

func (s *electionSteps) hasVoted(principal string) error {
	v, err := s.voter(principal)
	if err != nil {
		return err
	}
	if !v.Voted {
		return fmt.Errorf("%s has not voted", principal)
	}
	return nil
}

func (s *electionSteps) hasNotVoted(principal string) error {
	v, err := s.voter(principal)
	if err != nil {
		return err
	}
	if v.Voted {
		return fmt.Errorf("%s has voted", principal)
	}
	return nil
}

func (s *electionSteps) eventCount(n int) error {
	if err := s.tc.Do(http.MethodGet, "/election/events", "", nil); err != nil {
		return err
	}
	var resp models.EventsResponse
	if err := s.tc.Decode(&resp); err != nil {
		return err
	}
	if len(resp.Events) != n {
		return fmt.Errorf("expected %d events, got %d", n, len(resp.Events))
	}
	return nil
}
