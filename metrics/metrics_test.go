// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("CastVote", nil)
	m.ObserveOperation("CastVote", fmt.Errorf("%w: p1", election.ErrAlreadyVoted))
	m.ObserveOperation("CastVote", errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("CastVote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("CastVote", "already_voted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("CastVote", "internal")))
}

func TestRecordEventAndSync(t *testing.T) {
	m := New()

	m.Sync(election.Snapshot{
		Phase:      election.PhaseSetup,
		Candidates: []election.Candidate{{ID: 1, Name: "Alice"}},
		Voters:     []election.VoterRecord{{Principal: "p1"}, {Principal: "p2"}},
	})
	m.RecordEvent(election.Event{Kind: election.EventCandidateAdded, Phase: election.PhaseSetup})
	m.RecordEvent(election.Event{Kind: election.EventVoterRegistered, Phase: election.PhaseSetup})
	m.RecordEvent(election.Event{Kind: election.EventVotingStarted, Phase: election.PhaseOpen})
	m.RecordEvent(election.Event{Kind: election.EventVoteCast, Phase: election.PhaseOpen})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Candidates))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RegisteredVoters))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesCast))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Phase))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("AddCandidate", nil)
		m.RecordEvent(election.Event{Kind: election.EventVoteCast})
		m.Sync(election.Snapshot{})
		m.IncNotificationsDropped()
		m.ObserveRequest("GET", "/election", 200, time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.IncNotificationsDropped()
	m.ObserveRequest("POST", "/election/votes", 201, 3*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ballot_notifications_dropped_total 1")
	assert.Contains(t, w.Body.String(), `ballot_http_request_duration_seconds_count{method="POST",route="/election/votes",status="201"} 1`)
}

func TestRequestDurationSplitsByStatus(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/election/votes", 201, time.Millisecond)
	m.ObserveRequest("POST", "/election/votes", 409, time.Millisecond)
	m.ObserveRequest("POST", "/election/votes", 201, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration, "ballot_http_request_duration_seconds"))
}
