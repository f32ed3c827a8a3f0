// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dikshapatel15/Decentralized-Voting-System/db"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/ledger"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/mocks"
	"github.com/dikshapatel15/Decentralized-Voting-System/sentinel"
)

const admin election.Principal = "0xadmin"

var (
	boot      = ledger.Bootstrap{Administrator: admin, Name: "Board Election"}
	fixedTime = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	clock     = ledger.WithClock(func() time.Time { return fixedTime })
)

func openMemory(t *testing.T, store *db.MemoryStore, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(context.Background(), store, boot, append([]ledger.Option{clock}, opts...)...)
	require.NoError(t, err)
	return l
}

func runBoardElection(t *testing.T, l *ledger.Ledger) {
	t.Helper()
	ctx := context.Background()

	id, err := l.AddCandidate(ctx, admin, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	id, err = l.AddCandidate(ctx, admin, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	for _, p := range []election.Principal{"p1", "p2", "p3"} {
		require.NoError(t, l.RegisterVoter(ctx, admin, p))
	}
	require.NoError(t, l.StartVoting(ctx, admin))
	require.NoError(t, l.CastVote(ctx, "p1", 1))
	require.NoError(t, l.CastVote(ctx, "p2", 1))
	require.NoError(t, l.CastVote(ctx, "p3", 2))
	require.NoError(t, l.EndVoting(ctx, admin))
}

func TestOpenCreatesElection(t *testing.T) {
	store := db.NewMemoryStore()
	l := openMemory(t, store)

	assert.Equal(t, election.Status{Name: "Board Election", Phase: election.PhaseSetup}, l.Status())
	assert.Equal(t, admin, l.Administrator())

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, l.Snapshot(), snap)
}

func TestOpenRejectsBadBootstrap(t *testing.T) {
	_, err := ledger.Open(context.Background(), db.NewMemoryStore(), ledger.Bootstrap{Administrator: "has space", Name: "x"})
	assert.ErrorIs(t, err, election.ErrInvalidArgument)

	_, err = ledger.Open(context.Background(), db.NewMemoryStore(), ledger.Bootstrap{Administrator: admin})
	assert.ErrorIs(t, err, election.ErrInvalidArgument)

	_, err = ledger.Open(context.Background(), nil, boot)
	assert.Error(t, err)
}

func TestRestartReproducesState(t *testing.T) {
	store := db.NewMemoryStore()
	first := openMemory(t, store)
	runBoardElection(t, first)

	second := openMemory(t, store)
	assert.Equal(t, first.Snapshot(), second.Snapshot())

	res, err := second.Results()
	require.NoError(t, err)
	assert.Equal(t, election.Results{WinnerID: 1, WinnerName: "Alice", WinnerVotes: 2, TotalVotes: 3, Phase: election.PhaseClosed}, res)
	assert.Equal(t, election.VoterStatus{Registered: true, Voted: true}, second.Voter("p3"))
	assert.ErrorIs(t, second.CastVote(context.Background(), "p1", 2), election.ErrInvalidPhase)

	events, err := second.Events(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestStoredElectionWinsOverBootstrap(t *testing.T) {
	store := db.NewMemoryStore()
	openMemory(t, store)

	l, err := ledger.Open(context.Background(), store, ledger.Bootstrap{Administrator: "0xother", Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, admin, l.Administrator())
	assert.Equal(t, "Board Election", l.Status().Name)
}

func TestRejectedOperationsPersistNothing(t *testing.T) {
	store := db.NewMemoryStore()
	l := openMemory(t, store)
	ctx := context.Background()

	_, err := l.AddCandidate(ctx, "0xmallory", "Mallory")
	assert.ErrorIs(t, err, election.ErrUnauthorized)
	assert.ErrorIs(t, l.StartVoting(ctx, admin), election.ErrNoCandidates)
	assert.ErrorIs(t, l.CastVote(ctx, "p1", 1), election.ErrInvalidPhase)

	events, err := store.Events(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Seq)
}

func TestMetricsFollowWrites(t *testing.T) {
	m := metrics.New()
	l := openMemory(t, db.NewMemoryStore(), ledger.WithMetrics(m))
	runBoardElection(t, l)
	assert.ErrorIs(t, l.CastVote(context.Background(), "p1", 1), election.ErrInvalidPhase)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.VotesCast))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Candidates))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RegisteredVoters))
	assert.Equal(t, float64(election.PhaseClosed), testutil.ToFloat64(m.Phase))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Operations.WithLabelValues("CastVote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("CastVote", "invalid_phase")))
}

func TestPublishesOnlyDurableEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	l := openMemory(t, db.NewMemoryStore(), ledger.WithPublisher(pub))
	ctx := context.Background()

	pub.EXPECT().Publish(gomock.Any(), election.Event{
		Seq: 1, Kind: election.EventCandidateAdded, Caller: admin, CandidateID: 1, CandidateName: "Alice",
		Phase: election.PhaseSetup, At: fixedTime,
	}).Return(nil)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := l.AddCandidate(ctx, admin, "Alice")
	require.NoError(t, err)

	// Publish failures do not undo a durable write.
	require.NoError(t, l.RegisterVoter(ctx, admin, "p1"))
	assert.True(t, l.Voter("p1").Registered)

	// Rejected operations never reach the publisher.
	assert.ErrorIs(t, l.RegisterVoter(ctx, admin, "p1"), election.ErrAlreadyRegistered)
}

func initialSnapshot(t *testing.T) election.Snapshot {
	t.Helper()
	e, err := election.New(admin, "Board Election")
	require.NoError(t, err)
	return e.Snapshot()
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	pub := mocks.NewMockPublisher(ctrl)
	ctx := context.Background()
	initial := initialSnapshot(t)

	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, fmt.Errorf("election: %w", sentinel.ErrNotFound)),
		store.EXPECT().Create(gomock.Any(), initial).Return(nil),
		store.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		store.EXPECT().Load(gomock.Any()).Return(initial, nil),
	)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	l, err := ledger.Open(ctx, store, boot, ledger.WithPublisher(pub), clock)
	require.NoError(t, err)

	_, err = l.AddCandidate(ctx, admin, "Alice")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, l.Candidates())
	assert.Equal(t, initial, l.Snapshot())
}

// assertUnchanged checks that every read still reports the durable state.
func assertUnchanged(t *testing.T, l *ledger.Ledger, want election.Snapshot) {
	t.Helper()

	assert.Equal(t, want, l.Snapshot())
	assert.Empty(t, l.Candidates())
	assert.Equal(t, 0, l.Status().CandidateCount)
	_, err := l.Candidate(1)
	assert.ErrorIs(t, err, election.ErrCandidateNotFound)
	_, err = l.Results()
	assert.ErrorIs(t, err, election.ErrNoCandidates)
}

func TestFailedWriteNeverVisible(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	initial := initialSnapshot(t)

	seen := make(chan struct{})
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(initial, nil),
		store.EXPECT().Apply(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, election.Event) error {
			close(seen)
			return errors.New("disk full")
		}),
		store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, errors.New("connection reset")),
	)

	l, err := ledger.Open(ctx, store, boot, clock)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := l.AddCandidate(ctx, admin, "Alice")
		done <- err
	}()

	// While the event is being persisted, readers still see the old state.
	<-seen
	assert.Equal(t, 0, l.Status().CandidateCount)

	err = <-done
	assert.ErrorContains(t, err, "disk full")
	assertUnchanged(t, l, initial)
}

func TestStaleLedgerReloadsBeforeNextWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	initial := initialSnapshot(t)

	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(initial, nil),
		// First write: persist fails and so does the rollback.
		store.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, errors.New("connection reset")),
		// Second write: still cannot reload.
		store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, errors.New("connection reset")),
		// Third write: reload succeeds and the write goes through.
		store.EXPECT().Load(gomock.Any()).Return(initial, nil),
		store.EXPECT().Apply(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev election.Event) error {
			assert.Equal(t, uint64(1), ev.Seq)
			assert.Equal(t, "Bob", ev.CandidateName)
			return nil
		}),
	)

	l, err := ledger.Open(ctx, store, boot, clock)
	require.NoError(t, err)

	_, err = l.AddCandidate(ctx, admin, "Alice")
	assert.ErrorContains(t, err, "connection reset")
	assertUnchanged(t, l, initial)

	_, err = l.AddCandidate(ctx, admin, "Bob")
	assert.ErrorIs(t, err, ledger.ErrOutOfSync)
	assertUnchanged(t, l, initial)

	id, err := l.AddCandidate(ctx, admin, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, []election.Candidate{{ID: 1, Name: "Bob"}}, l.Candidates())
}

func TestOpenCreateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	theirs := election.Snapshot{
		Administrator: "0xfirst",
		Name:          "First",
		Candidates:    []election.Candidate{},
		Voters:        []election.VoterRecord{},
	}
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, sentinel.ErrNotFound),
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(fmt.Errorf("exists: %w", sentinel.ErrConflict)),
		store.EXPECT().Load(gomock.Any()).Return(theirs, nil),
	)

	l, err := ledger.Open(ctx, store, boot)
	require.NoError(t, err)
	assert.Equal(t, election.Principal("0xfirst"), l.Administrator())
}

func TestOpenLoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(election.Snapshot{}, errors.New("no route to host"))

	_, err := ledger.Open(context.Background(), store, boot)
	assert.ErrorContains(t, err, "load election")
}
