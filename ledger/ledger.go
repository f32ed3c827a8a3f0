// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/sentinel"
)

const tracerName = "github.com/dikshapatel15/Decentralized-Voting-System/ledger"

// ErrOutOfSync is returned by writes while the election cannot be reloaded
// from the store after a failed persist.
var ErrOutOfSync = errors.New("ledger out of sync with store")

// Bootstrap names the election to create when the store is empty.
type Bootstrap struct {
	Administrator election.Principal
	Name          string
}

// Ledger hosts one election. Writes are serialised so that mutate, persist and
// publish happen as a unit. Readers see the last durable election, which is
// never mutated once published.
type Ledger struct {
	mu      sync.Mutex
	current atomic.Pointer[election.Election]
	pending *election.Event
	stale   bool

	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	clock     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPublisher sets where durable events are forwarded.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		l.publisher = p
	}
}

// WithMetrics records operation outcomes and election gauges in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.clock = now
		}
	}
}

// Open loads the election from store, creating it from boot when the store is
// empty. A stored election always wins over boot.
func Open(ctx context.Context, store Store, boot Bootstrap, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		e, err := election.New(boot.Administrator, boot.Name, l.electionOptions()...)
		if err != nil {
			return nil, fmt.Errorf("create election: %w", err)
		}
		snap = e.Snapshot()
		if err := store.Create(ctx, snap); err != nil {
			if !errors.Is(err, sentinel.ErrConflict) {
				return nil, fmt.Errorf("persist new election: %w", err)
			}
			// Another process created it first.
			if snap, err = store.Load(ctx); err != nil {
				return nil, fmt.Errorf("load election: %w", err)
			}
		} else {
			l.current.Store(e)
			l.logger.Info("election created", "name", boot.Name, "administrator", boot.Administrator)
		}
	case err != nil:
		return nil, fmt.Errorf("load election: %w", err)
	}

	if l.current.Load() == nil {
		e, err := election.Restore(snap, l.electionOptions()...)
		if err != nil {
			return nil, fmt.Errorf("restore election: %w", err)
		}
		l.current.Store(e)
		if snap.Administrator != boot.Administrator || snap.Name != boot.Name {
			l.logger.Warn("stored election differs from configuration, using stored values",
				"stored_name", snap.Name,
				"stored_administrator", snap.Administrator,
			)
		}
		l.logger.Info("election loaded", "name", snap.Name, "phase", snap.Phase, "seq", snap.Seq)
	}

	l.metrics.Sync(l.current.Load().Snapshot())
	return l, nil
}

func (l *Ledger) electionOptions() []election.Option {
	return []election.Option{
		election.WithObserver(election.ObserverFunc(l.capture)),
		election.WithClock(l.clock),
	}
}

// capture runs in the writing goroutine while l.mu is held.
func (l *Ledger) capture(ev election.Event) {
	l.pending = &ev
}

// rehydrate replaces the current election with the stored one.
func (l *Ledger) rehydrate(ctx context.Context) error {
	snap, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload election: %w", err)
	}
	e, err := election.Restore(snap, l.electionOptions()...)
	if err != nil {
		return fmt.Errorf("restore election: %w", err)
	}
	l.current.Store(e)
	l.stale = false
	l.metrics.Sync(snap)
	return nil
}

// write applies fn to a working copy of the election and publishes the copy
// to readers only once its event is durable. A failed write leaves the
// current election untouched.
func (l *Ledger) write(ctx context.Context, op string, caller election.Principal, fn func(*election.Election) error) (err error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("ballot.caller", string(caller)),
	))
	defer span.End()
	defer func() { l.metrics.ObserveOperation(op, err) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stale {
		if err := l.rehydrate(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "out of sync")
			return fmt.Errorf("%w: %v", ErrOutOfSync, err)
		}
	}

	work, err := election.Restore(l.current.Load().Snapshot(), l.electionOptions()...)
	if err != nil {
		return fmt.Errorf("copy election: %w", err)
	}

	l.pending = nil
	if err := fn(work); err != nil {
		span.SetAttributes(attribute.String("ballot.outcome", election.KindOf(err)))
		return err
	}
	if l.pending == nil {
		return fmt.Errorf("%s committed without an event", op)
	}
	ev := *l.pending
	span.SetAttributes(attribute.Int64("ballot.seq", int64(ev.Seq)))

	if err := l.store.Apply(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		l.logger.ErrorContext(ctx, "failed to persist event",
			"seq", ev.Seq,
			"kind", ev.Kind,
			"error", err,
		)
		// The store may have committed before failing; resync with it.
		if rerr := l.rehydrate(ctx); rerr != nil {
			l.stale = true
			l.logger.ErrorContext(ctx, "failed to reload election", "error", rerr)
			return errors.Join(fmt.Errorf("persist %s: %w", ev.Kind, err), rerr)
		}
		return fmt.Errorf("persist %s: %w", ev.Kind, err)
	}
	l.current.Store(work)

	l.metrics.RecordEvent(ev)
	l.logger.InfoContext(ctx, "election event", "seq", ev.Seq, "kind", ev.Kind, "caller", ev.Caller)

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, ev); err != nil {
			l.logger.WarnContext(ctx, "failed to publish event", "seq", ev.Seq, "kind", ev.Kind, "error", err)
		}
	}
	return nil
}

// AddCandidate adds a candidate on behalf of caller and returns its ID.
func (l *Ledger) AddCandidate(ctx context.Context, caller election.Principal, name string) (int, error) {
	var id int
	err := l.write(ctx, "AddCandidate", caller, func(e *election.Election) error {
		var err error
		id, err = e.AddCandidate(caller, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RegisterVoter registers principal on behalf of caller.
func (l *Ledger) RegisterVoter(ctx context.Context, caller, principal election.Principal) error {
	return l.write(ctx, "RegisterVoter", caller, func(e *election.Election) error {
		return e.RegisterVoter(caller, principal)
	})
}

// StartVoting opens the election.
func (l *Ledger) StartVoting(ctx context.Context, caller election.Principal) error {
	return l.write(ctx, "StartVoting", caller, func(e *election.Election) error {
		return e.StartVoting(caller)
	})
}

// CastVote records caller's vote for candidateID.
func (l *Ledger) CastVote(ctx context.Context, caller election.Principal, candidateID int) error {
	return l.write(ctx, "CastVote", caller, func(e *election.Election) error {
		return e.CastVote(caller, candidateID)
	})
}

// EndVoting closes the election.
func (l *Ledger) EndVoting(ctx context.Context, caller election.Principal) error {
	return l.write(ctx, "EndVoting", caller, func(e *election.Election) error {
		return e.EndVoting(caller)
	})
}

// Results reports the current leader and totals.
func (l *Ledger) Results() (election.Results, error) {
	return l.current.Load().Results()
}

// Candidate looks up a candidate by ID.
func (l *Ledger) Candidate(id int) (election.Candidate, error) {
	return l.current.Load().Candidate(id)
}

// Candidates lists candidates in ID order.
func (l *Ledger) Candidates() []election.Candidate {
	return l.current.Load().Candidates()
}

// Voter reports whether principal is registered and has voted.
func (l *Ledger) Voter(principal election.Principal) election.VoterStatus {
	return l.current.Load().Voter(principal)
}

// Status summarises the election.
func (l *Ledger) Status() election.Status {
	return l.current.Load().Status()
}

// Snapshot copies the durable state.
func (l *Ledger) Snapshot() election.Snapshot {
	return l.current.Load().Snapshot()
}

// Administrator returns the election administrator.
func (l *Ledger) Administrator() election.Principal {
	return l.current.Load().Administrator()
}

// Events returns the persisted history after seq.
func (l *Ledger) Events(ctx context.Context, after uint64, limit int) ([]election.Event, error) {
	return l.store.Events(ctx, after, limit)
}
