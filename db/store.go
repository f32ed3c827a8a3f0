// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/sentinel"
)

// Event listing bounds.
const (
	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

// SQLStore persists the election in PostgreSQL or SQLite. Every event is
// applied in its own transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load reads the election, its candidates and voters in one transaction.
func (s *SQLStore) Load(ctx context.Context) (election.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return election.Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var snap election.Snapshot
	var phase string
	var lastSeq int64
	err = tx.QueryRowContext(ctx, `
		SELECT administrator, name, phase, total_votes, last_seq
		FROM election
		WHERE id = 1
	`).Scan(&snap.Administrator, &snap.Name, &phase, &snap.TotalVotes, &lastSeq)
	if err == sql.ErrNoRows {
		return election.Snapshot{}, fmt.Errorf("election: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return election.Snapshot{}, fmt.Errorf("failed to query election: %w", err)
	}
	snap.Seq = uint64(lastSeq)
	if snap.Phase, err = election.ParsePhase(phase); err != nil {
		return election.Snapshot{}, err
	}

	if snap.Candidates, err = loadCandidates(ctx, tx); err != nil {
		return election.Snapshot{}, err
	}
	if snap.Voters, err = loadVoters(ctx, tx); err != nil {
		return election.Snapshot{}, err
	}

	return snap, tx.Commit()
}

func loadCandidates(ctx context.Context, tx *sql.Tx) ([]election.Candidate, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, vote_count
		FROM candidate
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []election.Candidate{}
	for rows.Next() {
		var c election.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func loadVoters(ctx context.Context, tx *sql.Tx) ([]election.VoterRecord, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT principal, has_voted, voted_candidate_id
		FROM voter
		ORDER BY principal
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}
	defer rows.Close()

	voters := []election.VoterRecord{}
	for rows.Next() {
		var v election.VoterRecord
		var candidateID sql.NullInt64
		if err := rows.Scan(&v.Principal, &v.HasVoted, &candidateID); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		v.CandidateID = int(candidateID.Int64)
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

// Create writes the initial election. It fails with sentinel.ErrConflict when
// an election already exists.
func (s *SQLStore) Create(ctx context.Context, snap election.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM election`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count elections: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("election already exists: %w", sentinel.ErrConflict)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, administrator, name, phase, total_votes, last_seq, created_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
	`, string(snap.Administrator), snap.Name, snap.Phase.String(), snap.TotalVotes, int64(snap.Seq), now)
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	for _, c := range snap.Candidates {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate (id, name, vote_count)
			VALUES ($1, $2, $3)
		`, c.ID, c.Name, c.VoteCount)
		if err != nil {
			return fmt.Errorf("failed to insert candidate %d: %w", c.ID, err)
		}
	}

	for _, v := range snap.Voters {
		var candidateID sql.NullInt64
		var votedAt sql.NullTime
		if v.HasVoted {
			candidateID = sql.NullInt64{Int64: int64(v.CandidateID), Valid: true}
			votedAt = sql.NullTime{Time: now, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voter (principal, has_voted, voted_candidate_id, registered_at, voted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, string(v.Principal), v.HasVoted, candidateID, now, votedAt)
		if err != nil {
			return fmt.Errorf("failed to insert voter %s: %w", v.Principal, err)
		}
	}

	return tx.Commit()
}

// Apply persists one event. The election row's last_seq guards ordering.
func (s *SQLStore) Apply(ctx context.Context, ev election.Event) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", election.ErrInvalidArgument, ev.Kind)
	}
	if ev.Seq == 0 {
		return fmt.Errorf("%w: event has no sequence number", election.ErrInvalidArgument)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE election SET last_seq = $1 WHERE id = 1 AND last_seq = $2
	`, int64(ev.Seq), int64(ev.Seq-1))
	if err != nil {
		return fmt.Errorf("failed to advance sequence: %w", err)
	}
	if err := expectOneRow(res, "event %d does not follow the stored sequence", ev.Seq); err != nil {
		return err
	}

	at := ev.At.UTC()
	switch ev.Kind {
	case election.EventCandidateAdded:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate (id, name, vote_count)
			VALUES ($1, $2, 0)
		`, ev.CandidateID, ev.CandidateName)
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}

	case election.EventVoterRegistered:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voter (principal, has_voted, registered_at)
			VALUES ($1, $2, $3)
		`, string(ev.Principal), false, at)
		if err != nil {
			return fmt.Errorf("failed to insert voter: %w", err)
		}

	case election.EventVotingStarted, election.EventVotingEnded:
		_, err = tx.ExecContext(ctx, `
			UPDATE election SET phase = $1 WHERE id = 1
		`, ev.Phase.String())
		if err != nil {
			return fmt.Errorf("failed to update phase: %w", err)
		}

	case election.EventVoteCast:
		if err := recordVote(ctx, tx, ev, at); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election_event (seq, kind, caller, candidate_id, candidate_name, principal, phase, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, int64(ev.Seq), string(ev.Kind), string(ev.Caller),
		nullInt(ev.CandidateID), nullString(ev.CandidateName), nullString(string(ev.Principal)),
		ev.Phase.String(), at)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func recordVote(ctx context.Context, tx *sql.Tx, ev election.Event, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE voter
		SET has_voted = $1, voted_candidate_id = $2, voted_at = $3
		WHERE principal = $4 AND has_voted = $5
	`, true, ev.CandidateID, at, string(ev.Principal), false)
	if err != nil {
		return fmt.Errorf("failed to update voter: %w", err)
	}
	if err := expectOneRow(res, "voter %s is unknown or has already voted", ev.Principal); err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE candidate SET vote_count = vote_count + 1 WHERE id = $1
	`, ev.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if err := expectOneRow(res, "candidate %d is unknown", ev.CandidateID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE election SET total_votes = total_votes + 1 WHERE id = 1
	`)
	if err != nil {
		return fmt.Errorf("failed to update total votes: %w", err)
	}
	return nil
}

// Events lists events after seq in order. limit is clamped to
// [1, MaxEventLimit], defaulting to DefaultEventLimit.
func (s *SQLStore) Events(ctx context.Context, after uint64, limit int) ([]election.Event, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, caller, candidate_id, candidate_name, principal, phase, occurred_at
		FROM election_event
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2
	`, int64(after), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []election.Event{}
	for rows.Next() {
		var (
			ev            election.Event
			seq           int64
			kind, phase   string
			candidateID   sql.NullInt64
			candidateName sql.NullString
			principal     sql.NullString
		)
		err := rows.Scan(&seq, &kind, &ev.Caller, &candidateID, &candidateName, &principal, &phase, &ev.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Seq = uint64(seq)
		ev.Kind = election.EventKind(kind)
		ev.CandidateID = int(candidateID.Int64)
		ev.CandidateName = candidateName.String
		ev.Principal = election.Principal(principal.String)
		ev.At = ev.At.UTC()
		if ev.Phase, err = election.ParsePhase(phase); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultEventLimit
	case limit > MaxEventLimit:
		return MaxEventLimit
	}
	return limit
}

func expectOneRow(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != 1 {
		return errors.Join(sentinel.ErrConflict, fmt.Errorf(format, args...))
	}
	return nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
