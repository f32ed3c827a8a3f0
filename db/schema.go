// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The DDL is shared by PostgreSQL and SQLite, so it sticks to types and
// constraints both understand.
const schema = `
-- The election (single row)
CREATE TABLE IF NOT EXISTS election (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    administrator TEXT NOT NULL,
    name TEXT NOT NULL,
    phase TEXT NOT NULL DEFAULT 'setup' CHECK (phase IN ('setup', 'open', 'closed')),
    total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    last_seq BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY CHECK (id > 0),
    name TEXT NOT NULL,
    vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0)
);

-- Registered voters
CREATE TABLE IF NOT EXISTS voter (
    principal TEXT PRIMARY KEY,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    voted_candidate_id INTEGER REFERENCES candidate(id),
    registered_at TIMESTAMP NOT NULL,
    voted_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_voter_candidate ON voter(voted_candidate_id);

-- Committed events, in sequence order
CREATE TABLE IF NOT EXISTS election_event (
    seq BIGINT PRIMARY KEY,
    kind TEXT NOT NULL,
    caller TEXT NOT NULL,
    candidate_id INTEGER,
    candidate_name TEXT,
    principal TEXT,
    phase TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL
);
`
