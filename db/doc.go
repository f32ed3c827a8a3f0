// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, schema creation and election storage.

# Connections

Open connects, pings and creates the schema:

	conn, err := db.Open(ctx, db.TypeSQLite, "file:election.db")
	conn, err := db.Open(ctx, db.TypePostgres, "postgres://...")

SQLite uses modernc.org/sqlite (no cgo) and a single connection. PostgreSQL
uses lib/pq. Both share one schema that only uses portable types.

# Tables

  - election: the single election row (administrator, name, phase, totals,
    last applied event sequence)
  - candidate: ballot entries with vote counts
  - voter: registered principals and their vote
  - election_event: every committed event, keyed by sequence

# Stores

SQLStore and MemoryStore both satisfy the ledger's Store interface:

	store := db.NewSQLStore(conn)
	store := db.NewMemoryStore()

Apply writes one event per transaction. The election row's last_seq column
only advances from seq-1 to seq, so a replayed or skipped event fails with
sentinel.ErrConflict and the transaction rolls back.
*/
package db
