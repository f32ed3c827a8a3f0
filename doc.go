// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the ballot command: a single-election voting service.

An administrator adds candidates and registers voters, opens voting, and
closes it. Each registered voter casts exactly one vote. Results report the
candidate with the most votes, the earliest-added candidate winning ties.

# Commands

	ballot serve              Run the HTTP API
	ballot token <principal>  Print a bearer token for principal
	ballot status             Summarise the stored election

# Starting the Server

	JWT_SECRET=... ELECTION_ADMIN=0xadmin ballot serve

Or with flags:

	ballot serve -p 3318 -t postgres -d "postgres://..." --admin 0xadmin

The election is created from --election-name and --admin the first time the
store is empty. After that the stored election wins.

# Configuration

Every flag falls back to an environment variable, and a .env file (see
--env-file) is loaded first without overriding the environment:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: file:election.db)
  - ELECTION_NAME, ELECTION_ADMIN: Bootstrap of a new election
  - JWT_SECRET, TOKEN_TTL: Bearer token signing
  - REDIS_URL, REDIS_CHANNEL: Redis event notifications
  - KAFKA_BROKERS, KAFKA_TOPIC: Kafka event notifications
  - NOTIFY_BUFFER: Queued notifications before dropping
  - LOG_LEVEL, LOG_FORMAT: slog level and text or json output

# Architecture

  - election: The state machine, in memory
  - ledger: Persists each change before publishing it
  - db: SQL and in-memory stores
  - notify: Event notifications (log, Redis, Kafka)
  - handlers, router, middleware: HTTP API
  - auth: Bearer tokens
  - metrics, logger, cliparse: Ambient services

See package documentation for each component.
*/
package main
