// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the election API.

ElectionHandler wraps a Ledger and is created with NewElectionHandler:

	h := handlers.NewElectionHandler(l, logger)

# Reads

Reads need no authentication:

	GET /election                     → GetStatus
	GET /election/results             → GetResults (running tally until closed)
	GET /election/candidates          → ListCandidates
	GET /election/candidates/{id}     → GetCandidate
	GET /election/voters/{principal}  → GetVoter
	GET /election/events?after=&limit= → ListEvents

# Writes

Writes act as the caller stored by middleware.RequireCaller:

	POST /election/candidates → AddCandidate (administrator, setup)
	POST /election/voters     → RegisterVoter (administrator, setup)
	POST /election/start      → StartVoting (administrator)
	POST /election/votes      → CastVote (registered voter, open)
	POST /election/end        → EndVoting (administrator)

# Errors

Failures answer with models.ErrorResponse. StatusFor maps each election
failure kind to a status and uses the kind as the response code; anything
else is a 500 with code "internal".
*/
package handlers
