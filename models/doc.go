// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request and response types for the election API.

# Request Types

Types for parsing incoming JSON:

  - AddCandidateRequest: name
  - RegisterVoterRequest: principal
  - CastVoteRequest: candidate_id

# Response Types

Types for JSON responses:

  - AddCandidateResponse: candidate_id
  - RegisterVoterResponse: principal
  - CastVoteResponse: candidate_id, message
  - StatusResponse: name, administrator, phase, candidate_count, total_votes
  - ResultsResponse: winner_id, winner_name, winner_votes, total_votes, phase, final
  - CandidatesResponse: candidates
  - VoterResponse: principal, registered, voted
  - EventsResponse: events, next
  - ErrorResponse: error, code, message

Candidates and events reuse the election package types, which carry their own
JSON tags. Phases serialize as "setup", "open" or "closed".

# Error Codes

ErrorResponse.Code is the stable machine-readable failure kind, such as
"already_voted" or "invalid_phase". Error holds the HTTP status text and
Message a human-readable explanation.
*/
package models
