// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ballot API.

# Route Registration

NewRouter returns a chi router with every endpoint mounted:

	r := router.NewRouter(l, tokens, m, logger)

All routes pass through Recovery, RequestID, WithLogging and CORS, plus
Latency when metrics are enabled.

# Endpoints

Service:

	GET /health  - Liveness
	GET /metrics - Prometheus metrics
	GET /        - Banner

Election reads (public):

	GET /election                    - Status
	GET /election/results            - Winner and totals
	GET /election/candidates         - Candidate list with counts
	GET /election/candidates/{id}    - One candidate
	GET /election/voters/{principal} - Registration and voted flags
	GET /election/events             - Event history, paged by after and limit

Election writes (require Authorization: Bearer <token>):

	POST /election/candidates - Add candidate
	POST /election/voters     - Register voter
	POST /election/start      - Open voting
	POST /election/votes      - Cast vote
	POST /election/end        - Close voting
*/
package router
