// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the single-election ballot state machine.

# Lifecycle

An election moves through three phases, each transition firing once:

	setup → open → closed

Candidates and voters are added during setup by the administrator fixed at
construction. Votes are accepted while open, one per registered principal.

	e, err := election.New("admin", "Board Election")
	id, err := e.AddCandidate("admin", "Alice")
	err = e.RegisterVoter("admin", "p1")
	err = e.StartVoting("admin")
	err = e.CastVote("p1", id)
	err = e.EndVoting("admin")
	res, err := e.Results()

# Callers

Every mutating method takes the caller principal explicitly. The election
compares it against the administrator or the voter registry; authenticating
the caller is the host's job.

# Failures

Failed operations leave the state unchanged and return an error wrapping one
of ErrUnauthorized, ErrInvalidPhase, ErrInvalidArgument, ErrAlreadyRegistered,
ErrAlreadyVoted, ErrNotRegistered, ErrCandidateNotFound or ErrNoCandidates.
KindOf maps them to stable codes for transports.

# Results

Results scans candidates in ID order and keeps the first candidate holding the
highest count, so ties resolve to the earliest-added candidate.

# Events

Each successful mutation produces an Event with a strictly increasing Seq.
Observers registered with WithObserver receive it after the lock is released.
Snapshot and Restore convert to and from the persisted layout.
*/
package election
