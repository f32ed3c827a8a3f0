// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks

import (
	"context"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// Store persists an election as an initial snapshot followed by its events.
type Store interface {
	// Load returns the persisted state, or sentinel.ErrNotFound when the store
	// is empty.
	Load(ctx context.Context) (election.Snapshot, error)
	// Create persists the initial state of a new election.
	Create(ctx context.Context, snap election.Snapshot) error
	// Apply persists one committed event atomically. Events must arrive in Seq
	// order; anything else fails with sentinel.ErrConflict.
	Apply(ctx context.Context, ev election.Event) error
	// Events lists persisted events with Seq greater than after, oldest first.
	Events(ctx context.Context, after uint64, limit int) ([]election.Event, error)
}

// Publisher receives events once they are durable.
type Publisher interface {
	Publish(ctx context.Context, ev election.Event) error
}
