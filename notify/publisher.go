// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// Publisher delivers committed election events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, ev election.Event) error
}

// Message is the JSON form of an event sent to external sinks.
type Message struct {
	ID            uuid.UUID          `json:"id"`
	Seq           uint64             `json:"seq"`
	Kind          election.EventKind `json:"kind"`
	Election      string             `json:"election"`
	Caller        election.Principal `json:"caller"`
	CandidateID   int                `json:"candidate_id,omitempty"`
	CandidateName string             `json:"candidate_name,omitempty"`
	Principal     election.Principal `json:"principal,omitempty"`
	Phase         election.Phase     `json:"phase"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewMessage wraps ev for electionName. The ID is derived from the election
// and sequence number, so every sink sees the same ID for the same event.
func NewMessage(electionName string, ev election.Event) Message {
	return Message{
		ID:            uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("ballot:%s:%d", electionName, ev.Seq))),
		Seq:           ev.Seq,
		Kind:          ev.Kind,
		Election:      electionName,
		Caller:        ev.Caller,
		CandidateID:   ev.CandidateID,
		CandidateName: ev.CandidateName,
		Principal:     ev.Principal,
		Phase:         ev.Phase,
		OccurredAt:    ev.At.UTC(),
	}
}

func encode(electionName string, ev election.Event) ([]byte, error) {
	payload, err := json.Marshal(NewMessage(electionName, ev))
	if err != nil {
		return nil, fmt.Errorf("encode event %d: %w", ev.Seq, err)
	}
	return payload, nil
}
