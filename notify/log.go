// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"log/slog"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// LogPublisher writes every event to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher logs through logger, or slog.Default when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev election.Event) error {
	attrs := []any{
		"seq", ev.Seq,
		"kind", ev.Kind,
		"caller", ev.Caller,
		"phase", ev.Phase,
	}
	if ev.CandidateID != 0 {
		attrs = append(attrs, "candidate_id", ev.CandidateID, "candidate_name", ev.CandidateName)
	}
	if ev.Principal != "" {
		attrs = append(attrs, "principal", ev.Principal)
	}
	p.logger.InfoContext(ctx, "election notification", attrs...)
	return nil
}
