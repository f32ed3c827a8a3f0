// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

func TestKafkaRecordKeyedByElection(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"127.0.0.1:9092"}, "ballot-events", "Board Election")
	require.NoError(t, err)
	defer p.Close()

	kinds := []election.EventKind{election.EventCandidateAdded, election.EventVoteCast, election.EventVotingEnded}
	for i, kind := range kinds {
		rec, err := p.record(election.Event{Seq: uint64(i + 1), Kind: kind, Caller: "0xadmin"})
		require.NoError(t, err)

		assert.Equal(t, "ballot-events", rec.Topic)
		assert.Equal(t, "Board Election", string(rec.Key), "every kind shares one key")
		require.Len(t, rec.Headers, 1)
		assert.Equal(t, "kind", rec.Headers[0].Key)
		assert.Equal(t, string(kind), string(rec.Headers[0].Value))
	}
}
