// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/notify"
	"github.com/dikshapatel15/Decentralized-Voting-System/testutil/containers"
)

func TestRedisPublisher(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sub := rc.Client.Subscribe(ctx, "ballot-events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	client, err := notify.DialRedis(ctx, rc.URL)
	require.NoError(t, err)
	defer client.Close()

	p := notify.NewRedisPublisher(client, "ballot-events", "Board Election")
	require.NoError(t, p.Publish(ctx, voteCast))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got notify.Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, notify.NewMessage("Board Election", voteCast), got)
}

func TestKafkaPublisher(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p, err := notify.NewKafkaPublisher([]string{kc.Broker}, "ballot-events", "Board Election")
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "existing topic is fine")
	require.NoError(t, p.Publish(ctx, voteCast))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Broker),
		kgo.ConsumeTopics("ballot-events"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Board Election", string(records[0].Key))

	var got notify.Message
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, voteCast.Seq, got.Seq)
	assert.Equal(t, "Board Election", got.Election)
}

func TestKafkaPublisherKeepsOrderAcrossPartitions(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p, err := notify.NewKafkaPublisher([]string{kc.Broker}, "ballot-partitioned", "Board Election")
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureTopic(ctx, 4, 1))

	kinds := []election.EventKind{
		election.EventCandidateAdded, election.EventVoterRegistered,
		election.EventVotingStarted, election.EventVoteCast, election.EventVotingEnded,
	}
	for i, kind := range kinds {
		require.NoError(t, p.Publish(ctx, election.Event{Seq: uint64(i + 1), Kind: kind, Caller: "0xadmin"}))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Broker),
		kgo.ConsumeTopics("ballot-partitioned"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) < len(kinds) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		records = append(records, fetches.Records()...)
	}

	for i, rec := range records {
		assert.Equal(t, records[0].Partition, rec.Partition, "record %d changed partition", i)
		var got notify.Message
		require.NoError(t, json.Unmarshal(rec.Value, &got))
		assert.Equal(t, uint64(i+1), got.Seq)
	}
}
