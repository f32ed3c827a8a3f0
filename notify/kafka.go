// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// KafkaPublisher produces JSON messages to a Kafka topic. Records are keyed by
// election name so one election's events share a partition and stay in Seq
// order; the event kind travels in the "kind" header.
type KafkaPublisher struct {
	client   *kgo.Client
	topic    string
	election string
}

// NewKafkaPublisher creates a producer for topic. Extra kgo options are
// appended after the defaults.
func NewKafkaPublisher(brokers []string, topic, electionName string, opts ...kgo.Opt) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	client, err := kgo.NewClient(append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, election: electionName}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	resp, err := kadm.NewClient(p.client).CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Publish produces ev and waits for the broker to acknowledge it.
func (p *KafkaPublisher) Publish(ctx context.Context, ev election.Event) error {
	rec, err := p.record(ev)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) record(ev election.Event) (*kgo.Record, error) {
	payload, err := encode(p.election, ev)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(p.election),
		Value:   payload,
		Headers: []kgo.RecordHeader{{Key: "kind", Value: []byte(ev.Kind)}},
	}, nil
}

// Close releases the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
