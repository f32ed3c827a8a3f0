// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// DialRedis connects to the Redis server at url and checks it responds.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisPublisher PUBLISHes JSON messages to a Redis channel.
type RedisPublisher struct {
	client   *redis.Client
	channel  string
	election string
}

// NewRedisPublisher publishes to channel on client.
func NewRedisPublisher(client *redis.Client, channel, electionName string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, election: electionName}
}

// Publish sends ev as one PUBLISH on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev election.Event) error {
	payload, err := encode(p.election, ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	return nil
}
