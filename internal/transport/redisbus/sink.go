package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"delivery-orchestrator/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Sink publishes every notification on its recipient's channel key
// (client:<id>, driver:<id>, restaurant:<id> or broadcast).
type Sink struct {
	client publisher
	prefix string
}

// NewSink creates a Sink. prefix is prepended to channel keys; it may be empty.
func NewSink(client publisher, prefix string) *Sink {
	return &Sink{client: client, prefix: prefix}
}

// Name implements notify.Sink.
func (s *Sink) Name() string { return "redis" }

// Deliver implements notify.Sink.
func (s *Sink) Deliver(ctx context.Context, channel string, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.client.Publish(ctx, s.prefix+channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", s.prefix+channel, err)
	}
	return nil
}
