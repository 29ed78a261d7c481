// Package messaging provides the Redis Streams adapters.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"network_server/core/domain"
	"network_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// Streams are trimmed to roughly this many entries.
const streamMaxLen = 100000

// RedisProducer implements out.EventPublisher and out.NotificationPublisher
// using Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

func (p *RedisProducer) PublishEvent(ctx context.Context, event *domain.DomainEvent) error {
	return p.publish(ctx, out.StreamDomainEvents, event)
}

func (p *RedisProducer) PublishNotification(ctx context.Context, n *domain.Notification) error {
	return p.publish(ctx, out.StreamNotifications, n)
}

// publish publishes a job to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

var (
	_ out.EventPublisher        = (*RedisProducer)(nil)
	_ out.NotificationPublisher = (*RedisProducer)(nil)
)
