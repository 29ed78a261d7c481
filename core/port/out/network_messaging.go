package out

import (
	"context"
	"time"

	"network_server/core/domain"
)

// Stream names
const (
	StreamDomainEvents  = "network:events"
	StreamNotifications = "notification:deliver"
)

// EventPublisher emits domain events after a primary write.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *domain.DomainEvent) error
}

// NotificationPublisher enqueues notifications for delivery elsewhere.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *domain.Notification) error
}

// Cache stores JSON values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
