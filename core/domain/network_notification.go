package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationConnectionRequest   NotificationType = "connection_request"
	NotificationConnectionAccepted  NotificationType = "connection_accepted"
	NotificationConnectionRejected  NotificationType = "connection_rejected"
	NotificationConnectionCancelled NotificationType = "connection_cancelled"
	NotificationConnectionRemoved   NotificationType = "connection_removed"
	NotificationBadgeEarned         NotificationType = "badge_earned"
	NotificationLevelUp             NotificationType = "level_up"
)

// Notification is enqueued for a delivery service; this service never sends it.
type Notification struct {
	Type        NotificationType `json:"type"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Title       string           `json:"title"`
	Body        string           `json:"body,omitempty"`
	Data        map[string]any   `json:"data,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
