package notification

import (
	"context"
	"fmt"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

// Service builds reputation notifications and enqueues them on the
// delivery stream.
type Service struct {
	publisher out.NotificationPublisher
	now       func() time.Time
}

func NewService(publisher out.NotificationPublisher) *Service {
	return &Service{
		publisher: publisher,
		now:       time.Now,
	}
}

// BadgesEarned enqueues one notification per newly awarded badge.
func (s *Service) BadgesEarned(ctx context.Context, userID uuid.UUID, badges []*domain.Badge) error {
	for _, b := range badges {
		n := &domain.Notification{
			Type:        domain.NotificationBadgeEarned,
			RecipientID: userID,
			Title:       fmt.Sprintf("You earned the %s badge", b.Name),
			Body:        b.Description,
			Data: map[string]any{
				"badge_id": b.ID,
				"category": b.Category,
				"is_rare":  b.IsRare,
			},
			CreatedAt: s.now(),
		}
		if err := s.send(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) LevelUp(ctx context.Context, userID uuid.UUID, from, to int) error {
	if to <= from {
		return nil
	}
	return s.send(ctx, &domain.Notification{
		Type:        domain.NotificationLevelUp,
		RecipientID: userID,
		Title:       fmt.Sprintf("You reached level %d", to),
		Data: map[string]any{
			"previous_level": from,
			"level":          to,
		},
		CreatedAt: s.now(),
	})
}

func (s *Service) send(ctx context.Context, n *domain.Notification) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("notification enqueue failed: %s", n.Type)
		return err
	}
	return nil
}
