package notification

import (
	"context"
	"errors"
	"testing"

	"network_server/core/domain"

	"github.com/google/uuid"
)

type capture struct {
	sent []*domain.Notification
	err  error
}

func (c *capture) PublishNotification(_ context.Context, n *domain.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func TestBadgesEarned(t *testing.T) {
	pub := &capture{}
	svc := NewService(pub)
	user := uuid.New()

	badges := []*domain.Badge{
		{ID: "first-post", Name: "First Post"},
		{ID: "rising-star", Name: "Rising Star", IsRare: true},
	}
	if err := svc.BadgesEarned(context.Background(), user, badges); err != nil {
		t.Fatalf("BadgesEarned: %v", err)
	}
	if len(pub.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(pub.sent))
	}
	for i, n := range pub.sent {
		if n.Type != domain.NotificationBadgeEarned || n.RecipientID != user {
			t.Errorf("notification %d = %+v", i, n)
		}
		if n.Data["badge_id"] != badges[i].ID {
			t.Errorf("badge_id = %v, want %s", n.Data["badge_id"], badges[i].ID)
		}
	}
}

func TestLevelUp(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     int
	}{
		{"raised", 1, 2, 1},
		{"unchanged", 3, 3, 0},
		{"lower", 4, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &capture{}
			if err := NewService(pub).LevelUp(context.Background(), uuid.New(), tt.from, tt.to); err != nil {
				t.Fatalf("LevelUp: %v", err)
			}
			if len(pub.sent) != tt.want {
				t.Errorf("sent = %d, want %d", len(pub.sent), tt.want)
			}
		})
	}
}

func TestPublishErrorReturned(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewService(&capture{err: boom})
	err := svc.LevelUp(context.Background(), uuid.New(), 1, 2)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
