package out

import (
	"context"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
)

// ReputationRepository persists Reputation documents. Every mutation is a
// single atomic document update.
type ReputationRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Reputation, error)

	// ApplyEntry adds entry.Points, appends entry to the history and, when
	// counter is set, increments that contribution counter. The record is
	// created on first write. applied is false when entry.EventID was
	// already recorded.
	ApplyEntry(ctx context.Context, userID uuid.UUID, entry domain.ReputationEntry, counter domain.ContributionCounter) (rep *domain.Reputation, applied bool, err error)

	// RaiseLevel sets level only if it is higher than the stored one.
	RaiseLevel(ctx context.Context, userID uuid.UUID, level int) error
	IncrementContribution(ctx context.Context, userID uuid.UUID, counter domain.ContributionCounter, inc int, at time.Time) error

	// AddBadge reports whether the badge was newly added.
	AddBadge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error)

	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReputationEntry, error)
	Top(ctx context.Context, limit int) ([]*domain.Reputation, error)
}

type BadgeRepository interface {
	List(ctx context.Context) ([]*domain.Badge, error)
	Get(ctx context.Context, id string) (*domain.Badge, error)
	// Upsert writes catalog fields and leaves AwardedCount untouched.
	Upsert(ctx context.Context, badge *domain.Badge) error
	IncrementAwarded(ctx context.Context, id string) error
}
