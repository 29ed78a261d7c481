package out

import (
	"context"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
)

type PostRepository interface {
	Create(ctx context.Context, post *domain.CommunityPost) error
	Get(ctx context.Context, id string) (*domain.CommunityPost, error)
	// AddReaction records one reaction per user and bumps the matching
	// counter; false means the user had already reacted.
	AddReaction(ctx context.Context, postID string, userID uuid.UUID, reaction domain.PostReaction) (bool, error)
	// AddComment stores the comment and bumps the post's comment count.
	AddComment(ctx context.Context, comment *domain.Comment) error
	SoftDelete(ctx context.Context, postID string, authorID uuid.UUID) (bool, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]*domain.CommunityPost, error)
	FindBySkills(ctx context.Context, skills []string, excludeAuthor uuid.UUID, limit int) ([]*domain.CommunityPost, error)
}

// MilestoneRepository stores mentorship sessions and hosted events. Record
// returns false when (kind, user, reference) already exists.
type MilestoneRepository interface {
	Record(ctx context.Context, m *domain.Milestone) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, kind domain.MilestoneKind, limit int) ([]*domain.Milestone, error)
}

type DismissalRepository interface {
	Dismiss(ctx context.Context, d *domain.Dismissal) error
	ActiveCandidateIDs(ctx context.Context, viewerID uuid.UUID, now time.Time) ([]uuid.UUID, error)
}

type ActivityRepository interface {
	// Record is an upsert keyed on event.ID.
	Record(ctx context.Context, event *domain.ActivityEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ActivityEvent, error)
}

// InteractionRepository keeps counters per unordered user pair.
type InteractionRepository interface {
	Increment(ctx context.Context, a, b uuid.UUID, kind domain.InteractionKind, at time.Time) error
	Get(ctx context.Context, a, b uuid.UUID) (*domain.InteractionStats, error)
}
