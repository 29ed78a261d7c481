package out

import (
	"context"

	"network_server/core/domain"

	"github.com/google/uuid"
)

// ProfileRepository reads user profiles from the relational store.
// Lookups return (nil, nil) when the user does not exist.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	// FindSimilar returns active users sharing a company, a location or at
	// least one skill with user, skipping the exclude ids.
	FindSimilar(ctx context.Context, user *domain.User, exclude []uuid.UUID, limit int) ([]*domain.User, error)
}

// JobRepository serves open job postings to the feed.
type JobRepository interface {
	FindOpenBySkills(ctx context.Context, skills []string, limit int) ([]*domain.Job, error)
}
