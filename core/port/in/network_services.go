package in

import (
	"context"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
)

type ConnectionService interface {
	Request(ctx context.Context, requesterID, recipientID uuid.UUID, message string) (*domain.Connection, error)
	Accept(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error)
	Reject(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error)
	Cancel(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error)
	Remove(ctx context.Context, actorID, connectionID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, status domain.ConnectionStatus) ([]*domain.Connection, error)

	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error

	Strength(ctx context.Context, viewerID, otherID uuid.UUID, style domain.StrengthStyle) (*domain.ConnectionStrength, error)
	RecordInteraction(ctx context.Context, actorID, otherID uuid.UUID, kind domain.InteractionKind) error
}

type RecommendationService interface {
	Recommend(ctx context.Context, viewerID uuid.UUID, limit int) ([]domain.ConnectionRecommendation, error)
	Dismiss(ctx context.Context, viewerID, candidateID uuid.UUID) (*domain.Dismissal, error)
}

// ReputationService is the read side of reputation. Member actions reach
// the engine only through domain events.
type ReputationService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Reputation, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReputationEntry, error)
	Leaderboard(ctx context.Context, limit int) ([]*domain.Reputation, error)
}

// AdjustReputationRequest is a moderator correction. Points and a counter
// bump may be sent together; at least one is required.
type AdjustReputationRequest struct {
	Points    int                        `json:"points"`
	Reason    string                     `json:"reason"`
	Counter   domain.ContributionCounter `json:"counter"`
	Increment int                        `json:"increment"`
}

// ReputationAdminService applies corrections outside the event flow.
type ReputationAdminService interface {
	Adjust(ctx context.Context, adminID, userID uuid.UUID, req AdjustReputationRequest) (*domain.Reputation, error)
}

type BadgeService interface {
	Catalog(ctx context.Context) ([]*domain.Badge, error)
	Evaluate(ctx context.Context, userID uuid.UUID) ([]*domain.Badge, error)
}

type CreatePostRequest struct {
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	Category      domain.PostCategory `json:"category"`
	Tags          []string            `json:"tags"`
	Industry      string              `json:"industry"`
	SkillLevel    string              `json:"skill_level"`
	RelatedSkills []string            `json:"related_skills"`
}

type HostEventRequest struct {
	Title     string    `json:"title"`
	Reference string    `json:"reference"`
	HeldAt    time.Time `json:"held_at"`
}

type CommunityService interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, req CreatePostRequest) (*domain.CommunityPost, error)
	Comment(ctx context.Context, authorID uuid.UUID, postID, content string) (*domain.Comment, error)
	Like(ctx context.Context, userID uuid.UUID, postID string) error
	MarkHelpful(ctx context.Context, userID uuid.UUID, postID string) error
	Endorse(ctx context.Context, userID uuid.UUID, postID string) error
	DeletePost(ctx context.Context, actorID uuid.UUID, postID string) error
	Trending(ctx context.Context, limit int) ([]*domain.CommunityPost, error)

	ConfirmMentorship(ctx context.Context, menteeID, mentorID uuid.UUID, sessionID string) (*domain.Milestone, error)
	HostEvent(ctx context.Context, hostID uuid.UUID, req HostEventRequest) (*domain.Milestone, error)
	Milestones(ctx context.Context, userID uuid.UUID, kind domain.MilestoneKind, limit int) ([]*domain.Milestone, error)
}

type ActivityService interface {
	Aggregate(ctx context.Context, userID uuid.UUID) (*domain.Feed, error)
	Activity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ActivityEvent, error)
}
