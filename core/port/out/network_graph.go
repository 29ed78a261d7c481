package out

import (
	"context"
	"errors"

	"network_server/core/domain"

	"github.com/google/uuid"
)

// ErrActiveEdge is returned by CreateConnection when the pair already has a
// pending or accepted connection.
var ErrActiveEdge = errors.New("active connection already exists")

// GraphCandidate is a friend-of-friend suggestion from the graph.
type GraphCandidate struct {
	UserID            uuid.UUID
	MutualConnections int
}

// ConnectionGraph stores connection and follow edges.
type ConnectionGraph interface {
	GetConnection(ctx context.Context, id uuid.UUID) (*domain.Connection, error)
	FindBetween(ctx context.Context, a, b uuid.UUID) (*domain.Connection, error)
	CreateConnection(ctx context.Context, conn *domain.Connection) error
	// UpdateStatus moves the edge from one status to another and reports
	// whether the edge was still in the from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ConnectionStatus) (bool, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) (bool, error)
	ListConnections(ctx context.Context, userID uuid.UUID, status domain.ConnectionStatus) ([]*domain.Connection, error)

	// ConnectedOrPendingIDs lists every user with an active edge to userID.
	ConnectedOrPendingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	MutualConnectionCount(ctx context.Context, a, b uuid.UUID) (int, error)
	MutualCounts(ctx context.Context, userID uuid.UUID, others []uuid.UUID) (map[uuid.UUID]int, error)
	SuggestCandidates(ctx context.Context, userID uuid.UUID, limit int) ([]GraphCandidate, error)

	Follow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	FollowCounts(ctx context.Context, userID uuid.UUID) (followers int, following int, err error)
}
