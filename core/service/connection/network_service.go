package connection

import (
	"context"
	"errors"
	"strings"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

const maxMessageLength = 500

// RecommendationInvalidator drops cached recommendation lists.
type RecommendationInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

// IDGenerator issues event ids.
type IDGenerator interface {
	Generate() (int64, error)
}

type Service struct {
	graph         out.ConnectionGraph
	profiles      out.ProfileRepository
	interactions  out.InteractionRepository
	events        out.EventPublisher
	notifications out.NotificationPublisher
	recs          RecommendationInvalidator
	ids           IDGenerator
	now           func() time.Time
}

func NewService(
	graph out.ConnectionGraph,
	profiles out.ProfileRepository,
	interactions out.InteractionRepository,
	events out.EventPublisher,
	notifications out.NotificationPublisher,
	recs RecommendationInvalidator,
	ids IDGenerator,
) *Service {
	return &Service{
		graph:         graph,
		profiles:      profiles,
		interactions:  interactions,
		events:        events,
		notifications: notifications,
		recs:          recs,
		ids:           ids,
		now:           time.Now,
	}
}

// =============================================================================
// Connection lifecycle
// =============================================================================

// Request opens a pending connection from requesterID to recipientID. A
// previous rejected or cancelled edge for the pair is replaced.
func (s *Service) Request(ctx context.Context, requesterID, recipientID uuid.UUID, message string) (*domain.Connection, error) {
	if requesterID == recipientID {
		return nil, apperr.SelfAction("connect with")
	}
	message = strings.TrimSpace(message)
	if len(message) > maxMessageLength {
		return nil, apperr.InvalidInput("message", "must be at most 500 characters")
	}

	recipient, err := s.profiles.GetByID(ctx, recipientID)
	if err != nil {
		return nil, apperr.DatabaseError("get profile", err)
	}
	if recipient == nil || !recipient.Active {
		return nil, apperr.NotFound("user")
	}

	existing, err := s.graph.FindBetween(ctx, requesterID, recipientID)
	if err != nil {
		return nil, apperr.DatabaseError("find connection", err)
	}
	if existing != nil {
		if existing.IsActive() {
			return nil, duplicateFor(existing)
		}
		if _, err := s.graph.DeleteConnection(ctx, existing.ID); err != nil {
			return nil, apperr.DatabaseError("delete connection", err)
		}
	}

	now := s.now()
	conn := &domain.Connection{
		ID:          uuid.New(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      domain.ConnectionPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.graph.CreateConnection(ctx, conn); err != nil {
		if errors.Is(err, out.ErrActiveEdge) {
			return nil, apperr.Duplicate("connection already exists")
		}
		return nil, apperr.DatabaseError("create connection", err)
	}

	s.recs.Invalidate(ctx, requesterID, recipientID)
	s.notify(ctx, &domain.Notification{
		Type:        domain.NotificationConnectionRequest,
		RecipientID: recipientID,
		Title:       "New connection request",
		Body:        message,
		Data:        map[string]any{"connection_id": conn.ID.String(), "requester_id": requesterID.String()},
		CreatedAt:   now,
	})

	return conn, nil
}

func duplicateFor(c *domain.Connection) *apperr.AppError {
	if c.Status == domain.ConnectionPending {
		return apperr.Duplicate("connection request already pending")
	}
	return apperr.Duplicate("already connected")
}

// Accept is allowed for the recipient of a pending request.
func (s *Service) Accept(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error) {
	conn, err := s.transition(ctx, actorID, connectionID, domain.ConnectionAccepted)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		Type:        domain.NotificationConnectionAccepted,
		RecipientID: conn.RequesterID,
		Title:       "Connection accepted",
		Data:        map[string]any{"connection_id": conn.ID.String(), "user_id": conn.RecipientID.String()},
		CreatedAt:   conn.UpdatedAt,
	})
	s.publish(ctx, domain.EventConnectionAccepted, conn.RecipientID, conn.RequesterID, conn.ID.String())

	return conn, nil
}

// Reject is allowed for the recipient of a pending request. The requester
// is told.
func (s *Service) Reject(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error) {
	conn, err := s.transition(ctx, actorID, connectionID, domain.ConnectionRejected)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		Type:        domain.NotificationConnectionRejected,
		RecipientID: conn.RequesterID,
		Title:       "Connection request declined",
		Data:        map[string]any{"connection_id": conn.ID.String(), "user_id": conn.RecipientID.String()},
		CreatedAt:   conn.UpdatedAt,
	})
	return conn, nil
}

// Cancel is allowed for the requester of a pending request. The recipient's
// pending request disappears, so they are told.
func (s *Service) Cancel(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error) {
	conn, err := s.transition(ctx, actorID, connectionID, domain.ConnectionCancelled)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		Type:        domain.NotificationConnectionCancelled,
		RecipientID: conn.RecipientID,
		Title:       "Connection request withdrawn",
		Data:        map[string]any{"connection_id": conn.ID.String(), "user_id": conn.RequesterID.String()},
		CreatedAt:   conn.UpdatedAt,
	})
	return conn, nil
}

func (s *Service) transition(ctx context.Context, actorID, connectionID uuid.UUID, to domain.ConnectionStatus) (*domain.Connection, error) {
	conn, err := s.load(ctx, actorID, connectionID)
	if err != nil {
		return nil, err
	}

	switch to {
	case domain.ConnectionAccepted, domain.ConnectionRejected:
		if conn.RecipientID != actorID {
			return nil, apperr.Forbidden("only the recipient can respond to a connection request")
		}
	case domain.ConnectionCancelled:
		if conn.RequesterID != actorID {
			return nil, apperr.Forbidden("only the requester can cancel a connection request")
		}
	}

	if conn.Status != domain.ConnectionPending {
		return nil, apperr.BadRequest("connection request is no longer pending")
	}

	ok, err := s.graph.UpdateStatus(ctx, conn.ID, domain.ConnectionPending, to)
	if err != nil {
		return nil, apperr.DatabaseError("update connection status", err)
	}
	if !ok {
		return nil, apperr.BadRequest("connection request is no longer pending")
	}

	conn.Status = to
	conn.UpdatedAt = s.now()
	s.recs.Invalidate(ctx, conn.RequesterID, conn.RecipientID)

	logger.WithContext(ctx).WithFields(map[string]any{
		"connection_id": conn.ID.String(),
		"status":        string(to),
	}).Info("connection status changed")

	return conn, nil
}

// Remove deletes an edge; either party may do it.
func (s *Service) Remove(ctx context.Context, actorID, connectionID uuid.UUID) error {
	conn, err := s.load(ctx, actorID, connectionID)
	if err != nil {
		return err
	}

	deleted, err := s.graph.DeleteConnection(ctx, conn.ID)
	if err != nil {
		return apperr.DatabaseError("delete connection", err)
	}
	if !deleted {
		return apperr.NotFound("connection")
	}

	s.recs.Invalidate(ctx, conn.RequesterID, conn.RecipientID)
	s.notify(ctx, &domain.Notification{
		Type:        domain.NotificationConnectionRemoved,
		RecipientID: conn.Other(actorID),
		Title:       "Connection removed",
		Data:        map[string]any{"connection_id": conn.ID.String(), "user_id": actorID.String()},
		CreatedAt:   s.now(),
	})
	return nil
}

func (s *Service) load(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error) {
	conn, err := s.graph.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, apperr.DatabaseError("get connection", err)
	}
	if conn == nil {
		return nil, apperr.NotFound("connection")
	}
	if !conn.Involves(actorID) {
		return nil, apperr.Forbidden("not a party to this connection")
	}
	return conn, nil
}

// List returns userID's connections in status (accepted when empty).
func (s *Service) List(ctx context.Context, userID uuid.UUID, status domain.ConnectionStatus) ([]*domain.Connection, error) {
	if status == "" {
		status = domain.ConnectionAccepted
	}
	if !status.Valid() {
		return nil, apperr.InvalidInput("status", "must be one of pending, accepted, rejected, cancelled")
	}
	conns, err := s.graph.ListConnections(ctx, userID, status)
	if err != nil {
		return nil, apperr.DatabaseError("list connections", err)
	}
	return conns, nil
}

// =============================================================================
// Follows
// =============================================================================

func (s *Service) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return apperr.SelfAction("follow")
	}
	target, err := s.profiles.GetByID(ctx, followingID)
	if err != nil {
		return apperr.DatabaseError("get profile", err)
	}
	if target == nil || !target.Active {
		return apperr.NotFound("user")
	}

	created, err := s.graph.Follow(ctx, followerID, followingID)
	if err != nil {
		return apperr.DatabaseError("follow", err)
	}
	if !created {
		return apperr.Duplicate("already following")
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	removed, err := s.graph.Unfollow(ctx, followerID, followingID)
	if err != nil {
		return apperr.DatabaseError("unfollow", err)
	}
	if !removed {
		return apperr.NotFound("follow")
	}
	return nil
}

// =============================================================================
// Strength & interactions
// =============================================================================

// Strength scores the accepted connection between viewerID and otherID.
func (s *Service) Strength(ctx context.Context, viewerID, otherID uuid.UUID, style domain.StrengthStyle) (*domain.ConnectionStrength, error) {
	if viewerID == otherID {
		return nil, apperr.SelfAction("measure a connection with")
	}

	conn, err := s.graph.FindBetween(ctx, viewerID, otherID)
	if err != nil {
		return nil, apperr.DatabaseError("find connection", err)
	}
	if conn == nil || conn.Status != domain.ConnectionAccepted {
		return nil, apperr.NotFound("connection")
	}

	stats, err := s.interactions.Get(ctx, viewerID, otherID)
	if err != nil {
		return nil, apperr.DatabaseError("get interaction stats", err)
	}
	if stats == nil {
		stats = &domain.InteractionStats{}
	}

	mutual, err := s.graph.MutualConnectionCount(ctx, viewerID, otherID)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("mutual count unavailable, using stored value")
	} else {
		stats.MutualConnections = mutual
	}

	value, factors := CalculateStrength(*stats, s.now())
	return &domain.ConnectionStrength{
		UserID:      viewerID,
		OtherUserID: otherID,
		Value:       value,
		Label:       domain.StrengthLabel(value, style),
		Factors:     factors,
	}, nil
}

// RecordInteraction bumps one interaction counter for the pair.
func (s *Service) RecordInteraction(ctx context.Context, actorID, otherID uuid.UUID, kind domain.InteractionKind) error {
	if !kind.Valid() {
		return apperr.InvalidInput("kind", "unknown interaction kind")
	}
	if actorID == otherID {
		return apperr.SelfAction("interact with")
	}
	other, err := s.profiles.GetByID(ctx, otherID)
	if err != nil {
		return apperr.DatabaseError("get profile", err)
	}
	if other == nil {
		return apperr.NotFound("user")
	}
	if err := s.interactions.Increment(ctx, actorID, otherID, kind, s.now()); err != nil {
		return apperr.DatabaseError("record interaction", err)
	}
	return nil
}

// =============================================================================
// Side effects
// =============================================================================

// Side effects run after the primary write; failures are logged, not returned.
func (s *Service) notify(ctx context.Context, n *domain.Notification) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.PublishNotification(ctx, n); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("notification enqueue failed: %s", n.Type)
	}
}

func (s *Service) publish(ctx context.Context, typ domain.EventType, actor, target uuid.UUID, sourceID string) {
	if s.events == nil {
		return
	}
	id, err := s.ids.Generate()
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("event id generation failed")
		return
	}
	ev := &domain.DomainEvent{
		ID:           id,
		Type:         typ,
		ActorID:      actor,
		TargetUserID: target,
		SourceID:     sourceID,
		OccurredAt:   s.now(),
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("domain event publish failed: %s", typ)
	}
}
