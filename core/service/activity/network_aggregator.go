// Package activity builds the cross-module feed and the activity read model.
package activity

import (
	"context"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/core/service/reputation"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ConnectionRecommender is the connection section's source.
type ConnectionRecommender interface {
	Recommend(ctx context.Context, viewerID uuid.UUID, limit int) ([]domain.ConnectionRecommendation, error)
}

type Config struct {
	JobLimit        int
	ConnectionLimit int
	CommunityLimit  int
	Timeout         time.Duration
}

// Aggregator fans out to the three recommenders in parallel and concatenates
// their sections. A failing section is logged and left empty.
type Aggregator struct {
	profiles    out.ProfileRepository
	jobs        *JobMatcher
	connections ConnectionRecommender
	community   *CommunityRecommender
	activities  out.ActivityRepository
	cfg         Config
	now         func() time.Time
}

func NewAggregator(
	profiles out.ProfileRepository,
	jobs *JobMatcher,
	connections ConnectionRecommender,
	community *CommunityRecommender,
	activities out.ActivityRepository,
	cfg Config,
) *Aggregator {
	if cfg.JobLimit <= 0 {
		cfg.JobLimit = 5
	}
	if cfg.ConnectionLimit <= 0 {
		cfg.ConnectionLimit = 5
	}
	if cfg.CommunityLimit <= 0 {
		cfg.CommunityLimit = 5
	}
	return &Aggregator{
		profiles:    profiles,
		jobs:        jobs,
		connections: connections,
		community:   community,
		activities:  activities,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, userID uuid.UUID) (*domain.Feed, error) {
	user, err := a.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("get profile", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	feed := &domain.Feed{
		UserID:      userID,
		Jobs:        []domain.FeedItem{},
		Connections: []domain.FeedItem{},
		Community:   []domain.FeedItem{},
		GeneratedAt: a.now(),
	}
	log := logger.WithContext(ctx).WithField("user_id", userID.String())

	var g errgroup.Group

	g.Go(func() error {
		items, err := a.jobs.Match(ctx, user, a.cfg.JobLimit)
		if err != nil {
			log.WithError(err).Warn("feed: job section unavailable")
			return nil
		}
		feed.Jobs = items
		return nil
	})

	g.Go(func() error {
		recs, err := a.connections.Recommend(ctx, userID, a.cfg.ConnectionLimit)
		if err != nil {
			log.WithError(err).Warn("feed: connection section unavailable")
			return nil
		}
		feed.Connections = connectionItems(recs)
		return nil
	})

	g.Go(func() error {
		items, err := a.community.Recommend(ctx, user, a.cfg.CommunityLimit)
		if err != nil {
			log.WithError(err).Warn("feed: community section unavailable")
			return nil
		}
		feed.Community = items
		return nil
	})

	_ = g.Wait()
	return feed, nil
}

// Activity lists the user's recent cross-module actions, newest first.
func (a *Aggregator) Activity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ActivityEvent, error) {
	events, err := a.activities.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.DatabaseError("list activity", err)
	}
	return events, nil
}

// Record stores the activity trail entry for a domain event. Entries are
// keyed on the event id so redelivery overwrites instead of duplicating.
func (a *Aggregator) Record(ctx context.Context, ev *domain.DomainEvent) error {
	entry := ActivityFor(ev)
	if entry == nil {
		return nil
	}
	if err := a.activities.Record(ctx, entry); err != nil {
		return apperr.DatabaseError("record activity", err)
	}
	return nil
}

// ActivityFor maps a domain event onto the actor's activity entry.
func ActivityFor(ev *domain.DomainEvent) *domain.ActivityEvent {
	module := domain.ModuleCommunity
	impact := 1

	switch ev.Type {
	case domain.EventConnectionAccepted:
		module = domain.ModuleConnections
		impact = 4
	case domain.EventMentorshipCompleted, domain.EventHosted:
		impact = 8
	default:
		action, ok := reputation.ActionFor(ev.Type)
		if !ok {
			return nil
		}
		if action.Points > 0 {
			impact = action.Points
		}
	}

	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return &domain.ActivityEvent{
		ID:          ev.ID,
		UserID:      ev.ActorID,
		Module:      module,
		Action:      ev.Type,
		TargetID:    ev.SourceID,
		ImpactScore: impact,
		Timestamp:   at,
	}
}
