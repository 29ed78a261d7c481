// Package badge decides which badges a reputation record has earned.
package badge

import (
	"context"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/core/service/reputation"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

type Evaluator struct {
	reps   out.ReputationRepository
	badges out.BadgeRepository
	now    func() time.Time
}

func NewEvaluator(reps out.ReputationRepository, badges out.BadgeRepository) *Evaluator {
	return &Evaluator{
		reps:   reps,
		badges: badges,
		now:    time.Now,
	}
}

// Eligible checks one requirement. All-time requirements read the running
// counters; windowed ones replay history entries newer than now-window.
func Eligible(rep *domain.Reputation, badge *domain.Badge, now time.Time) bool {
	req := badge.Requirement
	if req.Value <= 0 {
		return false
	}

	window := req.Timeframe.Window()
	if window == 0 {
		if req.Type == domain.RequirementPoints {
			return rep.TotalPoints >= req.Value
		}
		counter, ok := req.Type.Counter()
		if !ok {
			return false
		}
		return rep.Contributions.Get(counter) >= req.Value
	}

	since := now.Add(-window)
	if req.Type == domain.RequirementPoints {
		sum := 0
		for _, h := range rep.History {
			if !h.Timestamp.Before(since) {
				sum += h.Points
			}
		}
		return sum >= req.Value
	}

	action, ok := reputation.EventForRequirement(req.Type)
	if !ok {
		return false
	}
	count := 0
	for _, h := range rep.History {
		if h.Action == action && !h.Timestamp.Before(since) {
			count++
		}
	}
	return count >= req.Value
}

// Evaluate awards every eligible badge the user does not hold yet and
// returns the newly awarded ones. Running it twice awards nothing new.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID) ([]*domain.Badge, error) {
	rep, err := e.reps.Get(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("get reputation", err)
	}
	if rep == nil {
		return nil, nil
	}

	catalog, err := e.badges.List(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list badges", err)
	}

	now := e.now()
	var awarded []*domain.Badge
	for _, b := range catalog {
		if rep.HasBadge(b.ID) || !Eligible(rep, b, now) {
			continue
		}

		added, err := e.reps.AddBadge(ctx, userID, b.ID)
		if err != nil {
			return awarded, apperr.DatabaseError("award badge", err)
		}
		if !added {
			continue
		}
		if err := e.badges.IncrementAwarded(ctx, b.ID); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("awarded count not incremented for badge %s", b.ID)
		}

		logger.WithContext(ctx).WithFields(map[string]any{
			"user_id":  userID.String(),
			"badge_id": b.ID,
		}).Info("badge awarded")
		awarded = append(awarded, b)
	}

	return awarded, nil
}

func (e *Evaluator) Catalog(ctx context.Context) ([]*domain.Badge, error) {
	badges, err := e.badges.List(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list badges", err)
	}
	return badges, nil
}

// SeedCatalog writes the default badges, keeping existing award counts.
func (e *Evaluator) SeedCatalog(ctx context.Context) error {
	for _, b := range domain.DefaultBadges() {
		if err := e.badges.Upsert(ctx, &b); err != nil {
			return apperr.DatabaseError("seed badge "+b.ID, err)
		}
	}
	return nil
}
