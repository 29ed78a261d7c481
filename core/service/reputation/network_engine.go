package reputation

import (
	"context"
	"strings"
	"time"

	"network_server/core/domain"
	in "network_server/core/port/in"
	"network_server/core/port/out"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

// IDGenerator issues history entry ids.
type IDGenerator interface {
	Generate() (int64, error)
}

// Outcome describes what applying one award changed.
type Outcome struct {
	UserID        uuid.UUID `json:"user_id"`
	Applied       bool      `json:"applied"`
	Points        int       `json:"points"`
	TotalPoints   int       `json:"total_points"`
	PreviousLevel int       `json:"previous_level"`
	Level         int       `json:"level"`
}

// LeveledUp reports whether this call raised the stored level. A
// redelivered event can raise it too when an earlier attempt saved the
// points but not the level.
func (o *Outcome) LeveledUp() bool {
	return o.Level > o.PreviousLevel
}

// Engine is the only writer of Reputation records.
type Engine struct {
	repo out.ReputationRepository
	ids  IDGenerator
	now  func() time.Time
}

func NewEngine(repo out.ReputationRepository, ids IDGenerator) *Engine {
	return &Engine{
		repo: repo,
		ids:  ids,
		now:  time.Now,
	}
}

// AddReputation awards points outside the event flow. The record is created
// on first award.
func (e *Engine) AddReputation(ctx context.Context, userID uuid.UUID, points int, reason string, source domain.ReputationSource, sourceID string) (*Outcome, error) {
	if points < 0 {
		return nil, apperr.InvalidInput("points", "must not be negative")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.MissingField("reason")
	}

	id, err := e.ids.Generate()
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	entry := domain.ReputationEntry{
		ID:        id,
		EventID:   id,
		Points:    points,
		Reason:    reason,
		Source:    source,
		SourceID:  sourceID,
		Timestamp: e.now(),
	}
	return e.apply(ctx, userID, entry, "")
}

// UpdateContribution bumps a contribution counter without awarding points.
func (e *Engine) UpdateContribution(ctx context.Context, userID uuid.UUID, counter domain.ContributionCounter, increment int) error {
	if !counter.Valid() {
		return apperr.InvalidInput("counter", "unknown contribution counter")
	}
	if increment <= 0 {
		return apperr.InvalidInput("increment", "must be positive")
	}
	if err := e.repo.IncrementContribution(ctx, userID, counter, increment, e.now()); err != nil {
		return apperr.DatabaseError("update contribution", err)
	}
	return nil
}

// Adjust applies a moderator correction: a point award, a counter bump or
// both. The history entry's source id names the admin.
func (e *Engine) Adjust(ctx context.Context, adminID, userID uuid.UUID, req in.AdjustReputationRequest) (*domain.Reputation, error) {
	if req.Points == 0 && req.Counter == "" {
		return nil, apperr.ValidationFailed("points or counter is required")
	}
	if req.Counter != "" && req.Increment == 0 {
		req.Increment = 1
	}
	if req.Counter != "" && !req.Counter.Valid() {
		return nil, apperr.InvalidInput("counter", "unknown contribution counter")
	}

	if req.Points != 0 {
		outcome, err := e.AddReputation(ctx, userID, req.Points, req.Reason, domain.SourceSystem, "admin:"+adminID.String())
		if err != nil {
			return nil, err
		}
		logger.WithContext(ctx).WithFields(map[string]any{
			"admin_id": adminID.String(),
			"target":   userID.String(),
			"points":   req.Points,
			"level":    outcome.Level,
		}).Info("reputation adjusted")
	}
	if req.Counter != "" {
		if err := e.UpdateContribution(ctx, userID, req.Counter, req.Increment); err != nil {
			return nil, err
		}
	}
	return e.Get(ctx, userID)
}

// Apply runs an event through the point table. Redelivered events are
// recognised by event id and leave the record unchanged. Events with no
// table row return (nil, nil).
func (e *Engine) Apply(ctx context.Context, ev *domain.DomainEvent) (*Outcome, error) {
	action, ok := ActionFor(ev.Type)
	if !ok {
		return nil, nil
	}

	userID := action.BeneficiaryOf(ev)
	if userID == uuid.Nil {
		return nil, apperr.ValidationFailed("event has no beneficiary").WithDetail("type", string(ev.Type))
	}
	if action.ReceivedFromSelf(ev) {
		return nil, apperr.SelfAction(string(action.Source))
	}

	id, err := e.ids.Generate()
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	at := ev.OccurredAt
	if at.IsZero() {
		at = e.now()
	}

	entry := domain.ReputationEntry{
		ID:        id,
		EventID:   ev.ID,
		Points:    action.Points,
		Reason:    action.Reason,
		Source:    action.Source,
		SourceID:  ev.SourceID,
		Action:    ev.Type,
		Timestamp: at,
	}
	return e.apply(ctx, userID, entry, action.Counter)
}

func (e *Engine) apply(ctx context.Context, userID uuid.UUID, entry domain.ReputationEntry, counter domain.ContributionCounter) (*Outcome, error) {
	rep, applied, err := e.repo.ApplyEntry(ctx, userID, entry, counter)
	if err != nil {
		return nil, apperr.DatabaseError("apply reputation", err)
	}
	if !applied {
		logger.WithContext(ctx).WithField("event_id", entry.EventID).Debug("reputation event already applied")
		if rep, err = e.repo.Get(ctx, userID); err != nil {
			return nil, apperr.DatabaseError("get reputation", err)
		}
		if rep == nil {
			return &Outcome{UserID: userID}, nil
		}
		return e.syncLevel(ctx, rep, &Outcome{UserID: userID})
	}

	return e.syncLevel(ctx, rep, &Outcome{UserID: userID, Applied: true, Points: entry.Points})
}

// syncLevel raises the stored level to the one TotalPoints earns. It runs on
// duplicates as well so a failed raise heals when the event is redelivered.
func (e *Engine) syncLevel(ctx context.Context, rep *domain.Reputation, outcome *Outcome) (*Outcome, error) {
	outcome.TotalPoints = rep.TotalPoints
	outcome.PreviousLevel = rep.Level
	outcome.Level = rep.Level

	if level := domain.LevelForPoints(rep.TotalPoints); level > rep.Level {
		if err := e.repo.RaiseLevel(ctx, rep.UserID, level); err != nil {
			return nil, apperr.DatabaseError("raise level", err)
		}
		outcome.Level = level
	}
	return outcome, nil
}

// Get returns the user's reputation; users without a record get a fresh
// level 1 view.
func (e *Engine) Get(ctx context.Context, userID uuid.UUID) (*domain.Reputation, error) {
	rep, err := e.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("get reputation", err)
	}
	if rep == nil {
		return &domain.Reputation{UserID: userID, Level: 1, Badges: []string{}}, nil
	}
	return rep, nil
}

// History returns the newest entries first.
func (e *Engine) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReputationEntry, error) {
	entries, err := e.repo.History(ctx, userID, limit)
	if err != nil {
		return nil, apperr.DatabaseError("get reputation history", err)
	}
	return entries, nil
}

func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]*domain.Reputation, error) {
	top, err := e.repo.Top(ctx, limit)
	if err != nil {
		return nil, apperr.DatabaseError("get leaderboard", err)
	}
	return top, nil
}
