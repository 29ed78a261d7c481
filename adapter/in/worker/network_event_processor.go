package worker

import (
	"context"
	"fmt"

	"network_server/core/domain"
	"network_server/core/service/reputation"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

type ReputationApplier interface {
	Apply(ctx context.Context, ev *domain.DomainEvent) (*reputation.Outcome, error)
}

type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID) ([]*domain.Badge, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, ev *domain.DomainEvent) error
}

type Notifier interface {
	LevelUp(ctx context.Context, userID uuid.UUID, from, to int) error
	BadgesEarned(ctx context.Context, userID uuid.UUID, badges []*domain.Badge) error
}

// EventProcessor applies the side effects of one domain event: reputation,
// then badges, then the activity log. Every step is idempotent on the
// event id, so a redelivered event converges to the same state.
type EventProcessor struct {
	reputation ReputationApplier
	badges     BadgeEvaluator
	activity   ActivityRecorder
	notifier   Notifier
}

func NewEventProcessor(rep ReputationApplier, badges BadgeEvaluator, activity ActivityRecorder, notifier Notifier) *EventProcessor {
	return &EventProcessor{
		reputation: rep,
		badges:     badges,
		activity:   activity,
		notifier:   notifier,
	}
}

func (p *EventProcessor) Process(ctx context.Context, msg *Message) error {
	ev, err := ParsePayload[domain.DomainEvent](msg)
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		logger.WithError(err).WithField("message_id", msg.ID).Error("dropping malformed domain event")
		return nil
	}
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"event_id":   ev.ID,
		"event_type": ev.Type,
	})

	outcome, err := p.reputation.Apply(ctx, ev)
	switch {
	case apperr.Permanent(err):
		log.WithError(err).Warn("domain event rejected")
		return nil
	case err != nil:
		return fmt.Errorf("apply reputation: %w", err)
	}

	if outcome != nil {
		if outcome.LeveledUp() {
			if err := p.notifier.LevelUp(ctx, outcome.UserID, outcome.PreviousLevel, outcome.Level); err != nil {
				log.WithError(err).Warn("level-up notification failed")
			}
		}

		// Evaluated even when the entry was already applied: a retry after a
		// failed badge step must still award.
		awarded, err := p.badges.Evaluate(ctx, outcome.UserID)
		if err != nil {
			return fmt.Errorf("evaluate badges: %w", err)
		}
		if len(awarded) > 0 {
			if err := p.notifier.BadgesEarned(ctx, outcome.UserID, awarded); err != nil {
				log.WithError(err).Warn("badge notification failed")
			}
		}
	}

	if err := p.activity.Record(ctx, ev); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	log.Debug("domain event processed")
	return nil
}
