package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"network_server/adapter/out/messaging"
	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/core/service/reputation"
	"network_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type fakeReputation struct {
	outcome *reputation.Outcome
	err     error
	calls   int
}

func (f *fakeReputation) Apply(ctx context.Context, ev *domain.DomainEvent) (*reputation.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeBadges struct {
	awarded []*domain.Badge
	err     error
	users   []uuid.UUID
}

func (f *fakeBadges) Evaluate(ctx context.Context, userID uuid.UUID) ([]*domain.Badge, error) {
	f.users = append(f.users, userID)
	return f.awarded, f.err
}

type fakeActivity struct {
	recorded []int64
	err      error
}

func (f *fakeActivity) Record(ctx context.Context, ev *domain.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, ev.ID)
	return nil
}

type fakeNotifier struct {
	levelUps []int
	badges   int
	err      error
}

func (f *fakeNotifier) LevelUp(ctx context.Context, userID uuid.UUID, from, to int) error {
	f.levelUps = append(f.levelUps, to)
	return f.err
}

func (f *fakeNotifier) BadgesEarned(ctx context.Context, userID uuid.UUID, badges []*domain.Badge) error {
	f.badges += len(badges)
	return f.err
}

func eventMessage(t *testing.T, ev domain.DomainEvent) *Message {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return NewMessage(JobDomainEvent, "1-0", data)
}

func TestEventProcessor_Process(t *testing.T) {
	user := uuid.New()
	ev := domain.DomainEvent{ID: 42, Type: domain.EventPostCreated, ActorID: user, SourceID: "p1", OccurredAt: time.Now()}
	badge := &domain.Badge{ID: "first-post", Name: "First Post"}

	tests := []struct {
		name         string
		rep          *fakeReputation
		badges       *fakeBadges
		activityErr  error
		notifierErr  error
		wantErr      bool
		wantLevelUps int
		wantBadges   int
		wantRecorded int
		wantEvals    int
	}{
		{
			name:         "applied with level up and badge",
			rep:          &fakeReputation{outcome: &reputation.Outcome{UserID: user, Applied: true, PreviousLevel: 1, Level: 2}},
			badges:       &fakeBadges{awarded: []*domain.Badge{badge}},
			wantLevelUps: 1,
			wantBadges:   1,
			wantRecorded: 1,
			wantEvals:    1,
		},
		{
			name:         "already applied still evaluates badges",
			rep:          &fakeReputation{outcome: &reputation.Outcome{UserID: user, Applied: false, PreviousLevel: 2, Level: 2}},
			badges:       &fakeBadges{},
			wantRecorded: 1,
			wantEvals:    1,
		},
		{
			name:         "redelivery that repairs the level notifies",
			rep:          &fakeReputation{outcome: &reputation.Outcome{UserID: user, Applied: false, PreviousLevel: 1, Level: 2}},
			badges:       &fakeBadges{},
			wantLevelUps: 1,
			wantRecorded: 1,
			wantEvals:    1,
		},
		{
			name:         "unscored event only records activity",
			rep:          &fakeReputation{},
			badges:       &fakeBadges{},
			wantRecorded: 1,
		},
		{
			name:   "self action is dropped",
			rep:    &fakeReputation{err: apperr.SelfAction("helpful_vote")},
			badges: &fakeBadges{},
		},
		{
			name:    "storage failure is retried",
			rep:     &fakeReputation{err: apperr.DatabaseError("apply entry", errors.New("down"))},
			badges:  &fakeBadges{},
			wantErr: true,
		},
		{
			name:      "badge failure is retried",
			rep:       &fakeReputation{outcome: &reputation.Outcome{UserID: user, Applied: true, Level: 1, PreviousLevel: 1}},
			badges:    &fakeBadges{err: errors.New("down")},
			wantErr:   true,
			wantEvals: 1,
		},
		{
			name:         "activity failure is retried",
			rep:          &fakeReputation{},
			badges:       &fakeBadges{},
			activityErr:  errors.New("down"),
			wantErr:      true,
			wantRecorded: 0,
		},
		{
			name:         "notification failure does not fail the event",
			rep:          &fakeReputation{outcome: &reputation.Outcome{UserID: user, Applied: true, PreviousLevel: 1, Level: 3}},
			badges:       &fakeBadges{awarded: []*domain.Badge{badge}},
			notifierErr:  errors.New("down"),
			wantLevelUps: 1,
			wantBadges:   1,
			wantRecorded: 1,
			wantEvals:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := &fakeActivity{err: tt.activityErr}
			notifier := &fakeNotifier{err: tt.notifierErr}
			p := NewEventProcessor(tt.rep, tt.badges, act, notifier)

			err := p.Process(context.Background(), eventMessage(t, ev))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Process() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(notifier.levelUps) != tt.wantLevelUps {
				t.Errorf("level ups = %d, want %d", len(notifier.levelUps), tt.wantLevelUps)
			}
			if notifier.badges != tt.wantBadges {
				t.Errorf("badge notifications = %d, want %d", notifier.badges, tt.wantBadges)
			}
			if len(act.recorded) != tt.wantRecorded {
				t.Errorf("recorded = %d, want %d", len(act.recorded), tt.wantRecorded)
			}
			if len(tt.badges.users) != tt.wantEvals {
				t.Errorf("badge evaluations = %d, want %d", len(tt.badges.users), tt.wantEvals)
			}
		})
	}
}

func TestEventProcessor_MalformedPayload(t *testing.T) {
	rep := &fakeReputation{}
	p := NewEventProcessor(rep, &fakeBadges{}, &fakeActivity{}, &fakeNotifier{})

	err := p.Process(context.Background(), NewMessage(JobDomainEvent, "1-0", []byte("{not json")))
	if err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}
	if rep.calls != 0 {
		t.Errorf("reputation applied %d times for a malformed payload", rep.calls)
	}
}

type capturePool struct {
	accept bool
	got    []*Message
}

func (c *capturePool) Submit(msg *Message) bool {
	c.got = append(c.got, msg)
	return c.accept
}

func TestStreamRouter_Handle(t *testing.T) {
	acked := false
	delivery := messaging.Delivery{
		Stream: out.StreamDomainEvents,
		ID:     "1700000000000-0",
		Data:   []byte(`{"id":1}`),
		Ack: func(ctx context.Context) error {
			acked = true
			return nil
		},
	}

	t.Run("routes known stream", func(t *testing.T) {
		pool := &capturePool{accept: true}
		r := NewStreamRouter(pool)
		if err := r.Handle(context.Background(), delivery); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if len(pool.got) != 1 {
			t.Fatalf("submitted %d messages, want 1", len(pool.got))
		}
		msg := pool.got[0]
		if msg.Type != JobDomainEvent || msg.ID != delivery.ID || msg.Stream != delivery.Stream {
			t.Errorf("message = %+v", msg)
		}
		if acked {
			t.Fatal("delivery acked before processing")
		}
		if err := msg.Ack(context.Background()); err != nil || !acked {
			t.Errorf("Ack() error = %v, acked = %v", err, acked)
		}
	})

	t.Run("unknown stream", func(t *testing.T) {
		pool := &capturePool{accept: true}
		d := delivery
		d.Stream = "other"
		if err := NewStreamRouter(pool).Handle(context.Background(), d); err == nil {
			t.Fatal("expected error for unknown stream")
		}
		if len(pool.got) != 0 {
			t.Errorf("submitted %d messages, want 0", len(pool.got))
		}
	})

	t.Run("rejected submit", func(t *testing.T) {
		pool := &capturePool{accept: false}
		if err := NewStreamRouter(pool).Handle(context.Background(), delivery); err == nil {
			t.Fatal("expected error when the pool rejects")
		}
	})
}

func TestHandler_UnknownJobType(t *testing.T) {
	h := NewHandler(NewEventProcessor(&fakeReputation{}, &fakeBadges{}, &fakeActivity{}, &fakeNotifier{}))
	if err := h.Process(context.Background(), NewMessage("other.job", "1", nil)); err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}
}

func TestMessage_AckWithoutSource(t *testing.T) {
	if err := NewMessage(JobDomainEvent, "1", nil).Ack(context.Background()); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
}
