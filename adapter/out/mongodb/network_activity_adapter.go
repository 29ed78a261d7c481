package mongodb

import (
	"context"
	"fmt"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionActivities = "activity_events"
	activityRetention    = 180 * 24 * time.Hour
)

// ActivityAdapter implements out.ActivityRepository.
type ActivityAdapter struct {
	collection *mongo.Collection
}

func NewActivityAdapter(db *mongo.Database) *ActivityAdapter {
	return &ActivityAdapter{collection: db.Collection(collectionActivities)}
}

func (a *ActivityAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type activityDocument struct {
	ID          int64     `bson:"id"`
	UserID      string    `bson:"user_id"`
	Module      string    `bson:"module"`
	Action      string    `bson:"action"`
	TargetID    string    `bson:"target_id,omitempty"`
	ImpactScore int       `bson:"impact_score"`
	Timestamp   time.Time `bson:"timestamp"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

// Record upserts on the event id so redelivered events are stored once.
func (a *ActivityAdapter) Record(ctx context.Context, ev *domain.ActivityEvent) error {
	doc := activityDocument{
		ID:          ev.ID,
		UserID:      ev.UserID.String(),
		Module:      string(ev.Module),
		Action:      string(ev.Action),
		TargetID:    ev.TargetID,
		ImpactScore: ev.ImpactScore,
		Timestamp:   ev.Timestamp,
		ExpiresAt:   ev.Timestamp.Add(activityRetention),
	}
	_, err := a.collection.ReplaceOne(ctx, bson.M{"id": ev.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (a *ActivityAdapter) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ActivityEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []activityDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}

	events := make([]*domain.ActivityEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.ActivityEvent{
			ID:          d.ID,
			UserID:      userID,
			Module:      domain.ActivityModule(d.Module),
			Action:      domain.EventType(d.Action),
			TargetID:    d.TargetID,
			ImpactScore: d.ImpactScore,
			Timestamp:   d.Timestamp,
		})
	}
	return events, nil
}
