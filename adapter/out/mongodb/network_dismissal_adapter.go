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

const collectionDismissals = "recommendation_dismissals"

// DismissalAdapter implements out.DismissalRepository. Expired dismissals
// are removed by a TTL index; reads also filter on expires_at because the
// TTL monitor runs only once a minute.
type DismissalAdapter struct {
	collection *mongo.Collection
}

func NewDismissalAdapter(db *mongo.Database) *DismissalAdapter {
	return &DismissalAdapter{collection: db.Collection(collectionDismissals)}
}

func (a *DismissalAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "viewer_id", Value: 1}, {Key: "candidate_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type dismissalDocument struct {
	ViewerID    string    `bson:"viewer_id"`
	CandidateID string    `bson:"candidate_id"`
	DismissedAt time.Time `bson:"dismissed_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

// Dismiss stores or refreshes a dismissal.
func (a *DismissalAdapter) Dismiss(ctx context.Context, d *domain.Dismissal) error {
	filter := bson.M{
		"viewer_id":    d.ViewerID.String(),
		"candidate_id": d.CandidateID.String(),
	}
	doc := dismissalDocument{
		ViewerID:    d.ViewerID.String(),
		CandidateID: d.CandidateID.String(),
		DismissedAt: d.DismissedAt,
		ExpiresAt:   d.ExpiresAt,
	}
	if _, err := a.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to save dismissal: %w", err)
	}
	return nil
}

func (a *DismissalAdapter) ActiveCandidateIDs(ctx context.Context, viewerID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	filter := bson.M{
		"viewer_id":  viewerID.String(),
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.Find().SetProjection(bson.M{"candidate_id": 1})

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dismissals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []dismissalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode dismissals: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.CandidateID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
