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

const collectionInteractions = "user_interactions"

// InteractionAdapter implements out.InteractionRepository with one counter
// document per unordered user pair.
type InteractionAdapter struct {
	collection *mongo.Collection
}

func NewInteractionAdapter(db *mongo.Database) *InteractionAdapter {
	return &InteractionAdapter{collection: db.Collection(collectionInteractions)}
}

func (a *InteractionAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type interactionDocument struct {
	Pair                  string     `bson:"pair"`
	MessageCount          int        `bson:"message_count"`
	SharedJobApplications int        `bson:"shared_job_applications"`
	SkillEndorsements     int        `bson:"skill_endorsements"`
	ProfileViews          int        `bson:"profile_views"`
	ContentInteractions   int        `bson:"content_interactions"`
	LastInteraction       *time.Time `bson:"last_interaction,omitempty"`
}

// pairKey orders the ids so (a, b) and (b, a) share a document.
func pairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

func interactionField(kind domain.InteractionKind) (string, error) {
	switch kind {
	case domain.InteractionMessage:
		return "message_count", nil
	case domain.InteractionSharedApplication:
		return "shared_job_applications", nil
	case domain.InteractionEndorsement:
		return "skill_endorsements", nil
	case domain.InteractionProfileView:
		return "profile_views", nil
	case domain.InteractionContent:
		return "content_interactions", nil
	}
	return "", fmt.Errorf("unknown interaction kind %q", kind)
}

func (a *InteractionAdapter) Increment(ctx context.Context, x, y uuid.UUID, kind domain.InteractionKind, at time.Time) error {
	field, err := interactionField(kind)
	if err != nil {
		return err
	}
	update := bson.M{
		"$inc": bson.M{field: 1},
		"$max": bson.M{"last_interaction": at},
	}
	_, err = a.collection.UpdateOne(ctx, bson.M{"pair": pairKey(x, y)}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment interaction: %w", err)
	}
	return nil
}

// Get returns zero stats for a pair that never interacted.
func (a *InteractionAdapter) Get(ctx context.Context, x, y uuid.UUID) (*domain.InteractionStats, error) {
	var doc interactionDocument
	err := a.collection.FindOne(ctx, bson.M{"pair": pairKey(x, y)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &domain.InteractionStats{}, nil
		}
		return nil, fmt.Errorf("failed to get interactions: %w", err)
	}
	return &domain.InteractionStats{
		MessageCount:          doc.MessageCount,
		SharedJobApplications: doc.SharedJobApplications,
		SkillEndorsements:     doc.SkillEndorsements,
		ProfileViews:          doc.ProfileViews,
		ContentInteractions:   doc.ContentInteractions,
		LastInteraction:       doc.LastInteraction,
	}, nil
}
