package mongodb

import (
	"context"
	"fmt"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionMilestones = "community_milestones"

// MilestoneAdapter implements out.MilestoneRepository. The unique index on
// (kind, user_id, reference) makes Record idempotent.
type MilestoneAdapter struct {
	collection *mongo.Collection
}

func NewMilestoneAdapter(db *mongo.Database) *MilestoneAdapter {
	return &MilestoneAdapter{collection: db.Collection(collectionMilestones)}
}

func (a *MilestoneAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "user_id", Value: 1}, {Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type milestoneDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Kind        string             `bson:"kind"`
	UserID      string             `bson:"user_id"`
	ConfirmedBy string             `bson:"confirmed_by,omitempty"`
	Reference   string             `bson:"reference"`
	Title       string             `bson:"title,omitempty"`
	OccurredAt  time.Time          `bson:"occurred_at"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func toMilestoneDocument(m *domain.Milestone) *milestoneDocument {
	doc := &milestoneDocument{
		Kind:       string(m.Kind),
		UserID:     m.UserID.String(),
		Reference:  m.Reference,
		Title:      m.Title,
		OccurredAt: m.OccurredAt,
		CreatedAt:  m.CreatedAt,
	}
	if m.ConfirmedBy != uuid.Nil {
		doc.ConfirmedBy = m.ConfirmedBy.String()
	}
	return doc
}

func (d *milestoneDocument) toEntity() *domain.Milestone {
	m := &domain.Milestone{
		ID:         d.ID.Hex(),
		Kind:       domain.MilestoneKind(d.Kind),
		Reference:  d.Reference,
		Title:      d.Title,
		OccurredAt: d.OccurredAt,
		CreatedAt:  d.CreatedAt,
	}
	m.UserID, _ = uuid.Parse(d.UserID)
	if d.ConfirmedBy != "" {
		m.ConfirmedBy, _ = uuid.Parse(d.ConfirmedBy)
	}
	return m
}

func (a *MilestoneAdapter) Record(ctx context.Context, m *domain.Milestone) (bool, error) {
	doc := toMilestoneDocument(m)
	doc.ID = primitive.NewObjectID()
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert milestone: %w", err)
	}
	m.ID = doc.ID.Hex()
	return true, nil
}

func (a *MilestoneAdapter) ListByUser(ctx context.Context, userID uuid.UUID, kind domain.MilestoneKind, limit int) ([]*domain.Milestone, error) {
	filter := bson.M{"user_id": userID.String()}
	if kind != "" {
		filter["kind"] = string(kind)
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}}).SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []milestoneDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}

	milestones := make([]*domain.Milestone, 0, len(docs))
	for i := range docs {
		milestones = append(milestones, docs[i].toEntity())
	}
	return milestones, nil
}
