package mongodb

import (
	"context"
	"fmt"

	"network_server/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionBadges = "badges"

// BadgeAdapter implements out.BadgeRepository.
type BadgeAdapter struct {
	collection *mongo.Collection
}

func NewBadgeAdapter(db *mongo.Database) *BadgeAdapter {
	return &BadgeAdapter{collection: db.Collection(collectionBadges)}
}

func (a *BadgeAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type badgeDocument struct {
	ID           string              `bson:"id"`
	Name         string              `bson:"name"`
	Description  string              `bson:"description"`
	Category     string              `bson:"category"`
	Icon         string              `bson:"icon,omitempty"`
	Requirement  requirementDocument `bson:"requirement"`
	IsRare       bool                `bson:"is_rare"`
	AwardedCount int                 `bson:"awarded_count"`
}

type requirementDocument struct {
	Type      string `bson:"type"`
	Value     int    `bson:"value"`
	Timeframe string `bson:"timeframe"`
}

func (d *badgeDocument) toEntity() *domain.Badge {
	return &domain.Badge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    domain.BadgeCategory(d.Category),
		Icon:        d.Icon,
		Requirement: domain.BadgeRequirement{
			Type:      domain.RequirementType(d.Requirement.Type),
			Value:     d.Requirement.Value,
			Timeframe: domain.Timeframe(d.Requirement.Timeframe),
		},
		IsRare:       d.IsRare,
		AwardedCount: d.AwardedCount,
	}
}

func (a *BadgeAdapter) List(ctx context.Context) ([]*domain.Badge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []badgeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode badges: %w", err)
	}

	badges := make([]*domain.Badge, 0, len(docs))
	for i := range docs {
		badges = append(badges, docs[i].toEntity())
	}
	return badges, nil
}

func (a *BadgeAdapter) Get(ctx context.Context, id string) (*domain.Badge, error) {
	var doc badgeDocument
	if err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	return doc.toEntity(), nil
}

// Upsert rewrites the catalog fields. awarded_count is only set on insert.
func (a *BadgeAdapter) Upsert(ctx context.Context, b *domain.Badge) error {
	update := bson.M{
		"$set": bson.M{
			"name":        b.Name,
			"description": b.Description,
			"category":    string(b.Category),
			"icon":        b.Icon,
			"requirement": bson.M{
				"type":      string(b.Requirement.Type),
				"value":     b.Requirement.Value,
				"timeframe": string(b.Requirement.Timeframe),
			},
			"is_rare": b.IsRare,
		},
		"$setOnInsert": bson.M{"awarded_count": 0},
	}
	_, err := a.collection.UpdateOne(ctx, bson.M{"id": b.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert badge %s: %w", b.ID, err)
	}
	return nil
}

func (a *BadgeAdapter) IncrementAwarded(ctx context.Context, id string) error {
	_, err := a.collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$inc": bson.M{"awarded_count": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment awarded count: %w", err)
	}
	return nil
}
