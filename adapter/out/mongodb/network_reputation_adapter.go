package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionReputations = "reputations"

	// Oldest history entries are dropped past this size. Windowed badge
	// checks only see what is retained.
	historyCap = 1000
)

// ReputationAdapter implements out.ReputationRepository. Each user has one
// document with an embedded, capped history.
type ReputationAdapter struct {
	collection *mongo.Collection
}

func NewReputationAdapter(db *mongo.Database) *ReputationAdapter {
	return &ReputationAdapter{collection: db.Collection(collectionReputations)}
}

func (a *ReputationAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "total_points", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "history.event_id", Value: 1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type reputationDocument struct {
	UserID        string                `bson:"user_id"`
	TotalPoints   int                   `bson:"total_points"`
	Level         int                   `bson:"level"`
	Badges        []string              `bson:"badges"`
	Contributions contributionsDocument `bson:"contributions"`
	History       []entryDocument       `bson:"history,omitempty"`
	LastActivity  time.Time             `bson:"last_activity"`
	CreatedAt     time.Time             `bson:"created_at"`
}

type contributionsDocument struct {
	PostsCreated       int `bson:"posts_created"`
	CommentsWritten    int `bson:"comments_written"`
	PostsLiked         int `bson:"posts_liked"`
	HelpfulVotes       int `bson:"helpful_votes"`
	ExpertAnswers      int `bson:"expert_answers"`
	MentorshipSessions int `bson:"mentorship_sessions"`
	EventsHosted       int `bson:"events_hosted"`
}

type entryDocument struct {
	ID        int64     `bson:"id"`
	EventID   int64     `bson:"event_id,omitempty"`
	Points    int       `bson:"points"`
	Reason    string    `bson:"reason"`
	Source    string    `bson:"source"`
	SourceID  string    `bson:"source_id,omitempty"`
	Action    string    `bson:"action,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

func toEntryDocument(e domain.ReputationEntry) entryDocument {
	return entryDocument{
		ID:        e.ID,
		EventID:   e.EventID,
		Points:    e.Points,
		Reason:    e.Reason,
		Source:    string(e.Source),
		SourceID:  e.SourceID,
		Action:    string(e.Action),
		Timestamp: e.Timestamp,
	}
}

func (d entryDocument) toEntity() domain.ReputationEntry {
	return domain.ReputationEntry{
		ID:        d.ID,
		EventID:   d.EventID,
		Points:    d.Points,
		Reason:    d.Reason,
		Source:    domain.ReputationSource(d.Source),
		SourceID:  d.SourceID,
		Action:    domain.EventType(d.Action),
		Timestamp: d.Timestamp,
	}
}

func (d *reputationDocument) toEntity() (*domain.Reputation, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id %q: %w", d.UserID, err)
	}
	level := d.Level
	if level < 1 {
		level = 1
	}
	history := make([]domain.ReputationEntry, 0, len(d.History))
	for _, h := range d.History {
		history = append(history, h.toEntity())
	}
	badges := d.Badges
	if badges == nil {
		badges = []string{}
	}
	return &domain.Reputation{
		UserID:      userID,
		TotalPoints: d.TotalPoints,
		Level:       level,
		Badges:      badges,
		Contributions: domain.Contributions{
			PostsCreated:       d.Contributions.PostsCreated,
			CommentsWritten:    d.Contributions.CommentsWritten,
			PostsLiked:         d.Contributions.PostsLiked,
			HelpfulVotes:       d.Contributions.HelpfulVotes,
			ExpertAnswers:      d.Contributions.ExpertAnswers,
			MentorshipSessions: d.Contributions.MentorshipSessions,
			EventsHosted:       d.Contributions.EventsHosted,
		},
		History:      history,
		LastActivity: d.LastActivity,
		CreatedAt:    d.CreatedAt,
	}, nil
}

// insertDefaults seeds a record created by an upsert. Fields touched by the
// same update's $inc or $set are left out.
func insertDefaults(at time.Time, withPoints bool) bson.M {
	m := bson.M{
		"level":      1,
		"badges":     bson.A{},
		"created_at": at,
	}
	if !withPoints {
		m["total_points"] = 0
	}
	return m
}

// =============================================================================
// Mutations
// =============================================================================

func (a *ReputationAdapter) ApplyEntry(ctx context.Context, userID uuid.UUID, entry domain.ReputationEntry, counter domain.ContributionCounter) (*domain.Reputation, bool, error) {
	filter := bson.M{
		"user_id":          userID.String(),
		"history.event_id": bson.M{"$ne": entry.EventID},
	}

	inc := bson.M{"total_points": entry.Points}
	if counter != "" {
		inc["contributions."+string(counter)] = 1
	}
	update := bson.M{
		"$inc": inc,
		"$push": bson.M{"history": bson.M{
			"$each":  bson.A{toEntryDocument(entry)},
			"$slice": -historyCap,
		}},
		"$set":         bson.M{"last_activity": entry.Timestamp},
		"$setOnInsert": insertDefaults(entry.Timestamp, true),
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"history": 0})

	var doc reputationDocument
	err := a.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Either the event is already in the history, or a concurrent first
		// write created the record. Retry against the existing document.
		opts.SetUpsert(false)
		err = a.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to apply reputation entry: %w", err)
	}

	rep, err := doc.toEntity()
	if err != nil {
		return nil, false, err
	}
	return rep, true, nil
}

func (a *ReputationAdapter) RaiseLevel(ctx context.Context, userID uuid.UUID, level int) error {
	_, err := a.collection.UpdateOne(ctx,
		bson.M{"user_id": userID.String()},
		bson.M{"$max": bson.M{"level": level}},
	)
	if err != nil {
		return fmt.Errorf("failed to raise level: %w", err)
	}
	return nil
}

func (a *ReputationAdapter) IncrementContribution(ctx context.Context, userID uuid.UUID, counter domain.ContributionCounter, inc int, at time.Time) error {
	update := bson.M{
		"$inc":         bson.M{"contributions." + string(counter): inc},
		"$set":         bson.M{"last_activity": at},
		"$setOnInsert": insertDefaults(at, false),
	}
	_, err := a.collection.UpdateOne(ctx, bson.M{"user_id": userID.String()}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment contribution: %w", err)
	}
	return nil
}

func (a *ReputationAdapter) AddBadge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	res, err := a.collection.UpdateOne(ctx,
		bson.M{"user_id": userID.String(), "badges": bson.M{"$ne": badgeID}},
		bson.M{"$addToSet": bson.M{"badges": badgeID}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to add badge: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// =============================================================================
// Queries
// =============================================================================

func (a *ReputationAdapter) Get(ctx context.Context, userID uuid.UUID) (*domain.Reputation, error) {
	var doc reputationDocument
	err := a.collection.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}
	return doc.toEntity()
}

// History returns up to limit entries, newest first.
func (a *ReputationAdapter) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReputationEntry, error) {
	if limit <= 0 {
		return []domain.ReputationEntry{}, nil
	}
	opts := options.FindOne().SetProjection(bson.M{
		"user_id": 1,
		"history": bson.M{"$slice": -limit},
	})

	var doc reputationDocument
	err := a.collection.FindOne(ctx, bson.M{"user_id": userID.String()}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return []domain.ReputationEntry{}, nil
		}
		return nil, fmt.Errorf("failed to get reputation history: %w", err)
	}

	entries := make([]domain.ReputationEntry, 0, len(doc.History))
	for i := len(doc.History) - 1; i >= 0; i-- {
		entries = append(entries, doc.History[i].toEntity())
	}
	return entries, nil
}

func (a *ReputationAdapter) Top(ctx context.Context, limit int) ([]*domain.Reputation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_points", Value: -1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"history": 0})

	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list top reputations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reputationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reputations: %w", err)
	}

	reps := make([]*domain.Reputation, 0, len(docs))
	for i := range docs {
		rep, err := docs[i].toEntity()
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}
