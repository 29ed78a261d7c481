package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionPosts    = "community_posts"
	collectionComments = "post_comments"
)

// PostAdapter implements out.PostRepository. Reactions are stored as
// per-post voter sets so each user reacts at most once.
type PostAdapter struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewPostAdapter(db *mongo.Database) *PostAdapter {
	return &PostAdapter{
		posts:    db.Collection(collectionPosts),
		comments: db.Collection(collectionComments),
	}
}

func (a *PostAdapter) EnsureIndexes(ctx context.Context) error {
	postIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "related_skills_lower", Value: 1}}},
	}
	if _, err := a.posts.Indexes().CreateMany(ctx, postIndexes); err != nil {
		return err
	}
	_, err := a.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type postDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	AuthorID           string             `bson:"author_id"`
	Title              string             `bson:"title"`
	Content            string             `bson:"content"`
	Category           string             `bson:"category"`
	Tags               []string           `bson:"tags,omitempty"`
	Industry           string             `bson:"industry,omitempty"`
	SkillLevel         string             `bson:"skill_level,omitempty"`
	RelatedSkills      []string           `bson:"related_skills,omitempty"`
	RelatedSkillsLower []string           `bson:"related_skills_lower,omitempty"`
	Likes              int                `bson:"likes"`
	HelpfulVotes       int                `bson:"helpful_votes"`
	ExpertEndorsements int                `bson:"expert_endorsements"`
	Bookmarks          int                `bson:"bookmarks"`
	Shares             int                `bson:"shares"`
	Views              int                `bson:"views"`
	Comments           int                `bson:"comments"`
	LikedBy            []string           `bson:"liked_by"`
	HelpfulBy          []string           `bson:"helpful_by"`
	EndorsedBy         []string           `bson:"endorsed_by"`
	Status             string             `bson:"status"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PostID    string             `bson:"post_id"`
	AuthorID  string             `bson:"author_id"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Voter sets are never sent back to callers.
var postProjection = bson.M{"liked_by": 0, "helpful_by": 0, "endorsed_by": 0}

func toPostDocument(p *domain.CommunityPost) *postDocument {
	return &postDocument{
		AuthorID:           p.AuthorID.String(),
		Title:              p.Title,
		Content:            p.Content,
		Category:           string(p.Category),
		Tags:               p.Tags,
		Industry:           p.Industry,
		SkillLevel:         p.SkillLevel,
		RelatedSkills:      p.RelatedSkills,
		RelatedSkillsLower: lowerAll(p.RelatedSkills),
		LikedBy:            []string{},
		HelpfulBy:          []string{},
		EndorsedBy:         []string{},
		Status:             string(p.Status),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func (d *postDocument) toEntity() *domain.CommunityPost {
	author, _ := uuid.Parse(d.AuthorID)
	return &domain.CommunityPost{
		ID:                 d.ID.Hex(),
		AuthorID:           author,
		Title:              d.Title,
		Content:            d.Content,
		Category:           domain.PostCategory(d.Category),
		Tags:               d.Tags,
		Industry:           d.Industry,
		SkillLevel:         d.SkillLevel,
		RelatedSkills:      d.RelatedSkills,
		Likes:              d.Likes,
		HelpfulVotes:       d.HelpfulVotes,
		ExpertEndorsements: d.ExpertEndorsements,
		Bookmarks:          d.Bookmarks,
		Shares:             d.Shares,
		Views:              d.Views,
		Comments:           d.Comments,
		Status:             domain.PostStatus(d.Status),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// reactionFields maps a reaction to its voter set and counter.
func reactionFields(r domain.PostReaction) (set, counter string, err error) {
	switch r {
	case domain.ReactionLike:
		return "liked_by", "likes", nil
	case domain.ReactionHelpful:
		return "helpful_by", "helpful_votes", nil
	case domain.ReactionEndorse:
		return "endorsed_by", "expert_endorsements", nil
	}
	return "", "", fmt.Errorf("unknown reaction %q", r)
}

// =============================================================================
// Operations
// =============================================================================

func (a *PostAdapter) Create(ctx context.Context, post *domain.CommunityPost) error {
	doc := toPostDocument(post)
	doc.ID = primitive.NewObjectID()
	if _, err := a.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	post.ID = doc.ID.Hex()
	return nil
}

// Get returns nil for unknown or malformed ids.
func (a *PostAdapter) Get(ctx context.Context, id string) (*domain.CommunityPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc postDocument
	err = a.posts.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(postProjection)).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return doc.toEntity(), nil
}

func (a *PostAdapter) AddReaction(ctx context.Context, postID string, userID uuid.UUID, reaction domain.PostReaction) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return false, nil
	}
	set, counter, err := reactionFields(reaction)
	if err != nil {
		return false, err
	}

	voter := userID.String()
	filter := bson.M{
		"_id":    oid,
		"status": string(domain.PostActive),
		set:      bson.M{"$ne": voter},
	}
	update := bson.M{
		"$addToSet": bson.M{set: voter},
		"$inc":      bson.M{counter: 1},
	}
	res, err := a.posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (a *PostAdapter) AddComment(ctx context.Context, comment *domain.Comment) error {
	oid, err := primitive.ObjectIDFromHex(comment.PostID)
	if err != nil {
		return fmt.Errorf("invalid post id %q", comment.PostID)
	}

	doc := &commentDocument{
		ID:        primitive.NewObjectID(),
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID.String(),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if _, err := a.comments.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	comment.ID = doc.ID.Hex()

	if _, err := a.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"comments": 1}}); err != nil {
		return fmt.Errorf("failed to bump comment count: %w", err)
	}
	return nil
}

func (a *PostAdapter) SoftDelete(ctx context.Context, postID string, authorID uuid.UUID) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return false, nil
	}
	filter := bson.M{
		"_id":       oid,
		"author_id": authorID.String(),
		"status":    string(domain.PostActive),
	}
	update := bson.M{"$set": bson.M{
		"status":     string(domain.PostDeleted),
		"updated_at": time.Now(),
	}}
	res, err := a.posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// Trending ranks active posts created since the cutoff by
// likes + 2*helpful + 3*expert, newest first on ties.
func (a *PostAdapter) Trending(ctx context.Context, since time.Time, limit int) ([]*domain.CommunityPost, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":     string(domain.PostActive),
			"created_at": bson.M{"$gte": since},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"engagement": bson.M{"$add": bson.A{
				"$likes",
				bson.M{"$multiply": bson.A{2, "$helpful_votes"}},
				bson.M{"$multiply": bson.A{3, "$expert_endorsements"}},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "engagement", Value: -1}, {Key: "created_at", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: postProjection}},
	}
	return a.aggregate(ctx, pipeline)
}

// FindBySkills returns active posts from other authors whose related skills
// overlap skills, case-insensitively. With no skills it falls back to the
// most engaged recent posts.
func (a *PostAdapter) FindBySkills(ctx context.Context, skills []string, excludeAuthor uuid.UUID, limit int) ([]*domain.CommunityPost, error) {
	match := bson.M{
		"status":    string(domain.PostActive),
		"author_id": bson.M{"$ne": excludeAuthor.String()},
	}
	if lowered := lowerAll(skills); len(lowered) > 0 {
		match["related_skills_lower"] = bson.M{"$in": lowered}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"engagement": bson.M{"$add": bson.A{
				"$likes",
				bson.M{"$multiply": bson.A{2, "$helpful_votes"}},
				bson.M{"$multiply": bson.A{3, "$expert_endorsements"}},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "engagement", Value: -1}, {Key: "created_at", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: postProjection}},
	}
	return a.aggregate(ctx, pipeline)
}

func (a *PostAdapter) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*domain.CommunityPost, error) {
	cursor, err := a.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]*domain.CommunityPost, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toEntity())
	}
	return posts, nil
}

var spaceRun = regexp.MustCompile(`\s+`)

func lowerAll(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, s := range values {
		s = spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
		if s != "" {
			lowered = append(lowered, s)
		}
	}
	return lowered
}
