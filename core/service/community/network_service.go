// Package community handles post writes and emits the events that drive
// reputation.
package community

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

const (
	maxTitleLength     = 200
	maxContentLength   = 10000
	maxTags            = 10
	maxReferenceLength = 128
	trendingWindow     = 7 * 24 * time.Hour
)

type IDGenerator interface {
	Generate() (int64, error)
}

type Service struct {
	posts      out.PostRepository
	milestones out.MilestoneRepository
	events     out.EventPublisher
	ids        IDGenerator
	now        func() time.Time
}

func NewService(posts out.PostRepository, milestones out.MilestoneRepository, events out.EventPublisher, ids IDGenerator) *Service {
	return &Service{
		posts:      posts,
		milestones: milestones,
		events:     events,
		ids:        ids,
		now:        time.Now,
	}
}

func validatePost(req *in.CreatePostRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	switch {
	case req.Title == "":
		return apperr.MissingField("title")
	case len(req.Title) > maxTitleLength:
		return apperr.InvalidInput("title", "must be at most 200 characters")
	case req.Content == "":
		return apperr.MissingField("content")
	case len(req.Content) > maxContentLength:
		return apperr.InvalidInput("content", "must be at most 10000 characters")
	case len(req.Tags) > maxTags:
		return apperr.InvalidInput("tags", "at most 10 tags")
	}
	if req.Category == "" {
		req.Category = domain.PostCategoryDiscussion
	}
	if !req.Category.Valid() {
		return apperr.InvalidInput("category", "unknown category")
	}
	return nil
}

func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, req in.CreatePostRequest) (*domain.CommunityPost, error) {
	if err := validatePost(&req); err != nil {
		return nil, err
	}

	now := s.now()
	post := &domain.CommunityPost{
		AuthorID:      authorID,
		Title:         req.Title,
		Content:       req.Content,
		Category:      req.Category,
		Tags:          cleanList(req.Tags),
		Industry:      strings.TrimSpace(req.Industry),
		SkillLevel:    strings.TrimSpace(req.SkillLevel),
		RelatedSkills: cleanList(req.RelatedSkills),
		Status:        domain.PostActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperr.DatabaseError("create post", err)
	}

	s.publish(ctx, domain.EventPostCreated, authorID, uuid.Nil, post.ID)
	return post, nil
}

func (s *Service) Comment(ctx context.Context, authorID uuid.UUID, postID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.MissingField("content")
	}
	if len(content) > maxContentLength {
		return nil, apperr.InvalidInput("content", "must be at most 10000 characters")
	}
	if _, err := s.activePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, apperr.DatabaseError("add comment", err)
	}

	s.publish(ctx, domain.EventCommentWritten, authorID, uuid.Nil, postID)
	return comment, nil
}

func (s *Service) Like(ctx context.Context, userID uuid.UUID, postID string) error {
	return s.react(ctx, userID, postID, domain.ReactionLike)
}

// MarkHelpful awards the post author a helpful vote.
func (s *Service) MarkHelpful(ctx context.Context, userID uuid.UUID, postID string) error {
	return s.react(ctx, userID, postID, domain.ReactionHelpful)
}

// Endorse awards the post author an expert endorsement. Authors cannot
// endorse their own posts.
func (s *Service) Endorse(ctx context.Context, userID uuid.UUID, postID string) error {
	return s.react(ctx, userID, postID, domain.ReactionEndorse)
}

func (s *Service) react(ctx context.Context, userID uuid.UUID, postID string, reaction domain.PostReaction) error {
	post, err := s.activePost(ctx, postID)
	if err != nil {
		return err
	}

	// Self checks run before any write.
	if post.AuthorID == userID {
		switch reaction {
		case domain.ReactionEndorse:
			return apperr.SelfAction("endorse")
		case domain.ReactionHelpful:
			return apperr.SelfAction("vote for")
		}
	}

	added, err := s.posts.AddReaction(ctx, postID, userID, reaction)
	if err != nil {
		return apperr.DatabaseError("add reaction", err)
	}
	if !added {
		return apperr.Duplicate(duplicateMessage(reaction))
	}

	switch reaction {
	case domain.ReactionLike:
		s.publish(ctx, domain.EventPostLiked, userID, post.AuthorID, postID)
	case domain.ReactionHelpful:
		s.publish(ctx, domain.EventHelpfulVote, userID, post.AuthorID, postID)
	case domain.ReactionEndorse:
		s.publish(ctx, domain.EventExpertEndorsement, userID, post.AuthorID, postID)
	}
	return nil
}

func duplicateMessage(r domain.PostReaction) string {
	switch r {
	case domain.ReactionLike:
		return "post already liked"
	case domain.ReactionHelpful:
		return "post already marked helpful"
	default:
		return "post already endorsed"
	}
}

// DeletePost soft-deletes; only the author may do it.
func (s *Service) DeletePost(ctx context.Context, actorID uuid.UUID, postID string) error {
	post, err := s.activePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperr.Forbidden("only the author can delete this post")
	}
	ok, err := s.posts.SoftDelete(ctx, postID, actorID)
	if err != nil {
		return apperr.DatabaseError("delete post", err)
	}
	if !ok {
		return apperr.NotFound("post")
	}
	return nil
}

// =============================================================================
// Milestones
// =============================================================================

// ConfirmMentorship is called by the mentee once a session with mentorID is
// over. Each session id counts once for the mentor.
func (s *Service) ConfirmMentorship(ctx context.Context, menteeID, mentorID uuid.UUID, sessionID string) (*domain.Milestone, error) {
	if menteeID == mentorID {
		return nil, apperr.SelfAction("confirm a mentorship with")
	}
	ref, err := validReference("session_id", sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.Milestone{
		Kind:        domain.MilestoneMentorship,
		UserID:      mentorID,
		ConfirmedBy: menteeID,
		Reference:   ref,
		OccurredAt:  now,
		CreatedAt:   now,
	}
	if err := s.recordMilestone(ctx, m, "mentorship session already confirmed"); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventMentorshipCompleted, mentorID, menteeID, m.ID)
	return m, nil
}

// HostEvent records a community event run by hostID. The reference is the
// caller's id for the event, so a retried request is rejected as a duplicate.
func (s *Service) HostEvent(ctx context.Context, hostID uuid.UUID, req in.HostEventRequest) (*domain.Milestone, error) {
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return nil, apperr.MissingField("title")
	case len(title) > maxTitleLength:
		return nil, apperr.InvalidInput("title", "must be at most 200 characters")
	}
	ref, err := validReference("reference", req.Reference)
	if err != nil {
		return nil, err
	}

	now := s.now()
	occurred := req.HeldAt
	switch {
	case occurred.IsZero():
		occurred = now
	case occurred.After(now):
		return nil, apperr.InvalidInput("held_at", "must not be in the future")
	}

	m := &domain.Milestone{
		Kind:       domain.MilestoneEventHost,
		UserID:     hostID,
		Reference:  ref,
		Title:      title,
		OccurredAt: occurred,
		CreatedAt:  now,
	}
	if err := s.recordMilestone(ctx, m, "event already recorded"); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventHosted, hostID, uuid.Nil, m.ID)
	return m, nil
}

// Milestones lists a member's sessions and hosted events, newest first.
func (s *Service) Milestones(ctx context.Context, userID uuid.UUID, kind domain.MilestoneKind, limit int) ([]*domain.Milestone, error) {
	switch kind {
	case "", domain.MilestoneMentorship, domain.MilestoneEventHost:
	default:
		return nil, apperr.InvalidInput("kind", "unknown milestone kind")
	}
	milestones, err := s.milestones.ListByUser(ctx, userID, kind, limit)
	if err != nil {
		return nil, apperr.DatabaseError("list milestones", err)
	}
	return milestones, nil
}

func (s *Service) recordMilestone(ctx context.Context, m *domain.Milestone, duplicate string) error {
	added, err := s.milestones.Record(ctx, m)
	if err != nil {
		return apperr.DatabaseError("record milestone", err)
	}
	if !added {
		return apperr.Duplicate(duplicate)
	}
	return nil
}

func validReference(field, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", apperr.MissingField(field)
	case len(ref) > maxReferenceLength:
		return "", apperr.InvalidInput(field, "must be at most 128 characters")
	}
	return ref, nil
}

// Trending ranks the last week's posts by engagement score.
func (s *Service) Trending(ctx context.Context, limit int) ([]*domain.CommunityPost, error) {
	posts, err := s.posts.Trending(ctx, s.now().Add(-trendingWindow), limit)
	if err != nil {
		return nil, apperr.DatabaseError("trending posts", err)
	}
	return posts, nil
}

func (s *Service) activePost(ctx context.Context, postID string) (*domain.CommunityPost, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, apperr.DatabaseError("get post", err)
	}
	if post == nil || post.Status != domain.PostActive {
		return nil, apperr.NotFound("post")
	}
	return post, nil
}

// publish runs after the primary write. A lost event under-counts
// reputation; the write itself stands.
func (s *Service) publish(ctx context.Context, typ domain.EventType, actor, target uuid.UUID, sourceID string) {
	id, err := s.ids.Generate()
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("event id generation failed")
		return
	}
	ev := &domain.DomainEvent{
		ID:           id,
		Type:         typ,
		ActorID:      actor,
		TargetUserID: target,
		SourceID:     sourceID,
		OccurredAt:   s.now(),
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("event_id", id).Error("domain event publish failed: %s", typ)
	}
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, v)
	}
	return cleaned
}
