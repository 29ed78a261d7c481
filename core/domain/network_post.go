package domain

import (
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostActive  PostStatus = "active"
	PostDeleted PostStatus = "deleted"
)

type PostCategory string

const (
	PostCategoryQuestion   PostCategory = "question"
	PostCategoryDiscussion PostCategory = "discussion"
	PostCategoryAdvice     PostCategory = "advice"
	PostCategoryShowcase   PostCategory = "showcase"
	PostCategoryNews       PostCategory = "news"
)

func (c PostCategory) Valid() bool {
	switch c {
	case PostCategoryQuestion, PostCategoryDiscussion, PostCategoryAdvice, PostCategoryShowcase, PostCategoryNews:
		return true
	}
	return false
}

type CommunityPost struct {
	ID                 string       `json:"id"`
	AuthorID           uuid.UUID    `json:"author_id"`
	Title              string       `json:"title"`
	Content            string       `json:"content"`
	Category           PostCategory `json:"category"`
	Tags               []string     `json:"tags,omitempty"`
	Industry           string       `json:"industry,omitempty"`
	SkillLevel         string       `json:"skill_level,omitempty"`
	RelatedSkills      []string     `json:"related_skills,omitempty"`
	Likes              int          `json:"likes"`
	HelpfulVotes       int          `json:"helpful_votes"`
	ExpertEndorsements int          `json:"expert_endorsements"`
	Bookmarks          int          `json:"bookmarks"`
	Shares             int          `json:"shares"`
	Views              int          `json:"views"`
	Comments           int          `json:"comments"`
	Status             PostStatus   `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// EngagementScore weights votes above likes: likes + 2*helpful + 3*expert.
func (p *CommunityPost) EngagementScore() int {
	return EngagementScore(p.Likes, p.HelpfulVotes, p.ExpertEndorsements)
}

func EngagementScore(likes, helpful, expert int) int {
	return likes + 2*helpful + 3*expert
}

// PostReaction is a one-per-user reaction on a post.
type PostReaction string

const (
	ReactionLike    PostReaction = "like"
	ReactionHelpful PostReaction = "helpful"
	ReactionEndorse PostReaction = "endorse"
)

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MilestoneKind names a contribution recorded outside of posts.
type MilestoneKind string

const (
	MilestoneMentorship MilestoneKind = "mentorship_session"
	MilestoneEventHost  MilestoneKind = "event_hosted"
)

// Milestone is a completed mentorship session or a hosted community event.
// UserID is the member credited. ConfirmedBy is the mentee for a session
// and nil for hosted events. Reference is unique per kind and user.
type Milestone struct {
	ID          string        `json:"id"`
	Kind        MilestoneKind `json:"kind"`
	UserID      uuid.UUID     `json:"user_id"`
	ConfirmedBy uuid.UUID     `json:"confirmed_by"`
	Reference   string        `json:"reference"`
	Title       string        `json:"title,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
	CreatedAt   time.Time     `json:"created_at"`
}
