package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type ReputationSource string

const (
	SourcePost              ReputationSource = "post"
	SourceComment           ReputationSource = "comment"
	SourceLike              ReputationSource = "like"
	SourceHelpfulVote       ReputationSource = "helpful_vote"
	SourceExpertEndorsement ReputationSource = "expert_endorsement"
	SourceMentorship        ReputationSource = "mentorship"
	SourceEvent             ReputationSource = "event"
	SourceSystem            ReputationSource = "system"
)

// ContributionCounter names a field of Contributions. Values double as the
// document field names.
type ContributionCounter string

const (
	CounterPostsCreated       ContributionCounter = "posts_created"
	CounterCommentsWritten    ContributionCounter = "comments_written"
	CounterPostsLiked         ContributionCounter = "posts_liked"
	CounterHelpfulVotes       ContributionCounter = "helpful_votes"
	CounterExpertAnswers      ContributionCounter = "expert_answers"
	CounterMentorshipSessions ContributionCounter = "mentorship_sessions"
	CounterEventsHosted       ContributionCounter = "events_hosted"
)

func (c ContributionCounter) Valid() bool {
	switch c {
	case CounterPostsCreated, CounterCommentsWritten, CounterPostsLiked, CounterHelpfulVotes,
		CounterExpertAnswers, CounterMentorshipSessions, CounterEventsHosted:
		return true
	}
	return false
}

type Contributions struct {
	PostsCreated       int `json:"posts_created"`
	CommentsWritten    int `json:"comments_written"`
	PostsLiked         int `json:"posts_liked"`
	HelpfulVotes       int `json:"helpful_votes"`
	ExpertAnswers      int `json:"expert_answers"`
	MentorshipSessions int `json:"mentorship_sessions"`
	EventsHosted       int `json:"events_hosted"`
}

func (c Contributions) Get(counter ContributionCounter) int {
	switch counter {
	case CounterPostsCreated:
		return c.PostsCreated
	case CounterCommentsWritten:
		return c.CommentsWritten
	case CounterPostsLiked:
		return c.PostsLiked
	case CounterHelpfulVotes:
		return c.HelpfulVotes
	case CounterExpertAnswers:
		return c.ExpertAnswers
	case CounterMentorshipSessions:
		return c.MentorshipSessions
	case CounterEventsHosted:
		return c.EventsHosted
	}
	return 0
}

type ReputationEntry struct {
	ID        int64            `json:"id"`
	EventID   int64            `json:"event_id,omitempty"`
	Points    int              `json:"points"`
	Reason    string           `json:"reason"`
	Source    ReputationSource `json:"source"`
	SourceID  string           `json:"source_id,omitempty"`
	Action    EventType        `json:"action,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type Reputation struct {
	UserID        uuid.UUID         `json:"user_id"`
	TotalPoints   int               `json:"total_points"`
	Level         int               `json:"level"`
	Badges        []string          `json:"badges"`
	Contributions Contributions     `json:"contributions"`
	History       []ReputationEntry `json:"history,omitempty"`
	LastActivity  time.Time         `json:"last_activity"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (r *Reputation) HasBadge(badgeID string) bool {
	for _, b := range r.Badges {
		if b == badgeID {
			return true
		}
	}
	return false
}

const MaxLevel = 100

// LevelForPoints returns floor(sqrt(points/100)) + 1, between 1 and MaxLevel.
func LevelForPoints(points int) int {
	if points <= 0 {
		return 1
	}
	level := int(math.Floor(math.Sqrt(float64(points)/100))) + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// PointsForLevel is the smallest total that reaches level.
func PointsForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * (level - 1) * (level - 1)
}

type LevelProgress struct {
	Level          int `json:"level"`
	TotalPoints    int `json:"total_points"`
	NextLevel      int `json:"next_level"`
	PointsToNext   int `json:"points_to_next"`
	LevelStartedAt int `json:"level_started_at"`
}

// Progress describes how far points are from the next level. Level is the
// stored level, which may exceed the formula after a points correction.
func Progress(level, points int) LevelProgress {
	if level < 1 {
		level = 1
	}
	if level >= MaxLevel {
		return LevelProgress{Level: MaxLevel, TotalPoints: points, NextLevel: MaxLevel, LevelStartedAt: PointsForLevel(MaxLevel)}
	}
	next := level + 1
	toNext := PointsForLevel(next) - points
	if toNext < 0 {
		toNext = 0
	}
	return LevelProgress{
		Level:          level,
		TotalPoints:    points,
		NextLevel:      next,
		PointsToNext:   toNext,
		LevelStartedAt: PointsForLevel(level),
	}
}
