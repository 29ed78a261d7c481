package domain

import "time"

type RequirementType string

const (
	RequirementPoints     RequirementType = "points"
	RequirementPosts      RequirementType = "posts"
	RequirementComments   RequirementType = "comments"
	RequirementLikes      RequirementType = "likes"
	RequirementHelpful    RequirementType = "helpful"
	RequirementExpert     RequirementType = "expert"
	RequirementMentorship RequirementType = "mentorship"
	RequirementEvents     RequirementType = "events"
)

// Counter returns the contribution counter a requirement reads. Points
// requirements read TotalPoints and return false.
func (t RequirementType) Counter() (ContributionCounter, bool) {
	switch t {
	case RequirementPosts:
		return CounterPostsCreated, true
	case RequirementComments:
		return CounterCommentsWritten, true
	case RequirementLikes:
		return CounterPostsLiked, true
	case RequirementHelpful:
		return CounterHelpfulVotes, true
	case RequirementExpert:
		return CounterExpertAnswers, true
	case RequirementMentorship:
		return CounterMentorshipSessions, true
	case RequirementEvents:
		return CounterEventsHosted, true
	}
	return "", false
}

type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
	TimeframeAllTime Timeframe = "alltime"
)

// Window is the rolling look-back for a timeframe; zero for alltime.
func (t Timeframe) Window() time.Duration {
	switch t {
	case TimeframeDaily:
		return 24 * time.Hour
	case TimeframeWeekly:
		return 7 * 24 * time.Hour
	case TimeframeMonthly:
		return 30 * 24 * time.Hour
	case TimeframeYearly:
		return 365 * 24 * time.Hour
	}
	return 0
}

type BadgeCategory string

const (
	BadgeCategoryParticipation BadgeCategory = "participation"
	BadgeCategoryExpertise     BadgeCategory = "expertise"
	BadgeCategoryCommunity     BadgeCategory = "community"
	BadgeCategoryMilestone     BadgeCategory = "milestone"
)

type BadgeRequirement struct {
	Type      RequirementType `json:"type"`
	Value     int             `json:"value"`
	Timeframe Timeframe       `json:"timeframe"`
}

type Badge struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Category     BadgeCategory    `json:"category"`
	Icon         string           `json:"icon,omitempty"`
	Requirement  BadgeRequirement `json:"requirement"`
	IsRare       bool             `json:"is_rare"`
	AwardedCount int              `json:"awarded_count"`
}

// DefaultBadges is the catalog seeded on startup. IDs are stable slugs.
func DefaultBadges() []Badge {
	return []Badge{
		{ID: "first-post", Name: "First Post", Description: "Published a first community post", Category: BadgeCategoryParticipation, Icon: "pencil", Requirement: BadgeRequirement{Type: RequirementPosts, Value: 1, Timeframe: TimeframeAllTime}},
		{ID: "prolific-writer", Name: "Prolific Writer", Description: "Published 25 community posts", Category: BadgeCategoryParticipation, Icon: "book", Requirement: BadgeRequirement{Type: RequirementPosts, Value: 25, Timeframe: TimeframeAllTime}},
		{ID: "conversationalist", Name: "Conversationalist", Description: "Wrote 50 comments", Category: BadgeCategoryCommunity, Icon: "chat", Requirement: BadgeRequirement{Type: RequirementComments, Value: 50, Timeframe: TimeframeAllTime}},
		{ID: "supporter", Name: "Supporter", Description: "Liked 100 posts", Category: BadgeCategoryCommunity, Icon: "heart", Requirement: BadgeRequirement{Type: RequirementLikes, Value: 100, Timeframe: TimeframeAllTime}},
		{ID: "helpful-hand", Name: "Helpful Hand", Description: "Received 10 helpful votes", Category: BadgeCategoryExpertise, Icon: "hand", Requirement: BadgeRequirement{Type: RequirementHelpful, Value: 10, Timeframe: TimeframeAllTime}},
		{ID: "recognized-expert", Name: "Recognized Expert", Description: "Received 5 expert endorsements", Category: BadgeCategoryExpertise, Icon: "star", Requirement: BadgeRequirement{Type: RequirementExpert, Value: 5, Timeframe: TimeframeAllTime}, IsRare: true},
		{ID: "mentor", Name: "Mentor", Description: "Completed 5 mentorship sessions", Category: BadgeCategoryCommunity, Icon: "compass", Requirement: BadgeRequirement{Type: RequirementMentorship, Value: 5, Timeframe: TimeframeAllTime}},
		{ID: "host", Name: "Host", Description: "Hosted 3 community events", Category: BadgeCategoryCommunity, Icon: "calendar", Requirement: BadgeRequirement{Type: RequirementEvents, Value: 3, Timeframe: TimeframeAllTime}},
		{ID: "rising-star", Name: "Rising Star", Description: "Reached 100 reputation points", Category: BadgeCategoryMilestone, Icon: "rocket", Requirement: BadgeRequirement{Type: RequirementPoints, Value: 100, Timeframe: TimeframeAllTime}},
		{ID: "community-pillar", Name: "Community Pillar", Description: "Reached 1000 reputation points", Category: BadgeCategoryMilestone, Icon: "trophy", Requirement: BadgeRequirement{Type: RequirementPoints, Value: 1000, Timeframe: TimeframeAllTime}, IsRare: true},
		{ID: "daily-contributor", Name: "Daily Contributor", Description: "Published 3 posts within a day", Category: BadgeCategoryParticipation, Icon: "sun", Requirement: BadgeRequirement{Type: RequirementPosts, Value: 3, Timeframe: TimeframeDaily}},
		{ID: "weekly-helper", Name: "Weekly Helper", Description: "Earned 50 points within a week", Category: BadgeCategoryMilestone, Icon: "flame", Requirement: BadgeRequirement{Type: RequirementPoints, Value: 50, Timeframe: TimeframeWeekly}},
		{ID: "monthly-expert", Name: "Monthly Expert", Description: "Received 3 expert endorsements within a month", Category: BadgeCategoryExpertise, Icon: "medal", Requirement: BadgeRequirement{Type: RequirementExpert, Value: 3, Timeframe: TimeframeMonthly}, IsRare: true},
	}
}
