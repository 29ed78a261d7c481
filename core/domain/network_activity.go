package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityModule string

const (
	ModuleJobs        ActivityModule = "jobs"
	ModuleCommunity   ActivityModule = "community"
	ModuleConnections ActivityModule = "connections"
	ModuleReputation  ActivityModule = "reputation"
)

type ActivityEvent struct {
	ID          int64          `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Module      ActivityModule `json:"module"`
	Action      EventType      `json:"action"`
	TargetID    string         `json:"target_id,omitempty"`
	ImpactScore int            `json:"impact_score"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Fixed relevance per feed section. Sections are never re-ranked against
// each other.
const (
	RelevanceJob        = 85
	RelevanceConnection = 75
	RelevanceCommunity  = 70
)

type FeedItemType string

const (
	FeedJobRecommendation        FeedItemType = "job_recommendation"
	FeedConnectionRecommendation FeedItemType = "connection_recommendation"
	FeedCommunityRecommendation  FeedItemType = "community_recommendation"
)

type FeedItem struct {
	Type         FeedItemType   `json:"type"`
	SourceModule ActivityModule `json:"source_module"`
	TargetModule ActivityModule `json:"target_module"`
	TargetID     string         `json:"target_id"`
	Title        string         `json:"title"`
	Reason       string         `json:"reason"`
	Relevance    int            `json:"relevance"`
	Data         any            `json:"data,omitempty"`
}

type Feed struct {
	UserID      uuid.UUID  `json:"user_id"`
	Jobs        []FeedItem `json:"jobs"`
	Connections []FeedItem `json:"connections"`
	Community   []FeedItem `json:"community"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Items concatenates the sections in job, connection, community order.
func (f *Feed) Items() []FeedItem {
	items := make([]FeedItem, 0, len(f.Jobs)+len(f.Connections)+len(f.Community))
	items = append(items, f.Jobs...)
	items = append(items, f.Connections...)
	items = append(items, f.Community...)
	return items
}
