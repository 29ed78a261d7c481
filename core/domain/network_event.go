package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event emitted after a primary write.
type EventType string

const (
	EventPostCreated         EventType = "post_created"
	EventCommentWritten      EventType = "comment_written"
	EventPostLiked           EventType = "post_liked"
	EventHelpfulVote         EventType = "helpful_vote"
	EventExpertEndorsement   EventType = "expert_endorsement"
	EventMentorshipCompleted EventType = "mentorship_completed"
	EventHosted              EventType = "event_hosted"
	EventConnectionAccepted  EventType = "connection_accepted"
)

// DomainEvent carries who acted and, for received awards, whose content was
// acted on. ID is a snowflake and keys every idempotent side effect.
type DomainEvent struct {
	ID           int64     `json:"id"`
	Type         EventType `json:"type"`
	ActorID      uuid.UUID `json:"actor_id"`
	TargetUserID uuid.UUID `json:"target_user_id,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
