// Package reputation awards points for community actions and derives levels.
package reputation

import (
	"network_server/core/domain"

	"github.com/google/uuid"
)

// Beneficiary selects whose reputation an action changes.
type Beneficiary int

const (
	// Actor: the user who performed the action (post author, liker).
	Actor Beneficiary = iota
	// Target: the user whose content received the action.
	Target
)

// Action is one row of the point table.
type Action struct {
	Event       domain.EventType
	Points      int
	Reason      string
	Source      domain.ReputationSource
	Counter     domain.ContributionCounter
	Beneficiary Beneficiary
}

var actions = map[domain.EventType]Action{
	domain.EventPostCreated: {
		Event: domain.EventPostCreated, Points: 5, Reason: "post created",
		Source: domain.SourcePost, Counter: domain.CounterPostsCreated, Beneficiary: Actor,
	},
	domain.EventCommentWritten: {
		Event: domain.EventCommentWritten, Points: 2, Reason: "comment written",
		Source: domain.SourceComment, Counter: domain.CounterCommentsWritten, Beneficiary: Actor,
	},
	domain.EventPostLiked: {
		Event: domain.EventPostLiked, Points: 1, Reason: "like given",
		Source: domain.SourceLike, Counter: domain.CounterPostsLiked, Beneficiary: Actor,
	},
	domain.EventHelpfulVote: {
		Event: domain.EventHelpfulVote, Points: 3, Reason: "helpful vote received",
		Source: domain.SourceHelpfulVote, Counter: domain.CounterHelpfulVotes, Beneficiary: Target,
	},
	domain.EventExpertEndorsement: {
		Event: domain.EventExpertEndorsement, Points: 10, Reason: "expert endorsement received",
		Source: domain.SourceExpertEndorsement, Counter: domain.CounterExpertAnswers, Beneficiary: Target,
	},
	domain.EventMentorshipCompleted: {
		Event: domain.EventMentorshipCompleted, Points: 0, Reason: "mentorship session completed",
		Source: domain.SourceMentorship, Counter: domain.CounterMentorshipSessions, Beneficiary: Actor,
	},
	domain.EventHosted: {
		Event: domain.EventHosted, Points: 0, Reason: "community event hosted",
		Source: domain.SourceEvent, Counter: domain.CounterEventsHosted, Beneficiary: Actor,
	},
}

// ActionFor returns the point table row for an event type.
func ActionFor(t domain.EventType) (Action, bool) {
	a, ok := actions[t]
	return a, ok
}

// EventForRequirement maps a badge requirement to the history action it
// counts. Points requirements sum history points instead.
func EventForRequirement(t domain.RequirementType) (domain.EventType, bool) {
	counter, ok := t.Counter()
	if !ok {
		return "", false
	}
	for _, a := range actions {
		if a.Counter == counter {
			return a.Event, true
		}
	}
	return "", false
}

// BeneficiaryOf resolves who an event rewards.
func (a Action) BeneficiaryOf(ev *domain.DomainEvent) uuid.UUID {
	if a.Beneficiary == Target {
		return ev.TargetUserID
	}
	return ev.ActorID
}

// ReceivedFromSelf reports an award a user would be giving to themselves.
func (a Action) ReceivedFromSelf(ev *domain.DomainEvent) bool {
	return a.Beneficiary == Target && ev.ActorID == ev.TargetUserID
}
