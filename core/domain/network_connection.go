package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Connection - directed request, undirected once accepted
// =============================================================================

type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionAccepted  ConnectionStatus = "accepted"
	ConnectionRejected  ConnectionStatus = "rejected"
	ConnectionCancelled ConnectionStatus = "cancelled"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionRejected, ConnectionCancelled:
		return true
	}
	return false
}

type Connection struct {
	ID          uuid.UUID        `json:"id"`
	RequesterID uuid.UUID        `json:"requester_id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Status      ConnectionStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsActive reports whether the edge blocks a new request between the pair.
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionPending || c.Status == ConnectionAccepted
}

func (c *Connection) Involves(userID uuid.UUID) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// Other returns the counterpart of userID on this edge.
func (c *Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

type Follow struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Candidate is a recommendation pool entry: a user not yet connected to the
// viewer, with the number of accepted connections both share.
type Candidate struct {
	User              *User `json:"user"`
	MutualConnections int   `json:"mutual_connections"`
}

// =============================================================================
// Interaction stats & strength
// =============================================================================

type InteractionKind string

const (
	InteractionMessage           InteractionKind = "message"
	InteractionSharedApplication InteractionKind = "shared_application"
	InteractionEndorsement       InteractionKind = "skill_endorsement"
	InteractionProfileView       InteractionKind = "profile_view"
	InteractionContent           InteractionKind = "content_interaction"
)

func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionMessage, InteractionSharedApplication, InteractionEndorsement,
		InteractionProfileView, InteractionContent:
		return true
	}
	return false
}

// InteractionStats are counters kept per unordered user pair.
type InteractionStats struct {
	MessageCount          int        `json:"message_count"`
	MutualConnections     int        `json:"mutual_connections"`
	SharedJobApplications int        `json:"shared_job_applications"`
	SkillEndorsements     int        `json:"skill_endorsements"`
	ProfileViews          int        `json:"profile_views"`
	ContentInteractions   int        `json:"content_interactions"`
	LastInteraction       *time.Time `json:"last_interaction,omitempty"`
}

type StrengthStyle string

const (
	// StrengthDetailed labels bands Strong / Good / Moderate / Weak.
	StrengthDetailed StrengthStyle = "detailed"
	// StrengthCompact labels bands Strong / Moderate / Weak / Weak.
	StrengthCompact StrengthStyle = "compact"
)

const (
	StrengthStrongMin   = 80
	StrengthGoodMin     = 60
	StrengthModerateMin = 40
)

// StrengthLabel maps a strength value onto its band label.
func StrengthLabel(value int, style StrengthStyle) string {
	detailed := style != StrengthCompact
	switch {
	case value >= StrengthStrongMin:
		return "Strong"
	case value >= StrengthGoodMin:
		if detailed {
			return "Good"
		}
		return "Moderate"
	case value >= StrengthModerateMin:
		if detailed {
			return "Moderate"
		}
		return "Weak"
	default:
		return "Weak"
	}
}

type ConnectionStrength struct {
	UserID      uuid.UUID      `json:"user_id"`
	OtherUserID uuid.UUID      `json:"other_user_id"`
	Value       int            `json:"value"`
	Label       string         `json:"label"`
	Factors     map[string]int `json:"factors"`
}
