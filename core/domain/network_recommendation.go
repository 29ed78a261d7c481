package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReasonType string

const (
	ReasonMutualConnections ReasonType = "mutual_connections"
	ReasonSharedSkills      ReasonType = "shared_skills"
	ReasonSameLocation      ReasonType = "same_location"
	ReasonSameCompany       ReasonType = "same_company"
)

type RecommendationReason struct {
	Type   ReasonType `json:"type"`
	Detail string     `json:"detail"`
	Points int        `json:"points"`
}

type ConnectionRecommendation struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	RecommendedUser UserSummary            `json:"recommended_user"`
	Reasons         []RecommendationReason `json:"reasons"`
	Score           int                    `json:"score"`
	CreatedAt       time.Time              `json:"created_at"`
}

var recommendationNamespace = uuid.MustParse("6f1c9f3e-2b7a-4d4e-9a51-0c5d3f1e8b20")

// RecommendationID is stable for a (viewer, candidate) pair so a dismissal
// can reference the recommendation without it being persisted.
func RecommendationID(viewerID, candidateID uuid.UUID) uuid.UUID {
	name := make([]byte, 0, 32)
	name = append(name, viewerID[:]...)
	name = append(name, candidateID[:]...)
	return uuid.NewSHA1(recommendationNamespace, name)
}

// Dismissal hides a candidate from a viewer's recommendations until ExpiresAt.
type Dismissal struct {
	ViewerID    uuid.UUID `json:"viewer_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	DismissedAt time.Time `json:"dismissed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
