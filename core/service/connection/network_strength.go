// Package connection manages connection and follow edges and scores how
// strong an accepted connection is.
package connection

import (
	"time"

	"network_server/core/domain"
)

// =============================================================================
// Strength factors
// =============================================================================
//
// Each factor is capped on its own; the sum is capped at 100.
//
//	messages              2/message      max 25
//	mutual connections    4/connection   max 20
//	shared applications   5/job          max 10
//	skill endorsements    2/endorsement  max 10
//	content interactions  1/interaction  max 10
//	profile views         1/view         max 5
//	recency               20 / 12 / 5 / 0 for <=7d / <=30d / <=90d / older

const (
	FactorMessages     = "messages"
	FactorMutual       = "mutual_connections"
	FactorApplications = "shared_applications"
	FactorEndorsements = "skill_endorsements"
	FactorContent      = "content_interactions"
	FactorProfileViews = "profile_views"
	FactorRecency      = "recency"
)

const (
	recencyWeekPoints    = 20
	recencyMonthPoints   = 12
	recencyQuarterPoints = 5
)

// CalculateStrength scores interaction stats at time now.
func CalculateStrength(stats domain.InteractionStats, now time.Time) (int, map[string]int) {
	factors := map[string]int{
		FactorMessages:     domain.CappedPoints(stats.MessageCount, 2, 25),
		FactorMutual:       domain.CappedPoints(stats.MutualConnections, 4, 20),
		FactorApplications: domain.CappedPoints(stats.SharedJobApplications, 5, 10),
		FactorEndorsements: domain.CappedPoints(stats.SkillEndorsements, 2, 10),
		FactorContent:      domain.CappedPoints(stats.ContentInteractions, 1, 10),
		FactorProfileViews: domain.CappedPoints(stats.ProfileViews, 1, 5),
		FactorRecency:      recencyPoints(stats.LastInteraction, now),
	}

	total := 0
	for _, v := range factors {
		total += v
	}
	return domain.ClampScore(total), factors
}

func recencyPoints(last *time.Time, now time.Time) int {
	if last == nil || last.IsZero() {
		return 0
	}
	age := now.Sub(*last)
	switch {
	case age <= 7*24*time.Hour:
		return recencyWeekPoints
	case age <= 30*24*time.Hour:
		return recencyMonthPoints
	case age <= 90*24*time.Hour:
		return recencyQuarterPoints
	default:
		return 0
	}
}
