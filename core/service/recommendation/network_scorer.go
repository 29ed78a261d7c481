// Package recommendation ranks people a user may want to connect with.
package recommendation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"network_server/core/domain"

	"github.com/google/uuid"
)

// =============================================================================
// Scoring weights
// =============================================================================
//
// score = mutual + skills + location + company, capped at 100.

const (
	MutualPointsPer = 5
	MutualPointsMax = 30

	SkillPointsPer = 5
	SkillPointsMax = 25

	SameLocationPoints = 15
	SameCompanyPoints  = 20
)

// Scorer is pure: it never touches storage and filters nothing except the
// target itself and empty pool entries.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Score computes one candidate's score and the reasons that produced it.
func (s *Scorer) Score(target *domain.User, candidate domain.Candidate) domain.ConnectionRecommendation {
	rec := domain.ConnectionRecommendation{
		ID:              domain.RecommendationID(target.ID, candidate.User.ID),
		UserID:          target.ID,
		RecommendedUser: candidate.User.Summary(),
		Reasons:         make([]domain.RecommendationReason, 0, 4),
		CreatedAt:       s.now(),
	}

	total := 0

	if pts := domain.CappedPoints(candidate.MutualConnections, MutualPointsPer, MutualPointsMax); pts > 0 {
		rec.Reasons = append(rec.Reasons, domain.RecommendationReason{
			Type:   domain.ReasonMutualConnections,
			Detail: mutualDetail(candidate.MutualConnections),
			Points: pts,
		})
		total += pts
	}

	shared := SharedSkills(target.Skills, candidate.User.Skills)
	if pts := domain.CappedPoints(len(shared), SkillPointsPer, SkillPointsMax); pts > 0 {
		rec.Reasons = append(rec.Reasons, domain.RecommendationReason{
			Type:   domain.ReasonSharedSkills,
			Detail: fmt.Sprintf("%d shared skills: %s", len(shared), strings.Join(shared, ", ")),
			Points: pts,
		})
		total += pts
	}

	if sameLocation(target.Location, candidate.User.Location) {
		rec.Reasons = append(rec.Reasons, domain.RecommendationReason{
			Type:   domain.ReasonSameLocation,
			Detail: "Both in " + strings.TrimSpace(candidate.User.Location),
			Points: SameLocationPoints,
		})
		total += SameLocationPoints
	}

	if sameCompany(target.Company, candidate.User.Company) {
		rec.Reasons = append(rec.Reasons, domain.RecommendationReason{
			Type:   domain.ReasonSameCompany,
			Detail: "Both work at " + strings.TrimSpace(candidate.User.Company),
			Points: SameCompanyPoints,
		})
		total += SameCompanyPoints
	}

	rec.Score = domain.ClampScore(total)
	return rec
}

// Rank scores the pool and orders it by score, highest first. Equal scores
// keep their pool order.
func (s *Scorer) Rank(target *domain.User, pool []domain.Candidate) []domain.ConnectionRecommendation {
	recs := make([]domain.ConnectionRecommendation, 0, len(pool))
	seen := make(map[uuid.UUID]bool, len(pool))

	for _, c := range pool {
		if c.User == nil || c.User.ID == target.ID || seen[c.User.ID] {
			continue
		}
		seen[c.User.ID] = true
		recs = append(recs, s.Score(target, c))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}

// SharedSkills returns the target's skills that match any candidate skill,
// case-insensitively, when either string contains the other.
func SharedSkills(target, candidate []string) []string {
	var shared []string
	seen := make(map[string]bool)

	for _, ts := range target {
		t := strings.ToLower(strings.TrimSpace(ts))
		if t == "" || seen[t] {
			continue
		}
		for _, cs := range candidate {
			c := strings.ToLower(strings.TrimSpace(cs))
			if c == "" {
				continue
			}
			if strings.Contains(t, c) || strings.Contains(c, t) {
				shared = append(shared, strings.TrimSpace(ts))
				seen[t] = true
				break
			}
		}
	}
	return shared
}

func sameLocation(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func sameCompany(a, b string) bool {
	na := domain.NormalizeCompany(a)
	return na != "" && na == domain.NormalizeCompany(b)
}

func mutualDetail(n int) string {
	if n == 1 {
		return "1 mutual connection"
	}
	return fmt.Sprintf("%d mutual connections", n)
}
