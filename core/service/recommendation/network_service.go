package recommendation

import (
	"context"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type Config struct {
	Limit        int
	PoolSize     int
	CacheTTL     time.Duration
	DismissalTTL time.Duration
}

// Service assembles the candidate pool from the graph and profile stores,
// removes excluded users and hands the rest to the Scorer.
type Service struct {
	profiles   out.ProfileRepository
	graph      out.ConnectionGraph
	dismissals out.DismissalRepository
	cache      out.Cache
	scorer     *Scorer
	cfg        Config
	now        func() time.Time
}

func NewService(
	profiles out.ProfileRepository,
	graph out.ConnectionGraph,
	dismissals out.DismissalRepository,
	cache out.Cache,
	cfg Config,
) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 200
	}
	if cfg.DismissalTTL <= 0 {
		cfg.DismissalTTL = 90 * 24 * time.Hour
	}
	return &Service{
		profiles:   profiles,
		graph:      graph,
		dismissals: dismissals,
		cache:      cache,
		scorer:     NewScorer(),
		cfg:        cfg,
		now:        time.Now,
	}
}

func cacheKey(viewerID uuid.UUID) string {
	return "recs:" + viewerID.String()
}

// Recommend returns up to limit ranked recommendations for viewerID.
func (s *Service) Recommend(ctx context.Context, viewerID uuid.UUID, limit int) ([]domain.ConnectionRecommendation, error) {
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if s.cache != nil {
		var cached []domain.ConnectionRecommendation
		hit, err := s.cache.GetJSON(ctx, cacheKey(viewerID), &cached)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Warn("recommendation cache read failed")
		} else if hit {
			return truncate(cached, limit), nil
		}
	}

	viewer, err := s.profiles.GetByID(ctx, viewerID)
	if err != nil {
		return nil, apperr.DatabaseError("get profile", err)
	}
	if viewer == nil {
		return nil, apperr.NotFound("user")
	}

	pool, err := s.candidatePool(ctx, viewer)
	if err != nil {
		return nil, err
	}

	ranked := truncate(s.scorer.Rank(viewer, pool), maxLimit)

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, cacheKey(viewerID), ranked, s.cfg.CacheTTL); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("recommendation cache write failed")
		}
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"pool":   len(pool),
		"ranked": len(ranked),
	}).Debug("recommendations computed for %s", viewerID)

	return truncate(ranked, limit), nil
}

// candidatePool merges friend-of-friend suggestions with profile-similar
// users. Connected, pending, dismissed and inactive users never enter it.
func (s *Service) candidatePool(ctx context.Context, viewer *domain.User) ([]domain.Candidate, error) {
	excluded := map[uuid.UUID]bool{viewer.ID: true}

	linked, err := s.graph.ConnectedOrPendingIDs(ctx, viewer.ID)
	if err != nil {
		return nil, apperr.DatabaseError("list linked users", err)
	}
	for _, id := range linked {
		excluded[id] = true
	}

	dismissed, err := s.dismissals.ActiveCandidateIDs(ctx, viewer.ID, s.now())
	if err != nil {
		return nil, apperr.DatabaseError("list dismissals", err)
	}
	for _, id := range dismissed {
		excluded[id] = true
	}

	suggestions, err := s.graph.SuggestCandidates(ctx, viewer.ID, s.cfg.PoolSize)
	if err != nil {
		return nil, apperr.DatabaseError("suggest candidates", err)
	}

	mutual := make(map[uuid.UUID]int, len(suggestions))
	order := make([]uuid.UUID, 0, len(suggestions))
	for _, sg := range suggestions {
		if excluded[sg.UserID] {
			continue
		}
		if _, dup := mutual[sg.UserID]; dup {
			continue
		}
		mutual[sg.UserID] = sg.MutualConnections
		order = append(order, sg.UserID)
	}

	fofUsers, err := s.profiles.GetByIDs(ctx, order)
	if err != nil {
		return nil, apperr.DatabaseError("get profiles", err)
	}
	byID := make(map[uuid.UUID]*domain.User, len(fofUsers))
	for _, u := range fofUsers {
		byID[u.ID] = u
	}

	pool := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		u, ok := byID[id]
		if !ok || !u.Active {
			continue
		}
		pool = append(pool, domain.Candidate{User: u, MutualConnections: mutual[id]})
	}

	skip := make([]uuid.UUID, 0, len(excluded)+len(order))
	for id := range excluded {
		skip = append(skip, id)
	}
	skip = append(skip, order...)

	similar, err := s.profiles.FindSimilar(ctx, viewer, skip, s.cfg.PoolSize)
	if err != nil {
		return nil, apperr.DatabaseError("find similar profiles", err)
	}

	// The suggestion list was cut at PoolSize, so users past the cut may
	// still share connections with the viewer.
	var extraMutual map[uuid.UUID]int
	if len(suggestions) >= s.cfg.PoolSize && len(similar) > 0 {
		ids := make([]uuid.UUID, len(similar))
		for i, u := range similar {
			ids[i] = u.ID
		}
		extraMutual, err = s.graph.MutualCounts(ctx, viewer.ID, ids)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Warn("mutual counts unavailable, scoring without them")
		}
	}

	for _, u := range similar {
		if excluded[u.ID] || !u.Active {
			continue
		}
		if _, dup := mutual[u.ID]; dup {
			continue
		}
		pool = append(pool, domain.Candidate{User: u, MutualConnections: extraMutual[u.ID]})
	}

	return pool, nil
}

// Dismiss hides candidateID from viewerID's recommendations until the
// dismissal expires.
func (s *Service) Dismiss(ctx context.Context, viewerID, candidateID uuid.UUID) (*domain.Dismissal, error) {
	if viewerID == candidateID {
		return nil, apperr.SelfAction("dismiss")
	}

	candidate, err := s.profiles.GetByID(ctx, candidateID)
	if err != nil {
		return nil, apperr.DatabaseError("get profile", err)
	}
	if candidate == nil {
		return nil, apperr.NotFound("user")
	}

	now := s.now()
	d := &domain.Dismissal{
		ViewerID:    viewerID,
		CandidateID: candidateID,
		DismissedAt: now,
		ExpiresAt:   now.Add(s.cfg.DismissalTTL),
	}
	if err := s.dismissals.Dismiss(ctx, d); err != nil {
		return nil, apperr.DatabaseError("dismiss recommendation", err)
	}

	s.Invalidate(ctx, viewerID)
	return d, nil
}

// Invalidate drops cached lists so the next request sees the new pool.
func (s *Service) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cacheKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("recommendation cache invalidation failed")
	}
}

func truncate(recs []domain.ConnectionRecommendation, limit int) []domain.ConnectionRecommendation {
	if len(recs) > limit {
		return recs[:limit]
	}
	return recs
}
