package activity

import (
	"context"
	"fmt"
	"strings"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/core/service/recommendation"
)

// JobMatcher suggests open jobs that overlap the user's skills.
type JobMatcher struct {
	jobs out.JobRepository
}

func NewJobMatcher(jobs out.JobRepository) *JobMatcher {
	return &JobMatcher{jobs: jobs}
}

func (m *JobMatcher) Match(ctx context.Context, user *domain.User, limit int) ([]domain.FeedItem, error) {
	if len(user.Skills) == 0 {
		return []domain.FeedItem{}, nil
	}
	jobs, err := m.jobs.FindOpenBySkills(ctx, user.Skills, limit)
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(jobs))
	for _, j := range jobs {
		reason := "New opening that fits your profile"
		if shared := recommendation.SharedSkills(user.Skills, j.Skills); len(shared) > 0 {
			reason = "Matches your skills: " + strings.Join(shared, ", ")
		}
		items = append(items, domain.FeedItem{
			Type:         domain.FeedJobRecommendation,
			SourceModule: domain.ModuleJobs,
			TargetModule: domain.ModuleJobs,
			TargetID:     j.ID.String(),
			Title:        j.Title,
			Reason:       reason,
			Relevance:    domain.RelevanceJob,
			Data:         j,
		})
	}
	return items, nil
}

// CommunityRecommender suggests active posts related to the user's skills.
type CommunityRecommender struct {
	posts out.PostRepository
}

func NewCommunityRecommender(posts out.PostRepository) *CommunityRecommender {
	return &CommunityRecommender{posts: posts}
}

func (r *CommunityRecommender) Recommend(ctx context.Context, user *domain.User, limit int) ([]domain.FeedItem, error) {
	posts, err := r.posts.FindBySkills(ctx, user.Skills, user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(posts))
	for _, p := range posts {
		reason := "Popular in the community"
		if shared := recommendation.SharedSkills(user.Skills, p.RelatedSkills); len(shared) > 0 {
			reason = "Related to your skills: " + strings.Join(shared, ", ")
		}
		items = append(items, domain.FeedItem{
			Type:         domain.FeedCommunityRecommendation,
			SourceModule: domain.ModuleCommunity,
			TargetModule: domain.ModuleCommunity,
			TargetID:     p.ID,
			Title:        p.Title,
			Reason:       reason,
			Relevance:    domain.RelevanceCommunity,
			Data:         p,
		})
	}
	return items, nil
}

func connectionItems(recs []domain.ConnectionRecommendation) []domain.FeedItem {
	items := make([]domain.FeedItem, 0, len(recs))
	for _, rec := range recs {
		reason := "Suggested for you"
		if len(rec.Reasons) > 0 {
			reason = rec.Reasons[0].Detail
		}
		items = append(items, domain.FeedItem{
			Type:         domain.FeedConnectionRecommendation,
			SourceModule: domain.ModuleConnections,
			TargetModule: domain.ModuleConnections,
			TargetID:     rec.RecommendedUser.ID.String(),
			Title:        rec.RecommendedUser.Name,
			Reason:       reason,
			Relevance:    domain.RelevanceConnection,
			Data:         rec,
		})
	}
	return items
}
