package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"
	"network_server/pkg/apperr"

	"github.com/google/uuid"
)

type fakeProfiles struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return f.users[id], nil
}

func (f *fakeProfiles) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	var res []*domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (f *fakeProfiles) FindSimilar(_ context.Context, user *domain.User, exclude []uuid.UUID, limit int) ([]*domain.User, error) {
	skip := make(map[uuid.UUID]bool)
	for _, id := range exclude {
		skip[id] = true
	}
	var res []*domain.User
	for _, u := range f.users {
		if skip[u.ID] || u.ID == user.ID {
			continue
		}
		if u.Location == user.Location || len(SharedSkills(user.Skills, u.Skills)) > 0 {
			res = append(res, u)
		}
	}
	return res, nil
}

// fakeGraph implements only what the recommendation service calls.
type fakeGraph struct {
	out.ConnectionGraph
	linked      []uuid.UUID
	suggestions []out.GraphCandidate
	err         error
}

func (f *fakeGraph) ConnectedOrPendingIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.linked, f.err
}

func (f *fakeGraph) SuggestCandidates(context.Context, uuid.UUID, int) ([]out.GraphCandidate, error) {
	return f.suggestions, nil
}

func (f *fakeGraph) MutualCounts(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]int, error) {
	return map[uuid.UUID]int{}, nil
}

type fakeDismissals struct {
	records []*domain.Dismissal
}

func (f *fakeDismissals) Dismiss(_ context.Context, d *domain.Dismissal) error {
	f.records = append(f.records, d)
	return nil
}

func (f *fakeDismissals) ActiveCandidateIDs(_ context.Context, viewerID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, d := range f.records {
		if d.ViewerID == viewerID && d.ExpiresAt.After(now) {
			ids = append(ids, d.CandidateID)
		}
	}
	return ids, nil
}

type fixture struct {
	svc        *Service
	viewer     *domain.User
	friend     *domain.User
	fof        *domain.User
	local      *domain.User
	graph      *fakeGraph
	dismissals *fakeDismissals
}

func newFixture() *fixture {
	viewer := newUser([]string{"Go", "SQL"}, "Denver", "")
	friend := newUser([]string{"Go"}, "Denver", "")
	fof := newUser([]string{"Rust"}, "Boston", "")
	local := newUser([]string{"Excel"}, "Denver", "")

	profiles := &fakeProfiles{users: map[uuid.UUID]*domain.User{
		viewer.ID: viewer, friend.ID: friend, fof.ID: fof, local.ID: local,
	}}
	graph := &fakeGraph{
		linked:      []uuid.UUID{friend.ID},
		suggestions: []out.GraphCandidate{{UserID: fof.ID, MutualConnections: 3}},
	}
	dismissals := &fakeDismissals{}

	return &fixture{
		svc:        NewService(profiles, graph, dismissals, nil, Config{Limit: 10, PoolSize: 50, DismissalTTL: time.Hour}),
		viewer:     viewer,
		friend:     friend,
		fof:        fof,
		local:      local,
		graph:      graph,
		dismissals: dismissals,
	}
}

func ids(recs []domain.ConnectionRecommendation) map[uuid.UUID]int {
	m := make(map[uuid.UUID]int)
	for _, r := range recs {
		m[r.RecommendedUser.ID] = r.Score
	}
	return m
}

func TestRecommend_ExcludesConnectedAndSelf(t *testing.T) {
	f := newFixture()

	recs, err := f.svc.Recommend(context.Background(), f.viewer.ID, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	got := ids(recs)
	if _, ok := got[f.friend.ID]; ok {
		t.Error("connected user must not be recommended")
	}
	if _, ok := got[f.viewer.ID]; ok {
		t.Error("viewer must not be recommended to themselves")
	}
	if got[f.fof.ID] != 15 {
		t.Errorf("friend-of-friend score = %d, want 15 (3 mutual)", got[f.fof.ID])
	}
	if got[f.local.ID] != 15 {
		t.Errorf("same-location score = %d, want 15", got[f.local.ID])
	}
}

func TestDismiss_ExcludesCandidate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Dismiss(ctx, f.viewer.ID, f.local.ID); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}

	recs, err := f.svc.Recommend(ctx, f.viewer.ID, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if _, ok := ids(recs)[f.local.ID]; ok {
		t.Error("dismissed candidate reappeared")
	}
	if _, ok := ids(recs)[f.fof.ID]; !ok {
		t.Error("other candidates should remain")
	}
}

func TestDismiss_ExpiredDismissalNoLongerApplies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Dismiss(ctx, f.viewer.ID, f.local.ID); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	recs, err := f.svc.Recommend(ctx, f.viewer.ID, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if _, ok := ids(recs)[f.local.ID]; !ok {
		t.Error("expired dismissal should no longer hide the candidate")
	}
}

func TestDismiss_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate uuid.UUID
		code      string
	}{
		{"self", f.viewer.ID, apperr.CodeSelfAction},
		{"unknown user", uuid.New(), apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Dismiss(ctx, f.viewer.ID, tt.candidate)
			if !apperr.HasCode(err, tt.code) {
				t.Errorf("Dismiss() error = %v, want code %s", err, tt.code)
			}
		})
	}
	if len(f.dismissals.records) != 0 {
		t.Error("failed dismissals must not be stored")
	}
}

func TestRecommend_UnknownViewer(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Recommend(context.Background(), uuid.New(), 5)
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestRecommend_GraphFailureIsServerError(t *testing.T) {
	f := newFixture()
	f.graph.err = errors.New("neo4j: connection refused")

	_, err := f.svc.Recommend(context.Background(), f.viewer.ID, 5)
	if !apperr.HasCode(err, apperr.CodeDatabaseError) {
		t.Fatalf("error = %v, want DATABASE_ERROR", err)
	}
	if got := apperr.GetHTTPStatus(err); got != 500 {
		t.Errorf("status = %d, want 500", got)
	}
}
