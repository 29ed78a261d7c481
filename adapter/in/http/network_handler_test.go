package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"network_server/core/domain"
	in "network_server/core/port/in"
	"network_server/infra/middleware"
	"network_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type fakeConnections struct {
	in.ConnectionService
	requested []uuid.UUID
	style     domain.StrengthStyle
	kind      domain.InteractionKind
	err       error
}

func (f *fakeConnections) Request(ctx context.Context, requesterID, recipientID uuid.UUID, message string) (*domain.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requested = append(f.requested, recipientID)
	return &domain.Connection{ID: uuid.New(), RequesterID: requesterID, RecipientID: recipientID, Status: domain.ConnectionPending}, nil
}

func (f *fakeConnections) Accept(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Connection{ID: connectionID, Status: domain.ConnectionAccepted}, nil
}

func (f *fakeConnections) Strength(ctx context.Context, viewerID, otherID uuid.UUID, style domain.StrengthStyle) (*domain.ConnectionStrength, error) {
	f.style = style
	return &domain.ConnectionStrength{}, nil
}

func (f *fakeConnections) RecordInteraction(ctx context.Context, actorID, otherID uuid.UUID, kind domain.InteractionKind) error {
	f.kind = kind
	return f.err
}

type fakeRecommendations struct {
	in.RecommendationService
	limit int
}

func (f *fakeRecommendations) Recommend(ctx context.Context, viewerID uuid.UUID, limit int) ([]domain.ConnectionRecommendation, error) {
	f.limit = limit
	return []domain.ConnectionRecommendation{{}}, nil
}

type fakeCommunity struct {
	in.CommunityService
	created in.CreatePostRequest
	hosted  in.HostEventRequest
	err     error
}

func (f *fakeCommunity) CreatePost(ctx context.Context, authorID uuid.UUID, req in.CreatePostRequest) (*domain.CommunityPost, error) {
	f.created = req
	return &domain.CommunityPost{ID: "p1", AuthorID: authorID, Title: req.Title}, nil
}

func (f *fakeCommunity) Like(ctx context.Context, userID uuid.UUID, postID string) error {
	return f.err
}

func (f *fakeCommunity) ConfirmMentorship(ctx context.Context, menteeID, mentorID uuid.UUID, sessionID string) (*domain.Milestone, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Milestone{Kind: domain.MilestoneMentorship, UserID: mentorID, ConfirmedBy: menteeID, Reference: sessionID}, nil
}

func (f *fakeCommunity) HostEvent(ctx context.Context, hostID uuid.UUID, req in.HostEventRequest) (*domain.Milestone, error) {
	f.hosted = req
	return &domain.Milestone{Kind: domain.MilestoneEventHost, UserID: hostID, Reference: req.Reference, Title: req.Title}, nil
}

type fakeAdmin struct {
	admin, target uuid.UUID
	req           in.AdjustReputationRequest
}

func (f *fakeAdmin) Adjust(ctx context.Context, adminID, userID uuid.UUID, req in.AdjustReputationRequest) (*domain.Reputation, error) {
	f.admin, f.target, f.req = adminID, userID, req
	return &domain.Reputation{UserID: userID, TotalPoints: req.Points, Level: 1}, nil
}

type fakeReputation struct {
	in.ReputationService
	got uuid.UUID
}

func (f *fakeReputation) Get(ctx context.Context, userID uuid.UUID) (*domain.Reputation, error) {
	f.got = userID
	return &domain.Reputation{UserID: userID, Level: 1}, nil
}

type testEnv struct {
	app         *fiber.App
	user        uuid.UUID
	connections *fakeConnections
	recs        *fakeRecommendations
	community   *fakeCommunity
	reputation  *fakeReputation
}

func newTestEnv(authenticated bool) *testEnv {
	env := &testEnv{
		user:        uuid.New(),
		connections: &fakeConnections{},
		recs:        &fakeRecommendations{},
		community:   &fakeCommunity{},
		reputation:  &fakeReputation{},
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		if authenticated {
			c.Locals("user_id", env.user)
		}
		return c.Next()
	})
	NewConnectionHandler(env.connections, env.recs).Register(api)
	NewCommunityHandler(env.community, nil).Register(api)
	NewReputationHandler(env.reputation, nil).Register(api)
	env.app = app
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestConnectionHandler_Request(t *testing.T) {
	recipient := uuid.New()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"created", `{"recipient_id":"` + recipient.String() + `","message":"hi"}`, fiber.StatusCreated, ""},
		{"missing recipient", `{"message":"hi"}`, fiber.StatusBadRequest, apperr.CodeMissingField},
		{"bad uuid", `{"recipient_id":"nope"}`, fiber.StatusBadRequest, apperr.CodeInvalidInput},
		{"bad body", `{`, fiber.StatusBadRequest, apperr.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(true)
			status, body := env.do(t, "POST", "/api/v1/connections/requests", tt.body)
			if status != tt.wantCode {
				t.Fatalf("status = %d, want %d (%v)", status, tt.wantCode, body)
			}
			if tt.wantErr != "" && errorCode(body) != tt.wantErr {
				t.Errorf("code = %q, want %q", errorCode(body), tt.wantErr)
			}
			if tt.wantErr == "" && (len(env.connections.requested) != 1 || env.connections.requested[0] != recipient) {
				t.Errorf("requested = %v", env.connections.requested)
			}
		})
	}
}

func TestConnectionHandler_ServiceErrorsUseEnvelope(t *testing.T) {
	env := newTestEnv(true)
	env.connections.err = apperr.SelfAction("connect with")

	status, body := env.do(t, "POST", "/api/v1/connections/"+uuid.NewString()+"/accept", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["success"] != false || errorCode(body) != apperr.CodeSelfAction {
		t.Errorf("body = %v", body)
	}
}

func TestConnectionHandler_Strength(t *testing.T) {
	other := uuid.NewString()

	tests := []struct {
		query     string
		wantCode  int
		wantStyle domain.StrengthStyle
	}{
		{"", fiber.StatusOK, domain.StrengthDetailed},
		{"?style=compact", fiber.StatusOK, domain.StrengthCompact},
		{"?style=COMPACT", fiber.StatusOK, domain.StrengthCompact},
		{"?style=fancy", fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run("style"+tt.query, func(t *testing.T) {
			env := newTestEnv(true)
			status, _ := env.do(t, "GET", "/api/v1/connections/"+other+"/strength"+tt.query, "")
			if status != tt.wantCode {
				t.Fatalf("status = %d, want %d", status, tt.wantCode)
			}
			if env.connections.style != tt.wantStyle {
				t.Errorf("style = %q, want %q", env.connections.style, tt.wantStyle)
			}
		})
	}
}

func TestConnectionHandler_RecordInteraction(t *testing.T) {
	env := newTestEnv(true)
	status, _ := env.do(t, "POST", "/api/v1/connections/"+uuid.NewString()+"/interactions", `{"kind":"message"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if env.connections.kind != domain.InteractionMessage {
		t.Errorf("kind = %q", env.connections.kind)
	}

	status, body := env.do(t, "POST", "/api/v1/connections/"+uuid.NewString()+"/interactions", `{}`)
	if status != fiber.StatusBadRequest || errorCode(body) != apperr.CodeMissingField {
		t.Errorf("status = %d code = %q", status, errorCode(body))
	}
}

func TestConnectionHandler_RecommendationsPassLimit(t *testing.T) {
	env := newTestEnv(true)
	status, body := env.do(t, "GET", "/api/v1/connections/recommendations?limit=7", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if env.recs.limit != 7 {
		t.Errorf("limit = %d, want 7", env.recs.limit)
	}
	if _, ok := body["data"].([]any); !ok {
		t.Errorf("data = %v, want list", body["data"])
	}
}

func TestHandlers_RequireAuthentication(t *testing.T) {
	env := newTestEnv(false)
	paths := []struct{ method, path string }{
		{"GET", "/api/v1/connections"},
		{"POST", "/api/v1/community/posts"},
		{"GET", "/api/v1/reputation/me"},
		{"POST", "/api/v1/follows/" + uuid.NewString()},
	}
	for _, p := range paths {
		status, body := env.do(t, p.method, p.path, "")
		if status != fiber.StatusUnauthorized || errorCode(body) != apperr.CodeUnauthorized {
			t.Errorf("%s %s: status = %d code = %q", p.method, p.path, status, errorCode(body))
		}
	}
}

func TestCommunityHandler_CreateAndReact(t *testing.T) {
	env := newTestEnv(true)

	status, body := env.do(t, "POST", "/api/v1/community/posts", `{"title":"Hello","content":"World","related_skills":["go"]}`)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d (%v)", status, body)
	}
	if env.community.created.Title != "Hello" || len(env.community.created.RelatedSkills) != 1 {
		t.Errorf("created = %+v", env.community.created)
	}

	env.community.err = apperr.Duplicate("already liked")
	status, body = env.do(t, "POST", "/api/v1/community/posts/p1/like", "")
	if status != fiber.StatusBadRequest || errorCode(body) != apperr.CodeConflict {
		t.Errorf("status = %d code = %q", status, errorCode(body))
	}
}

func TestCommunityHandler_Milestones(t *testing.T) {
	env := newTestEnv(true)
	mentor := uuid.New()

	status, body := env.do(t, "POST", "/api/v1/community/mentorships/"+mentor.String()+"/confirm", `{"session_id":"s-9"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("confirm: status = %d (%v)", status, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["user_id"] != mentor.String() || data["confirmed_by"] != env.user.String() {
		t.Errorf("confirm data = %v, want mentor credited and caller as confirmer", data)
	}

	status, body = env.do(t, "POST", "/api/v1/community/mentorships/bob/confirm", `{"session_id":"s-9"}`)
	if status != fiber.StatusBadRequest || errorCode(body) != apperr.CodeInvalidInput {
		t.Errorf("bad mentor id: status = %d code = %q", status, errorCode(body))
	}

	status, _ = env.do(t, "POST", "/api/v1/community/events", `{"title":"Go meetup","reference":"m-1","held_at":"2026-05-01T18:00:00Z"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("host: status = %d", status)
	}
	if env.community.hosted.Reference != "m-1" || env.community.hosted.HeldAt.IsZero() {
		t.Errorf("hosted = %+v", env.community.hosted)
	}
}

func TestAdminHandler_Adjust(t *testing.T) {
	admin := &fakeAdmin{}
	caller := uuid.New()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	group := app.Group("/admin", func(c *fiber.Ctx) error {
		c.Locals("user_id", caller)
		return c.Next()
	})
	NewAdminHandler(admin).Register(group)

	target := uuid.New()
	req := httptest.NewRequest("POST", "/admin/reputation/"+target.String()+"/adjust",
		strings.NewReader(`{"points":50,"reason":"migrated karma","counter":"events_hosted","increment":2}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if admin.admin != caller || admin.target != target {
		t.Errorf("admin = %v target = %v", admin.admin, admin.target)
	}
	if admin.req.Points != 50 || admin.req.Counter != domain.CounterEventsHosted || admin.req.Increment != 2 {
		t.Errorf("req = %+v", admin.req)
	}
}

func TestReputationHandler_StaticRoutesBeforeParam(t *testing.T) {
	env := newTestEnv(true)

	status, _ := env.do(t, "GET", "/api/v1/reputation/me", "")
	if status != fiber.StatusOK || env.reputation.got != env.user {
		t.Fatalf("me: status = %d got = %v", status, env.reputation.got)
	}

	other := uuid.New()
	status, _ = env.do(t, "GET", "/api/v1/reputation/"+other.String(), "")
	if status != fiber.StatusOK || env.reputation.got != other {
		t.Fatalf("by id: status = %d got = %v", status, env.reputation.got)
	}

	status, body := env.do(t, "GET", "/api/v1/reputation/not-a-uuid", "")
	if status != fiber.StatusBadRequest || errorCode(body) != apperr.CodeInvalidInput {
		t.Errorf("bad id: status = %d code = %q", status, errorCode(body))
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	app := fiber.New()
	NewHealthHandler(map[string]Pinger{
		"redis": func(ctx context.Context) error { return nil },
		"neo4j": func(ctx context.Context) error { return io.EOF },
		"mongo": nil,
	}).Register(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}
