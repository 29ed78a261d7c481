package http

import (
	"context"

	"network_server/core/domain"
	in "network_server/core/port/in"
	"network_server/pkg/apperr"
	"network_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CommunityHandler serves posts, reactions, the feed and the activity trail.
type CommunityHandler struct {
	community in.CommunityService
	activity  in.ActivityService
}

func NewCommunityHandler(community in.CommunityService, activity in.ActivityService) *CommunityHandler {
	return &CommunityHandler{
		community: community,
		activity:  activity,
	}
}

func (h *CommunityHandler) Register(router fiber.Router) {
	posts := router.Group("/community/posts")
	posts.Post("/", h.CreatePost)
	posts.Get("/trending", h.Trending)
	posts.Delete("/:id", h.DeletePost)
	posts.Post("/:id/comments", h.Comment)
	posts.Post("/:id/like", h.Like)
	posts.Post("/:id/helpful", h.MarkHelpful)
	posts.Post("/:id/endorse", h.Endorse)

	community := router.Group("/community")
	community.Post("/mentorships/:mentorId/confirm", h.ConfirmMentorship)
	community.Post("/events", h.HostEvent)
	community.Get("/milestones", h.Milestones)

	router.Get("/feed", h.Feed)
	router.Get("/activity", h.Activity)
}

func (h *CommunityHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := h.community.CreatePost(c.Context(), userID, req)
	if err != nil {
		return err
	}
	return response.Created(c, "post created", post)
}

func (h *CommunityHandler) Trending(c *fiber.Ctx) error {
	posts, err := h.community.Trending(c.Context(), response.Limit(c, 10, 50))
	if err != nil {
		return err
	}
	return response.List(c, posts, 0)
}

func (h *CommunityHandler) DeletePost(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	if err := h.community.DeletePost(c.Context(), userID, c.Params("id")); err != nil {
		return err
	}
	return response.NoContent(c)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *CommunityHandler) Comment(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := h.community.Comment(c.Context(), userID, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return response.Created(c, "comment added", comment)
}

// =============================================================================
// Reactions
// =============================================================================

type reactFunc func(ctx context.Context, userID uuid.UUID, postID string) error

func (h *CommunityHandler) Like(c *fiber.Ctx) error {
	return h.react(c, h.community.Like, "post liked")
}

func (h *CommunityHandler) MarkHelpful(c *fiber.Ctx) error {
	return h.react(c, h.community.MarkHelpful, "marked helpful")
}

func (h *CommunityHandler) Endorse(c *fiber.Ctx) error {
	return h.react(c, h.community.Endorse, "post endorsed")
}

func (h *CommunityHandler) react(c *fiber.Ctx, fn reactFunc, message string) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	postID := c.Params("id")
	if postID == "" {
		return apperr.MissingField("id")
	}
	if err := fn(c.Context(), userID, postID); err != nil {
		return err
	}
	return response.OKWithMessage(c, message, nil)
}

// =============================================================================
// Milestones
// =============================================================================

type confirmMentorshipRequest struct {
	SessionID string `json:"session_id"`
}

// ConfirmMentorship is sent by the mentee; :mentorId is credited.
func (h *CommunityHandler) ConfirmMentorship(c *fiber.Ctx) error {
	menteeID, mentorID, err := actorAndTarget(c, "mentorId")
	if err != nil {
		return err
	}

	var req confirmMentorshipRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	m, err := h.community.ConfirmMentorship(c.Context(), menteeID, mentorID, req.SessionID)
	if err != nil {
		return err
	}
	return response.Created(c, "mentorship session confirmed", m)
}

func (h *CommunityHandler) HostEvent(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.HostEventRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	m, err := h.community.HostEvent(c.Context(), userID, req)
	if err != nil {
		return err
	}
	return response.Created(c, "event recorded", m)
}

func (h *CommunityHandler) Milestones(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	limit := response.Limit(c, 20, 100)
	milestones, err := h.community.Milestones(c.Context(), userID, domain.MilestoneKind(c.Query("kind")), limit)
	if err != nil {
		return err
	}
	return response.List(c, milestones, limit)
}

// =============================================================================
// Feed & activity
// =============================================================================

func (h *CommunityHandler) Feed(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	feed, err := h.activity.Aggregate(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, feed)
}

func (h *CommunityHandler) Activity(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	limit := response.Limit(c, 20, 100)
	events, err := h.activity.Activity(c.Context(), userID, limit)
	if err != nil {
		return err
	}
	return response.List(c, events, limit)
}
