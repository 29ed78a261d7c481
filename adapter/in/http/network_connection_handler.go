package http

import (
	"context"
	"strings"

	"network_server/core/domain"
	in "network_server/core/port/in"
	"network_server/pkg/apperr"
	"network_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ConnectionHandler serves connections, follows, strength and
// recommendations.
type ConnectionHandler struct {
	connections     in.ConnectionService
	recommendations in.RecommendationService
}

func NewConnectionHandler(connections in.ConnectionService, recommendations in.RecommendationService) *ConnectionHandler {
	return &ConnectionHandler{
		connections:     connections,
		recommendations: recommendations,
	}
}

func (h *ConnectionHandler) Register(router fiber.Router) {
	conns := router.Group("/connections")

	conns.Get("/", h.List)
	conns.Post("/requests", h.Request)

	// Recommendations
	conns.Get("/recommendations", h.Recommendations)
	conns.Post("/recommendations/:userId/dismiss", h.Dismiss)

	// Lifecycle
	conns.Post("/:id/accept", h.Accept)
	conns.Post("/:id/reject", h.Reject)
	conns.Post("/:id/cancel", h.Cancel)
	conns.Delete("/:id", h.Remove)

	// Strength
	conns.Get("/:userId/strength", h.Strength)
	conns.Post("/:userId/interactions", h.RecordInteraction)

	follows := router.Group("/follows")
	follows.Post("/:userId", h.Follow)
	follows.Delete("/:userId", h.Unfollow)
}

// =============================================================================
// Connections
// =============================================================================

func (h *ConnectionHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	status := domain.ConnectionStatus(strings.ToLower(c.Query("status")))
	conns, err := h.connections.List(c.Context(), userID, status)
	if err != nil {
		return err
	}
	return response.List(c, conns, 0)
}

type connectionRequest struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
}

func (h *ConnectionHandler) Request(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req connectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.RecipientID == "" {
		return apperr.MissingField("recipient_id")
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return apperr.InvalidInput("recipient_id", "must be a UUID")
	}

	conn, err := h.connections.Request(c.Context(), userID, recipientID, req.Message)
	if err != nil {
		return err
	}
	return response.Created(c, "connection request sent", conn)
}

func (h *ConnectionHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, h.connections.Accept)
}

func (h *ConnectionHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.connections.Reject)
}

func (h *ConnectionHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.connections.Cancel)
}

type transitionFunc func(ctx context.Context, actorID, connectionID uuid.UUID) (*domain.Connection, error)

func (h *ConnectionHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	userID, connID, err := actorAndTarget(c, "id")
	if err != nil {
		return err
	}
	conn, err := fn(c.Context(), userID, connID)
	if err != nil {
		return err
	}
	return response.OK(c, conn)
}

func (h *ConnectionHandler) Remove(c *fiber.Ctx) error {
	userID, connID, err := actorAndTarget(c, "id")
	if err != nil {
		return err
	}
	if err := h.connections.Remove(c.Context(), userID, connID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// =============================================================================
// Follows
// =============================================================================

func (h *ConnectionHandler) Follow(c *fiber.Ctx) error {
	userID, target, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}
	if err := h.connections.Follow(c.Context(), userID, target); err != nil {
		return err
	}
	return response.OKWithMessage(c, "followed", nil)
}

func (h *ConnectionHandler) Unfollow(c *fiber.Ctx) error {
	userID, target, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}
	if err := h.connections.Unfollow(c.Context(), userID, target); err != nil {
		return err
	}
	return response.NoContent(c)
}

// =============================================================================
// Strength
// =============================================================================

func (h *ConnectionHandler) Strength(c *fiber.Ctx) error {
	userID, other, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}

	style := domain.StrengthStyle(strings.ToLower(c.Query("style", string(domain.StrengthDetailed))))
	if style != domain.StrengthDetailed && style != domain.StrengthCompact {
		return apperr.InvalidInput("style", "must be detailed or compact")
	}

	strength, err := h.connections.Strength(c.Context(), userID, other, style)
	if err != nil {
		return err
	}
	return response.OK(c, strength)
}

type interactionRequest struct {
	Kind domain.InteractionKind `json:"kind"`
}

func (h *ConnectionHandler) RecordInteraction(c *fiber.Ctx) error {
	userID, other, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}

	var req interactionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Kind == "" {
		return apperr.MissingField("kind")
	}

	if err := h.connections.RecordInteraction(c.Context(), userID, other, req.Kind); err != nil {
		return err
	}
	return response.OKWithMessage(c, "interaction recorded", nil)
}

// =============================================================================
// Recommendations
// =============================================================================

func (h *ConnectionHandler) Recommendations(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	recs, err := h.recommendations.Recommend(c.Context(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return response.List(c, recs, 0)
}

func (h *ConnectionHandler) Dismiss(c *fiber.Ctx) error {
	userID, candidate, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}
	dismissal, err := h.recommendations.Dismiss(c.Context(), userID, candidate)
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, "recommendation dismissed", dismissal)
}
