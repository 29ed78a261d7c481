package http

import (
	"network_server/core/domain"
	in "network_server/core/port/in"
	"network_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ReputationHandler struct {
	reputation in.ReputationService
	badges     in.BadgeService
}

func NewReputationHandler(reputation in.ReputationService, badges in.BadgeService) *ReputationHandler {
	return &ReputationHandler{
		reputation: reputation,
		badges:     badges,
	}
}

func (h *ReputationHandler) Register(router fiber.Router) {
	rep := router.Group("/reputation")
	rep.Get("/me", h.Me)
	rep.Get("/me/history", h.History)
	rep.Get("/leaderboard", h.Leaderboard)
	rep.Get("/:userId", h.Get)

	badges := router.Group("/badges")
	badges.Get("/", h.Catalog)
	badges.Post("/evaluate", h.Evaluate)
}

func (h *ReputationHandler) Me(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	rep, err := h.reputation.Get(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, rep)
}

func (h *ReputationHandler) Get(c *fiber.Ctx) error {
	_, target, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}
	rep, err := h.reputation.Get(c.Context(), target)
	if err != nil {
		return err
	}
	return response.OK(c, rep)
}

func (h *ReputationHandler) History(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	limit := response.Limit(c, 20, 100)
	entries, err := h.reputation.History(c.Context(), userID, limit)
	if err != nil {
		return err
	}
	return response.List(c, entries, limit)
}

func (h *ReputationHandler) Leaderboard(c *fiber.Ctx) error {
	top, err := h.reputation.Leaderboard(c.Context(), response.Limit(c, 10, 100))
	if err != nil {
		return err
	}
	return response.List(c, top, 0)
}

// =============================================================================
// Badges
// =============================================================================

func (h *ReputationHandler) Catalog(c *fiber.Ctx) error {
	badges, err := h.badges.Catalog(c.Context())
	if err != nil {
		return err
	}
	return response.List(c, badges, 0)
}

// Evaluate re-checks the caller against the catalog and returns newly
// awarded badges.
func (h *ReputationHandler) Evaluate(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	awarded, err := h.badges.Evaluate(c.Context(), userID)
	if err != nil {
		return err
	}
	if awarded == nil {
		awarded = []*domain.Badge{}
	}
	return response.OK(c, fiber.Map{"awarded": awarded})
}

// =============================================================================
// Admin
// =============================================================================

// AdminHandler serves moderator corrections. The router it is registered on
// must already restrict access to admins.
type AdminHandler struct {
	admin in.ReputationAdminService
}

func NewAdminHandler(admin in.ReputationAdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/reputation/:userId/adjust", h.Adjust)
}

func (h *AdminHandler) Adjust(c *fiber.Ctx) error {
	adminID, target, err := actorAndTarget(c, "userId")
	if err != nil {
		return err
	}

	var req in.AdjustReputationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	rep, err := h.admin.Adjust(c.Context(), adminID, target, req)
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, "reputation adjusted", rep)
}
