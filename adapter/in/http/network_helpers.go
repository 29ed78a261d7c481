package http

import (
	"strings"

	"network_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetUserID extracts the authenticated user set by the auth middleware.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("")
	}
	return userID, nil
}

// ParamUUID parses a path parameter as a UUID.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	if raw == "" {
		return uuid.Nil, apperr.MissingField(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidInput(name, "must be a UUID")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

// actorAndTarget resolves the caller and the :userId path parameter.
func actorAndTarget(c *fiber.Ctx, param string) (uuid.UUID, uuid.UUID, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	target, err := ParamUUID(c, param)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, target, nil
}
