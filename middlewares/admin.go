package middlewares

import (
	"b4u/helpers"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

func AdminAuth(tokens *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := parseBearer(c, tokens)
		if err != nil {
			return helpers.JSONError(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if session.Role != services.RoleAdmin {
			return helpers.JSONError(c, fiber.StatusForbidden, "Admin access required")
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}
