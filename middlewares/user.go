package middlewares

import (
	"strings"

	"b4u/helpers"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// UserAuth requires a valid user bearer token and stores the session in
// locals.
func UserAuth(tokens *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := parseBearer(c, tokens)
		if err != nil {
			return helpers.JSONError(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if session.Role != services.RoleUser {
			return helpers.JSONError(c, fiber.StatusForbidden, "User session required")
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and lets
// anonymous requests through. Wallet SDK callbacks can fire before login.
func OptionalAuth(tokens *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session, err := parseBearer(c, tokens); err == nil {
			c.Locals(sessionKey, session)
		}
		return c.Next()
	}
}

func parseBearer(c *fiber.Ctx, tokens *services.TokenIssuer) (*services.Session, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, services.ErrUnauthorized
	}
	return tokens.Parse(strings.TrimSpace(token))
}

// Session returns the caller's session, or nil for anonymous requests.
func Session(c *fiber.Ctx) *services.Session {
	s, _ := c.Locals(sessionKey).(*services.Session)
	return s
}

// UserID is the session's user id, or 0 for anonymous and admin callers.
func UserID(c *fiber.Ctx) uint {
	if s := Session(c); s != nil && s.Role == services.RoleUser {
		return s.SubjectID
	}
	return 0
}
