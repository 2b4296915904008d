package price

import (
	"context"

	"b4u/helpers"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

type Quoter interface {
	Current(ctx context.Context) services.Quote
}

// Current always succeeds; the quote's source tells live from fallback prices.
func Current(oracle Quoter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return helpers.JSONSuccess(c, "", oracle.Current(c.UserContext()))
	}
}
