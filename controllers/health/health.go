package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

func Check(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := "ok"
		code := fiber.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"success": code == fiber.StatusOK,
			"data": fiber.Map{
				"status":   status,
				"database": status,
				"time":     time.Now().UTC(),
			},
		})
	}
}
