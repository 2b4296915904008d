package consent

import (
	"context"

	"b4u/helpers"
	"b4u/middlewares"
	"b4u/models"

	"github.com/gofiber/fiber/v2"
)

type Recorder interface {
	Create(ctx context.Context, entry *models.ConsentLog) error
}

type Request struct {
	ConsentType string `json:"consent_type" validate:"required,oneof=terms privacy cookies marketing"`
	Version     string `json:"version" validate:"omitempty,max=16"`
	Accepted    *bool  `json:"accepted" validate:"required"`
}

// Record stores a consent decision; anonymous visitors are logged without a user.
func Record(logs Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req Request
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		entry := &models.ConsentLog{
			ConsentType: req.ConsentType,
			Version:     req.Version,
			Accepted:    *req.Accepted,
			IP:          c.IP(),
			UserAgent:   truncate(c.Get(fiber.HeaderUserAgent), 255),
		}
		if id := middlewares.UserID(c); id != 0 {
			entry.UserID = &id
		}

		if err := logs.Create(c.UserContext(), entry); err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONCreated(c, "Consent recorded", entry)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
