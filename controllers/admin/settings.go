package admin

import (
	"context"
	"encoding/json"

	"b4u/helpers"
	"b4u/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type Settings interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Put(ctx context.Context, key string, value datatypes.JSON) (*models.Setting, error)
}

type settingKey struct {
	Key string `validate:"required,max=64,printascii"`
}

func GetSetting(settings Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := settings.Get(c.UserContext(), c.Params("key"))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "", s)
	}
}

// PutSetting stores the raw JSON request body under :key.
func PutSetting(settings Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		if err := helpers.Validate(settingKey{Key: key}); err != nil {
			return helpers.Fail(c, err)
		}

		body := c.Body()
		if !json.Valid(body) {
			return helpers.Fail(c, helpers.ErrInvalidJSON)
		}

		s, err := settings.Put(c.UserContext(), key, datatypes.JSON(append([]byte(nil), body...)))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Setting saved", s)
	}
}
