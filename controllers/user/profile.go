package user

import (
	"context"
	"strings"

	"b4u/helpers"
	"b4u/middlewares"
	"b4u/models"

	"github.com/gofiber/fiber/v2"
)

type Profiles interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	UpdateContact(ctx context.Context, id uint, email, wallet, locale string) (*models.User, error)
	SavePubgProfile(ctx context.Context, userID uint, playerID, nickname string) (*models.PubgProfile, error)
	SaveMlbbProfile(ctx context.Context, userID uint, gameUserID, zoneID, nickname string) (*models.MlbbProfile, error)
}

func GetProfile(users Profiles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := users.GetByID(c.UserContext(), middlewares.UserID(c))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "", user)
	}
}

type UpdateProfileRequest struct {
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	WalletAddress string `json:"wallet_address" validate:"omitempty,max=64"`
	Locale        string `json:"locale" validate:"omitempty,oneof=en id ms th vi"`
}

func UpdateProfile(users Profiles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateProfileRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		user, err := users.UpdateContact(c.UserContext(), middlewares.UserID(c),
			strings.TrimSpace(req.Email), strings.TrimSpace(req.WalletAddress), req.Locale)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Profile updated", user)
	}
}

type PubgProfileRequest struct {
	PlayerID string `json:"player_id" validate:"required,numeric,min=5,max=20"`
	Nickname string `json:"nickname" validate:"omitempty,max=64"`
}

func UpdatePubgProfile(users Profiles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PubgProfileRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		profile, err := users.SavePubgProfile(c.UserContext(), middlewares.UserID(c), req.PlayerID, strings.TrimSpace(req.Nickname))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "PUBG Mobile profile saved", profile)
	}
}

type MlbbProfileRequest struct {
	GameUserID string `json:"game_user_id" validate:"required,numeric,min=5,max=20"`
	ZoneID     string `json:"zone_id" validate:"required,numeric,min=1,max=8"`
	Nickname   string `json:"nickname" validate:"omitempty,max=64"`
}

func UpdateMlbbProfile(users Profiles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MlbbProfileRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		profile, err := users.SaveMlbbProfile(c.UserContext(), middlewares.UserID(c), req.GameUserID, req.ZoneID, strings.TrimSpace(req.Nickname))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Mobile Legends profile saved", profile)
	}
}
