package auth

import (
	"context"

	"b4u/helpers"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

type PiLoginRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type Authenticator interface {
	LoginWithPi(ctx context.Context, accessToken string) (*services.LoginResult, error)
	LoginAdmin(ctx context.Context, username, password string) (*services.LoginResult, error)
}

// PiLogin exchanges a wallet SDK access token for a session token.
func PiLogin(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PiLoginRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		res, err := auth.LoginWithPi(c.UserContext(), req.AccessToken)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Authenticated", res)
	}
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func AdminLogin(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AdminLoginRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		res, err := auth.LoginAdmin(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Authenticated", res)
	}
}
