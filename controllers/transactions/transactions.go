package transactions

import (
	"context"

	"b4u/helpers"
	"b4u/middlewares"
	"b4u/models"
	"b4u/repository"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

type Orders interface {
	Create(ctx context.Context, userID uint, in services.CreateOrderInput) (*services.CreateOrderResult, error)
	List(ctx context.Context, userID uint, page repository.Page) ([]models.Transaction, int64, error)
	Get(ctx context.Context, userID uint, id string) (*models.Transaction, error)
}

type CreateRequest struct {
	PackageID     uint   `json:"package_id" validate:"required,gt=0"`
	GameAccountID string `json:"game_account_id" validate:"omitempty,max=32"`
	GameZoneID    string `json:"game_zone_id" validate:"omitempty,max=16"`
}

// Create records the purchase intent and returns the payment the wallet
// should be asked to create.
func Create(orders Orders) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := helpers.Bind(c, &req); err != nil {
			return helpers.Fail(c, err)
		}

		res, err := orders.Create(c.UserContext(), middlewares.UserID(c), services.CreateOrderInput{
			PackageID:     req.PackageID,
			GameAccountID: req.GameAccountID,
			GameZoneID:    req.GameZoneID,
		})
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONCreated(c, "Transaction created", res)
	}
}

func List(orders Orders) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := repository.Page{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)}

		txs, total, err := orders.List(c.UserContext(), middlewares.UserID(c), page)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONPage(c, txs, total, page)
	}
}

func Get(orders Orders) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx, err := orders.Get(c.UserContext(), middlewares.UserID(c), c.Params("id"))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "", tx)
	}
}
