package admin

import (
	"context"
	"strings"

	"b4u/helpers"
	"b4u/models"
	"b4u/repository"

	"github.com/gofiber/fiber/v2"
)

type Ledger interface {
	List(ctx context.Context, f repository.TransactionFilter, page repository.Page) ([]models.Transaction, int64, error)
	Stats(ctx context.Context) (*repository.Stats, error)
}

type Users interface {
	List(ctx context.Context, page repository.Page) ([]models.User, int64, error)
}

type Canceller interface {
	AdminCancel(ctx context.Context, transactionID string) (*models.Transaction, error)
}

func Stats(ledger Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := ledger.Stats(c.UserContext())
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "", stats)
	}
}

func pageOf(c *fiber.Ctx) repository.Page {
	return repository.Page{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 20)}
}

func Transactions(ledger Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := repository.TransactionFilter{
			Status: models.TransactionStatus(strings.ToUpper(c.Query("status"))),
			UserID: uint(c.QueryInt("user_id", 0)),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			return helpers.JSONError(c, fiber.StatusBadRequest, "Unknown status")
		}

		page := pageOf(c)
		txs, total, err := ledger.List(c.UserContext(), filter, page)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONPage(c, txs, total, page)
	}
}

func ListUsers(users Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := pageOf(c)
		list, total, err := users.List(c.UserContext(), page)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONPage(c, list, total, page)
	}
}

func CancelTransaction(payments Canceller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx, err := payments.AdminCancel(c.UserContext(), c.Params("id"))
		if err != nil {
			return helpers.Fail(c, err)
		}
		return helpers.JSONSuccess(c, "Transaction cancelled", tx)
	}
}
