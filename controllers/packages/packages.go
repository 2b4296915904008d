package packages

import (
	"context"
	"strings"

	"b4u/helpers"
	"b4u/models"
	"b4u/repository"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	List(ctx context.Context, game models.Game) ([]models.Package, error)
	GetByID(ctx context.Context, id uint) (*models.Package, error)
}

type Quoter interface {
	Current(ctx context.Context) services.Quote
}

// PackageView is a package priced in Pi at the current rate.
type PackageView struct {
	models.Package
	Unit    string          `json:"unit"`
	PiPrice decimal.Decimal `json:"pi_price"`
}

func view(p models.Package, q services.Quote) PackageView {
	v := PackageView{Package: p, Unit: p.Game.Unit()}
	if pi, err := services.ConvertUSDToPi(p.UsdPrice, q.Value); err == nil {
		v.PiPrice = pi
	}
	return v
}

func List(catalog Catalog, oracle Quoter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		game := models.Game(strings.ToUpper(strings.TrimSpace(c.Query("game"))))
		if game != "" && !game.Valid() {
			return helpers.JSONError(c, fiber.StatusBadRequest, "Unknown game")
		}

		pkgs, err := catalog.List(c.UserContext(), game)
		if err != nil {
			return helpers.Fail(c, err)
		}

		quote := oracle.Current(c.UserContext())
		out := make([]PackageView, 0, len(pkgs))
		for _, p := range pkgs {
			out = append(out, view(p, quote))
		}
		return helpers.JSONSuccess(c, "", fiber.Map{
			"packages": out,
			"price":    quote,
		})
	}
}

func Get(catalog Catalog, oracle Quoter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return helpers.Fail(c, repository.ErrPackageNotFound)
		}

		pkg, err := catalog.GetByID(c.UserContext(), uint(id))
		if err != nil {
			return helpers.Fail(c, err)
		}
		if !pkg.Active {
			return helpers.Fail(c, repository.ErrPackageNotFound)
		}
		return helpers.JSONSuccess(c, "", view(*pkg, oracle.Current(c.UserContext())))
	}
}
