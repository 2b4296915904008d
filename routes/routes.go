package routes

import (
	"b4u/controllers/admin"
	"b4u/controllers/auth"
	"b4u/controllers/consent"
	"b4u/controllers/health"
	"b4u/controllers/packages"
	"b4u/controllers/payments"
	"b4u/controllers/price"
	"b4u/controllers/transactions"
	"b4u/controllers/user"
	"b4u/middlewares"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
)

// Deps is everything the HTTP surface calls into.
type Deps struct {
	DB       health.Pinger
	Tokens   *services.TokenIssuer
	Auth     auth.Authenticator
	Oracle   price.Quoter
	Packages packages.Catalog
	Profiles user.Profiles
	Orders   transactions.Orders
	Payments interface {
		payments.Handshake
		admin.Canceller
	}
	Ledger   admin.Ledger
	Users    admin.Users
	Consents consent.Recorder
	Settings admin.Settings
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/health", health.Check(d.DB))

	api := app.Group("/api")
	api.Post("/auth/pi", auth.PiLogin(d.Auth))
	api.Get("/price", price.Current(d.Oracle))
	api.Get("/packages", packages.List(d.Packages, d.Oracle))
	api.Get("/packages/:id", packages.Get(d.Packages, d.Oracle))
	api.Post("/consent", middlewares.OptionalAuth(d.Tokens), consent.Record(d.Consents))

	userAuth := middlewares.UserAuth(d.Tokens)

	profile := api.Group("/user/profile", userAuth)
	profile.Get("/", user.GetProfile(d.Profiles))
	profile.Put("/", user.UpdateProfile(d.Profiles))
	profile.Put("/pubg", user.UpdatePubgProfile(d.Profiles))
	profile.Put("/mlbb", user.UpdateMlbbProfile(d.Profiles))

	txroutes := api.Group("/transactions", userAuth)
	txroutes.Post("/", transactions.Create(d.Orders))
	txroutes.Get("/", transactions.List(d.Orders))
	txroutes.Get("/:id", transactions.Get(d.Orders))

	// wallet SDK callbacks may fire before the session exists
	pay := api.Group("/payments")
	pay.Post("/approve", middlewares.OptionalAuth(d.Tokens), payments.Approve(d.Payments))
	pay.Post("/complete", middlewares.OptionalAuth(d.Tokens), payments.Complete(d.Payments))
	pay.Post("/incomplete", middlewares.OptionalAuth(d.Tokens), payments.Incomplete(d.Payments))
	pay.Post("/cancel", userAuth, payments.Cancel(d.Payments))

	api.Post("/admin/login", auth.AdminLogin(d.Auth))
	adminroutes := api.Group("/admin", middlewares.AdminAuth(d.Tokens))
	adminroutes.Get("/stats", admin.Stats(d.Ledger))
	adminroutes.Get("/transactions", admin.Transactions(d.Ledger))
	adminroutes.Post("/transactions/:id/cancel", admin.CancelTransaction(d.Payments))
	adminroutes.Get("/users", admin.ListUsers(d.Users))
	adminroutes.Get("/settings/:key", admin.GetSetting(d.Settings))
	adminroutes.Put("/settings/:key", admin.PutSetting(d.Settings))
}
