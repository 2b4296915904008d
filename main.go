package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"b4u/config"
	"b4u/database"
	"b4u/jobs"
	"b4u/mailer"
	"b4u/middlewares"
	"b4u/providers/coingecko"
	"b4u/providers/pinetwork"
	"b4u/repository"
	"b4u/routes"
	"b4u/services"
	tasks "b4u/task"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file, using environment")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg.Log)

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if cfg.Database.Seed {
		if err := database.SeedPackages(db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed packages")
		}
	}
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := database.BootstrapAdmin(db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql handle")
	}

	users := repository.NewUserRepository(db)
	packages := repository.NewPackageRepository(db)
	txs := repository.NewTransactionRepository(db)
	prices := repository.NewPriceRepository(db)
	admins := repository.NewAdminRepository(db)

	var pi interface {
		services.PiPayments
		services.PiAuthenticator
	}
	if cfg.Pi.APIKey == "" {
		log.Warn().Msg("⚠️ PI_API_KEY not set, Pi Network calls run in offline mode")
		pi = pinetwork.Offline{}
	} else {
		pi = pinetwork.NewClient(cfg.Pi.APIURL, cfg.Pi.APIKey)
	}

	oracle := services.NewPriceOracle(
		coingecko.NewClient(cfg.Price.APIURL, cfg.Price.APIKey, cfg.Price.Timeout),
		prices,
		cfg.Price.TTL,
		cfg.Price.Fallback(),
	)
	notifier := mailer.New(cfg.SMTP)
	tokens := services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authSvc := services.NewAuthService(pi, users, admins, tokens)
	orders := services.NewOrderService(txs, packages, users, oracle, notifier)
	payments := services.NewPaymentService(txs, packages, users, pi, notifier, services.LogDeliverer{})

	app := fiber.New(fiber.Config{
		AppName:      "B4U Esports",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(middlewares.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Setup(app, routes.Deps{
		DB:       sqlDB,
		Tokens:   tokens,
		Auth:     authSvc,
		Oracle:   oracle,
		Packages: packages,
		Profiles: users,
		Orders:   orders,
		Payments: payments,
		Ledger:   txs,
		Users:    users,
		Consents: repository.NewConsentRepository(db),
		Settings: repository.NewSettingRepository(db),
	})

	ctx, stop := context.WithCancel(context.Background())
	scheduler := jobs.NewScheduler(
		jobs.PriceRefresh(oracle, cfg.Price.RefreshInterval),
		jobs.ExpirePending(payments, cfg.Jobs),
		jobs.ReconcileProcessing(payments, cfg.Jobs),
		jobs.Job{
			Name:     "prune-price-history",
			Interval: 24 * time.Hour,
			Run: func(ctx context.Context) error {
				return tasks.PrunePriceHistory(ctx, prices, cfg.Price.HistoryKeep)
			},
		},
	)
	scheduler.Start(ctx)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("🚀 Server running")

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Panic().Err(err).Msg("failed to start server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("Gracefully shutting down...")
	stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	scheduler.Wait()
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
	log.Info().Msg("Server exited cleanly")
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
