package database

import (
	"fmt"
	"time"

	"b4u/config"
	"b4u/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and runs the migrations when
// database.auto_migrate is set.
func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	zl := log.With().Str("component", "gorm").Logger()
	gormLogger := logger.New(&zl, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Str("database", cfg.Name).Msg("✅ Connected to database")

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates every table the storefront uses.
func Migrate(db *gorm.DB) error {
	log.Info().Msg("🟡 Starting auto-migration...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.PubgProfile{},
		&models.MlbbProfile{},
		&models.Package{},
		&models.Transaction{},
		&models.PiPrice{},
		&models.Admin{},
		&models.ConsentLog{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	log.Info().Msg("✅ Auto migration completed")
	return nil
}
