package database

import (
	"errors"
	"fmt"

	"b4u/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPackages is the catalog inserted into an empty packages table.
func DefaultPackages() []models.Package {
	usd := decimal.RequireFromString
	return []models.Package{
		{Name: "60 UC", Game: models.GamePUBG, Amount: 60, UsdPrice: usd("0.99"), Active: true, SortOrder: 1},
		{Name: "325 UC", Game: models.GamePUBG, Amount: 300, Bonus: 25, UsdPrice: usd("4.99"), Active: true, SortOrder: 2},
		{Name: "660 UC", Game: models.GamePUBG, Amount: 600, Bonus: 60, UsdPrice: usd("9.99"), Active: true, SortOrder: 3},
		{Name: "1800 UC", Game: models.GamePUBG, Amount: 1500, Bonus: 300, UsdPrice: usd("24.99"), Active: true, SortOrder: 4},
		{Name: "3850 UC", Game: models.GamePUBG, Amount: 3000, Bonus: 850, UsdPrice: usd("49.99"), Active: true, SortOrder: 5},
		{Name: "86 Diamonds", Game: models.GameMLBB, Amount: 78, Bonus: 8, UsdPrice: usd("1.50"), Active: true, SortOrder: 1},
		{Name: "172 Diamonds", Game: models.GameMLBB, Amount: 156, Bonus: 16, UsdPrice: usd("2.99"), Active: true, SortOrder: 2},
		{Name: "257 Diamonds", Game: models.GameMLBB, Amount: 234, Bonus: 23, UsdPrice: usd("4.49"), Active: true, SortOrder: 3},
		{Name: "706 Diamonds", Game: models.GameMLBB, Amount: 625, Bonus: 81, UsdPrice: usd("11.99"), Active: true, SortOrder: 4},
		{Name: "2195 Diamonds", Game: models.GameMLBB, Amount: 1860, Bonus: 335, UsdPrice: usd("34.99"), Active: true, SortOrder: 5},
	}
}

// SeedPackages inserts DefaultPackages when no package exists yet.
func SeedPackages(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Package{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count packages: %w", err)
	}
	if count > 0 {
		return nil
	}

	pkgs := DefaultPackages()
	if err := db.Create(&pkgs).Error; err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}
	log.Info().Int("count", len(pkgs)).Msg("✅ Seeded packages")
	return nil
}

// BootstrapAdmin creates the first admin account if none exists.
func BootstrapAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing models.Admin
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.Admin{Username: username, PasswordHash: string(hash), Active: true}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("username", username).Msg("✅ Bootstrapped admin account")
	return nil
}
