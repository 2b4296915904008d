package repository

import (
	"context"
	"errors"
	"fmt"

	"b4u/models"

	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// List returns active packages ordered for display. An empty game lists all games.
func (r *PackageRepository) List(ctx context.Context, game models.Game) ([]models.Package, error) {
	var pkgs []models.Package
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if game != "" {
		q = q.Where("game = ?", game)
	}
	if err := q.Order("game ASC, sort_order ASC, usd_price ASC").Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return pkgs, nil
}

func (r *PackageRepository) GetByID(ctx context.Context, id uint) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}
