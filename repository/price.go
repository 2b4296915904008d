package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"b4u/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) Append(ctx context.Context, value decimal.Decimal, source string) error {
	row := models.PiPrice{Value: value, Source: source}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store price: %w", err)
	}
	return nil
}

// Latest returns the newest stored sample.
func (r *PriceRepository) Latest(ctx context.Context) (*models.PiPrice, error) {
	var row models.PiPrice
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}
	return &row, nil
}

// PruneBefore deletes samples older than cutoff and reports how many went.
func (r *PriceRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.PiPrice{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
