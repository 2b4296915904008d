package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"b4u/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).Where("username = ? AND active = ?", username, true).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

func (r *AdminRepository) TouchLogin(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
}

type ConsentRepository struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) *ConsentRepository {
	return &ConsentRepository{db: db}
}

func (r *ConsentRepository) Create(ctx context.Context, entry *models.ConsentLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log consent: %w", err)
	}
	return nil
}

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	if err := r.db.WithContext(ctx).Where(&models.Setting{Key: key}).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &s, nil
}

// Put inserts or replaces the value stored under key.
func (r *SettingRepository) Put(ctx context.Context, key string, value datatypes.JSON) (*models.Setting, error) {
	s := models.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return r.Get(ctx, key)
}
