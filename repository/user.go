package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"b4u/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID loads a user with both game profiles.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("PubgProfile").
		Preload("MlbbProfile").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpsertByPiUID creates the user on first login and refreshes username and
// login time on later ones. Concurrent first logins for the same Pi uid
// collapse onto one row through the unique index.
func (r *UserRepository) UpsertByPiUID(ctx context.Context, piUID, username string) (*models.User, error) {
	now := time.Now()
	row := models.User{PiUID: piUID, Username: username, Locale: "en", LastLoginAt: &now}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pi_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "last_login_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var user models.User
	if err := db.Where("pi_uid = ?", piUID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateContact overwrites the non-empty contact fields.
func (r *UserRepository) UpdateContact(ctx context.Context, id uint, email, wallet, locale string) (*models.User, error) {
	updates := map[string]any{}
	if email != "" {
		updates["email"] = email
	}
	if wallet != "" {
		updates["wallet_address"] = wallet
	}
	if locale != "" {
		updates["locale"] = locale
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) SavePubgProfile(ctx context.Context, userID uint, playerID, nickname string) (*models.PubgProfile, error) {
	profile := models.PubgProfile{UserID: userID}
	err := r.db.WithContext(ctx).
		Where(models.PubgProfile{UserID: userID}).
		Assign(models.PubgProfile{PlayerID: playerID, Nickname: nickname}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save pubg profile: %w", err)
	}
	return &profile, nil
}

func (r *UserRepository) SaveMlbbProfile(ctx context.Context, userID uint, gameUserID, zoneID, nickname string) (*models.MlbbProfile, error) {
	profile := models.MlbbProfile{UserID: userID}
	err := r.db.WithContext(ctx).
		Where(models.MlbbProfile{UserID: userID}).
		Assign(models.MlbbProfile{GameUserID: gameUserID, ZoneID: zoneID, Nickname: nickname}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save mlbb profile: %w", err)
	}
	return &profile, nil
}

// List returns users newest first with the total count.
func (r *UserRepository) List(ctx context.Context, page Page) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)
	db := r.db.WithContext(ctx).Model(&models.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	err := db.Preload("PubgProfile").Preload("MlbbProfile").
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Size()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
