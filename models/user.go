package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	PiUID         string     `gorm:"uniqueIndex;size:64;not null" json:"pi_uid"`
	Username      string     `gorm:"index;size:64" json:"username"`
	WalletAddress string     `gorm:"size:64" json:"wallet_address"`
	Email         string     `gorm:"size:255" json:"email"`
	Locale        string     `gorm:"size:8;default:en" json:"locale"`
	LastLoginAt   *time.Time `json:"last_login_at"`

	PubgProfile  *PubgProfile  `gorm:"foreignKey:UserID" json:"pubg_profile,omitempty"`
	MlbbProfile  *MlbbProfile  `gorm:"foreignKey:UserID" json:"mlbb_profile,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"-"`
}

type PubgProfile struct {
	gorm.Model

	UserID   uint   `gorm:"uniqueIndex" json:"user_id"`
	PlayerID string `gorm:"size:32;not null" json:"player_id"`
	Nickname string `gorm:"size:64" json:"nickname"`
}

type MlbbProfile struct {
	gorm.Model

	UserID     uint   `gorm:"uniqueIndex" json:"user_id"`
	GameUserID string `gorm:"size:32;not null" json:"game_user_id"`
	ZoneID     string `gorm:"size:16;not null" json:"zone_id"`
	Nickname   string `gorm:"size:64" json:"nickname"`
}
