package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Admin struct {
	gorm.Model

	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Active       bool       `gorm:"default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type ConsentLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	ConsentType string    `gorm:"size:32;not null" json:"consent_type"`
	Version     string    `gorm:"size:16" json:"version"`
	Accepted    bool      `json:"accepted"`
	IP          string    `gorm:"size:64" json:"ip"`
	UserAgent   string    `gorm:"size:255" json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}

type Setting struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	Key       string         `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}
