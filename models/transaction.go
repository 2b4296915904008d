package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusCancelled  TransactionStatus = "CANCELLED"
)

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition reports whether a transaction may move from s to next.
// Statuses only move forward; COMPLETED, FAILED and CANCELLED are terminal.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TransactionStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type Transaction struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID    uint     `gorm:"index;not null" json:"user_id"`
	User      *User    `json:"user,omitempty"`
	PackageID uint     `gorm:"index;not null" json:"package_id"`
	Package   *Package `json:"package,omitempty"`

	PiAmount   decimal.Decimal `gorm:"type:numeric(20,7);not null" json:"pi_amount"`
	UsdAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"usd_amount"`
	PiPriceUsd decimal.Decimal `gorm:"type:numeric(20,7);not null" json:"pi_price_usd"`
	PriceSrc   string          `gorm:"size:32" json:"price_source"`

	GameAccountID string `gorm:"size:32" json:"game_account_id"`
	GameZoneID    string `gorm:"size:16" json:"game_zone_id"`

	Status       TransactionStatus `gorm:"size:16;index;not null" json:"status"`
	PaymentID    *string           `gorm:"size:128;uniqueIndex" json:"payment_id"`
	Txid         string            `gorm:"size:128" json:"txid"`
	Memo         string            `gorm:"size:255" json:"memo"`
	Metadata     datatypes.JSON    `json:"metadata,omitempty"`
	ErrorMessage string            `gorm:"size:512" json:"error_message,omitempty"`

	ApprovedAt  *time.Time `json:"approved_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}
