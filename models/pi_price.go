package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PiPrice is an append-only history of Pi/USD samples.
type PiPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Value     decimal.Decimal `gorm:"type:numeric(20,7);not null" json:"value"`
	Source    string          `gorm:"size:32" json:"source"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}
