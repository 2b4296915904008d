package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Game string

const (
	GamePUBG Game = "PUBG_MOBILE"
	GameMLBB Game = "MLBB"
)

func (g Game) Valid() bool {
	return g == GamePUBG || g == GameMLBB
}

// Unit is the in-game currency name shown next to Amount.
func (g Game) Unit() string {
	switch g {
	case GamePUBG:
		return "UC"
	case GameMLBB:
		return "Diamonds"
	}
	return ""
}

type Package struct {
	gorm.Model

	Name      string          `gorm:"size:64;not null" json:"name"`
	Game      Game            `gorm:"size:16;index;not null" json:"game"`
	Amount    int             `gorm:"not null" json:"amount"`
	Bonus     int             `gorm:"default:0" json:"bonus"`
	UsdPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"usd_price"`
	Active    bool            `gorm:"default:true" json:"active"`
	SortOrder int             `gorm:"default:0" json:"sort_order"`
}
