package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Partner is a sales partner account. AvailableBalance is only ever
// incremented by crediting a settlement batch.
type Partner struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name             string          `json:"name" gorm:"type:text;not null"`
	Status           AccountStatus   `json:"status" gorm:"type:text;not null"`
	AvailableBalance decimal.Decimal `json:"available_balance" gorm:"type:decimal(20,2);not null"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Partner) TableName() string { return "partners" }
