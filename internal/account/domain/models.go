// Package domain contains the account storage-billing settings read model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Account carries the per-account billing knobs the accrual engine reads.
// Account administration owns the writes.
type Account struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	TenantID          snowflake.ID    `gorm:"not null;index"`
	Name              string          `gorm:"type:text;not null"`
	FreeStorageDays   int             `gorm:"not null;default:0"`
	StorageBillingDay int             `gorm:"not null;default:1"`
	// Signed percentage applied multiplicatively to computed daily rates.
	GlobalRateAdjustPct decimal.Decimal `gorm:"type:numeric(7,3);not null;default:0"`
	IsActive            bool            `gorm:"not null;default:true"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
