// Package domain contains the storage accrual models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// StorageDailyRollup is one idempotent per-item-per-day accrual record. The
// unique key on (tenant, item, rollup_date) is the sole correctness guard
// against double-accrual from overlapping job runs.
type StorageDailyRollup struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	TenantID         snowflake.ID    `gorm:"not null;uniqueIndex:ux_storage_rollup,priority:1"`
	ItemID           snowflake.ID    `gorm:"not null;uniqueIndex:ux_storage_rollup,priority:2"`
	AccountID        snowflake.ID    `gorm:"not null;index"`
	SidemarkID       *snowflake.ID   `gorm:""`
	RollupDate       time.Time       `gorm:"type:date;not null;uniqueIndex:ux_storage_rollup,priority:3"`
	ClassCode        *string         `gorm:"type:text"`
	DailyRate        decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	HasRateError     bool            `gorm:"not null;default:false"`
	RateErrorMessage *string         `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StorageDailyRollup) TableName() string { return "storage_daily_rollups" }

// RunSummary reports what one accrual run did.
type RunSummary struct {
	TenantID        snowflake.ID `json:"tenant_id"`
	RollupDate      time.Time    `json:"rollup_date"`
	ItemsConsidered int          `json:"items_considered"`
	RollupsInserted int          `json:"rollups_inserted"`
	EventsEmitted   int          `json:"events_emitted"`
	RateErrors      int          `json:"rate_errors"`
}
