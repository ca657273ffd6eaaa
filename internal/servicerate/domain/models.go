// Package domain contains persistence models for the service rate catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BillingUnit is the unit a rate is charged in.
type BillingUnit string

const (
	UnitDay  BillingUnit = "DAY"
	UnitItem BillingUnit = "ITEM"
	UnitTask BillingUnit = "TASK"
)

// Well-known service codes.
const (
	ServiceCodeStorage   = "STORAGE"
	ServiceCodeReceiving = "RECEIVING"
	ServiceCodeShipping  = "SHIPPING"
)

// ServiceRate is one priced service for a tenant, optionally scoped to an
// inventory class. A nil ClassCode row is the tenant-wide default for the
// service. At most one active row may exist per (tenant, class, service).
// Billing events snapshot the rate at charge time, so later edits never
// retroactively change past charges.
type ServiceRate struct {
	ID                 snowflake.ID    `gorm:"primaryKey"`
	TenantID           snowflake.ID    `gorm:"not null;index:ix_service_rate_lookup,priority:1"`
	ServiceCode        string          `gorm:"type:text;not null;index:ix_service_rate_lookup,priority:2"`
	ClassCode          *string         `gorm:"type:text;index:ix_service_rate_lookup,priority:3"`
	ServiceName        string          `gorm:"type:text;not null"`
	BillingUnit        BillingUnit     `gorm:"type:text;not null;default:'ITEM'"`
	Rate               decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ServiceTimeMinutes int             `gorm:"not null;default:0"`
	Taxable            bool            `gorm:"not null;default:false"`
	// If true, a lookup without a concrete class falling through to this
	// default row is a soft error: billing proceeds but is flagged.
	UsesClassPricing bool      `gorm:"not null;default:false"`
	IsActive         bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceRate) TableName() string { return "service_rates" }
