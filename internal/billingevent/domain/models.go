// Package domain contains the billing event ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EventType classifies the business event that produced a charge.
type EventType string

const (
	EventTypeStorage        EventType = "storage"
	EventTypeServiceScan    EventType = "service_scan"
	EventTypeTaskCompletion EventType = "task_completion"
	EventTypeReceiving      EventType = "receiving"
	EventTypeShipping       EventType = "shipping"
)

// ChargeTypeStorageDaily marks system-generated daily storage charges. All
// other charge types carry the originating service code.
const ChargeTypeStorageDaily = "STORAGE_DAILY"

// Status is the ledger lifecycle state. Unbilled events are the billable
// backlog; invoiced and void are terminal.
type Status string

const (
	StatusUnbilled Status = "unbilled"
	StatusInvoiced Status = "invoiced"
	StatusVoid     Status = "void"
)

// BillingEvent is one chargeable line, independent of invoicing. RollupDate
// is set only for storage events and backs the unique index that enforces at
// most one storage charge per item per day. SourceType/SourceID point at the
// task or shipment that produced the charge so previews can suppress
// already-recorded work.
type BillingEvent struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	TenantID         snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_billing_event_rollup,priority:1"`
	AccountID        snowflake.ID      `gorm:"not null;index"`
	ItemID           *snowflake.ID     `gorm:"uniqueIndex:ux_billing_event_rollup,priority:2"`
	SidemarkID       *snowflake.ID     `gorm:""`
	EventType        EventType         `gorm:"type:text;not null;uniqueIndex:ux_billing_event_rollup,priority:3"`
	ChargeType       string            `gorm:"type:text;not null"`
	Description      string            `gorm:"type:text;not null"`
	Quantity         decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	UnitRate         decimal.Decimal   `gorm:"type:numeric(14,4);not null"`
	TotalAmount      decimal.Decimal   `gorm:"type:numeric(14,4);not null"`
	Status           Status            `gorm:"type:text;not null;default:'unbilled';index"`
	HasRateError     bool              `gorm:"not null;default:false"`
	RateErrorMessage *string           `gorm:"type:text"`
	RollupDate       *time.Time        `gorm:"type:date;uniqueIndex:ux_billing_event_rollup,priority:4"`
	SourceType       *string           `gorm:"type:text;index:ix_billing_event_source,priority:1"`
	SourceID         *snowflake.ID     `gorm:"index:ix_billing_event_source,priority:2"`
	InvoiceID        *snowflake.ID     `gorm:"index"`
	InvoicedAt       *time.Time        `gorm:""`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedBy        *snowflake.ID     `gorm:""`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }
