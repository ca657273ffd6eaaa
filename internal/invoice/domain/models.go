// Package domain contains the invoice aggregate and numbering models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusVoid  Status = "void"
)

type InvoiceType string

const (
	TypeWeeklyServices InvoiceType = "weekly_services"
	TypeMonthlyStorage InvoiceType = "monthly_storage"
	TypeCloseout       InvoiceType = "closeout"
	TypeManual         InvoiceType = "manual"
)

// Invoice is one billed document for a single account and period. The
// invoice number is tenant-unique and sequential; voiding an invoice may
// leave a gap, the allocator itself never skips.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	TenantID      snowflake.ID    `gorm:"not null;uniqueIndex:ux_invoice_number,priority:1"`
	AccountID     snowflake.ID    `gorm:"not null;index"`
	Sidemark      *string         `gorm:"type:text"`
	InvoiceNumber string          `gorm:"type:text;not null;uniqueIndex:ux_invoice_number,priority:2"`
	InvoiceType   InvoiceType     `gorm:"type:text;not null;default:'manual'"`
	PeriodStart   time.Time       `gorm:"type:date;not null"`
	PeriodEnd     time.Time       `gorm:"type:date;not null"`
	Status        Status          `gorm:"type:text;not null;default:'draft';index"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TaxTotal      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedBy     *snowflake.ID   `gorm:""`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	SentAt        *time.Time      `gorm:""`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLine is one charge on an invoice. BillingEventID is nil for ad-hoc
// manual charges that never touched the ledger.
type InvoiceLine struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	TenantID       snowflake.ID    `gorm:"not null;index"`
	InvoiceID      snowflake.ID    `gorm:"not null;index"`
	BillingEventID *snowflake.ID   `gorm:"index"`
	ItemID         *snowflake.ID   `gorm:""`
	ServiceCode    string          `gorm:"type:text;not null"`
	Description    string          `gorm:"type:text;not null"`
	Quantity       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitRate       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	LineTotal      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }

// InvoiceCounter backs tenant-scoped gapless number allocation. One row per
// tenant, created lazily on first use. NextNumber is the number the next
// allocation will hand out.
type InvoiceCounter struct {
	TenantID   snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	NextNumber int64        `gorm:"not null;default:1"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceCounter) TableName() string { return "invoice_counters" }
