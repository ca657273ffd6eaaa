package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	// AllocateNumber hands out the next tenant-unique invoice number,
	// formatted INV-######. Concurrent callers never receive the same
	// number and the allocator itself never skips one.
	AllocateNumber(ctx context.Context, tenantID snowflake.ID) (string, error)

	// CreateInvoice aggregates charges into one invoice atomically:
	// number allocation, invoice insert, line inserts and ledger status
	// flips either all commit or all roll back.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)

	// CreateFromUnbilled pulls the account's unbilled ledger events for a
	// period and invoices them in one shot.
	CreateFromUnbilled(ctx context.Context, req CreateFromUnbilledRequest) (*Invoice, error)

	List(ctx context.Context, req ListRequest) ([]Invoice, error)
	Get(ctx context.Context, tenantID snowflake.ID, id string) (*Invoice, []InvoiceLine, error)
	MarkSent(ctx context.Context, tenantID snowflake.ID, id string) error
	Void(ctx context.Context, tenantID snowflake.ID, id string) error
}

// LineInput is one charge to invoice. BillingEventID links back to the
// ledger event that will be flipped to invoiced; leave it nil for ad-hoc
// manual charges.
type LineInput struct {
	BillingEventID *snowflake.ID   `json:"billing_event_id"`
	ItemID         *snowflake.ID   `json:"item_id"`
	ServiceCode    string          `json:"service_code"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitRate       decimal.Decimal `json:"unit_rate"`
	Taxable        bool            `json:"taxable"`
}

type CreateInvoiceRequest struct {
	TenantID    snowflake.ID  `json:"-"`
	AccountID   snowflake.ID  `json:"account_id"`
	Sidemark    *string       `json:"sidemark"`
	InvoiceType InvoiceType   `json:"invoice_type"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Lines       []LineInput   `json:"lines"`
	CreatedBy   *snowflake.ID `json:"-"`
}

type CreateFromUnbilledRequest struct {
	TenantID    snowflake.ID  `json:"-"`
	AccountID   snowflake.ID  `json:"account_id"`
	InvoiceType InvoiceType   `json:"invoice_type"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	CreatedBy   *snowflake.ID `json:"-"`
}

type ListRequest struct {
	TenantID  snowflake.ID
	AccountID *snowflake.ID
	Status    *Status
	Limit     int
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNoLines        = errors.New("invoice_has_no_lines")
	ErrNotFound       = errors.New("invoice_not_found")
	ErrNotDraft       = errors.New("invoice_not_draft")
	ErrEventNotOpen   = errors.New("billing_event_not_unbilled")
)
