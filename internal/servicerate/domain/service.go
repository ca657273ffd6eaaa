package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ServiceRate, error)
	List(ctx context.Context, req ListRequest) ([]ServiceRate, error)
	Get(ctx context.Context, tenantID snowflake.ID, id string) (*ServiceRate, error)
	Deactivate(ctx context.Context, tenantID snowflake.ID, id string) error
}

type CreateRequest struct {
	TenantID           snowflake.ID    `json:"-"`
	ServiceCode        string          `json:"service_code"`
	ClassCode          *string         `json:"class_code"`
	ServiceName        string          `json:"service_name"`
	BillingUnit        BillingUnit     `json:"billing_unit"`
	Rate               decimal.Decimal `json:"rate"`
	ServiceTimeMinutes int             `json:"service_time_minutes"`
	Taxable            bool            `json:"taxable"`
	UsesClassPricing   bool            `json:"uses_class_pricing"`
}

type ListRequest struct {
	TenantID    snowflake.ID
	ServiceCode *string
	ActiveOnly  bool
}

var (
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidServiceCode = errors.New("invalid_service_code")
	ErrInvalidServiceName = errors.New("invalid_service_name")
	ErrInvalidBillingUnit = errors.New("invalid_billing_unit")
	ErrInvalidRate        = errors.New("invalid_rate")
	ErrInvalidID          = errors.New("invalid_id")
	ErrDuplicateRate      = errors.New("duplicate_active_rate")
	ErrNotFound           = errors.New("rate_not_found")
)
