// Package domain defines the rate resolution contract shared by the
// accrual, ledger and preview paths.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
)

// Soft-error messages surfaced on resolved rates. These strings are part of
// the operator-facing contract and must not change.
const (
	MsgNoClassAssigned = "Item has no class assigned - using default rate"
	MsgServiceNotFound = "Service not found: %s"
)

// ResolvedRate is the outcome of a rate lookup. Absence of a rate is never a
// Go error: it is reported through HasError/ErrorMessage so billing can
// proceed at a best-effort value and flag the charge for review.
type ResolvedRate struct {
	ServiceCode        string                 `json:"service_code"`
	ServiceName        string                 `json:"service_name"`
	BillingUnit        ratedomain.BillingUnit `json:"billing_unit"`
	Rate               decimal.Decimal        `json:"rate"`
	ServiceTimeMinutes int                    `json:"service_time_minutes"`
	Taxable            bool                   `json:"taxable"`
	HasError           bool                   `json:"has_error"`
	ErrorMessage       string                 `json:"error_message,omitempty"`
}

// Resolver maps (tenant, service, optional class) to an effective rate.
// A returned error means the lookup itself failed, not that no rate exists.
type Resolver interface {
	Resolve(ctx context.Context, tenantID snowflake.ID, serviceCode string, classCode *string) (ResolvedRate, error)
}
