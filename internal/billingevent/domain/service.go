package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateServiceEvent(ctx context.Context, req CreateServiceEventRequest) (*BillingEvent, error)
	List(ctx context.Context, req ListRequest) ([]BillingEvent, error)
	ListUnbilled(ctx context.Context, tenantID, accountID snowflake.ID, periodStart, periodEnd time.Time) ([]BillingEvent, error)
	Get(ctx context.Context, tenantID snowflake.ID, id string) (*BillingEvent, error)
	Void(ctx context.Context, tenantID snowflake.ID, id string) error
}

// CreateServiceEventRequest charges a single item for an ad-hoc service scan.
// The rate is resolved from the item's class at call time and snapshotted.
type CreateServiceEventRequest struct {
	TenantID    snowflake.ID  `json:"-"`
	ItemID      string        `json:"item_id"`
	ServiceCode string        `json:"service_code"`
	CreatedBy   *snowflake.ID `json:"-"`
}

type ListRequest struct {
	TenantID  snowflake.ID
	AccountID *snowflake.ID
	Status    *Status
	EventType *EventType
	Limit     int
}

var (
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidServiceCode = errors.New("invalid_service_code")
	ErrInvalidID          = errors.New("invalid_id")
	ErrItemNotFound       = errors.New("item_not_found")
	ErrNotFound           = errors.New("billing_event_not_found")
	ErrNotUnbilled        = errors.New("billing_event_not_unbilled")
)
