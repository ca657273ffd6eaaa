// Package domain defines the read-only billing preview contract.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	shipmentdomain "github.com/stowbase/stowbase/internal/shipment/domain"
)

// PreviewLine is one would-be charge. Nothing here is persisted.
type PreviewLine struct {
	ItemID       snowflake.ID    `json:"item_id"`
	ItemCode     string          `json:"item_code"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitRate     decimal.Decimal `json:"unit_rate"`
	LineTotal    decimal.Decimal `json:"line_total"`
	HasRateError bool            `json:"has_rate_error"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Preview shows what completing a task or shipment would charge. Suppressed
// is set when the real billing event already exists, so a combined
// existing-plus-pending view never double counts.
type Preview struct {
	Lines       []PreviewLine   `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	HasErrors   bool            `json:"has_errors"`
	ServiceCode string          `json:"service_code"`
	ServiceName string          `json:"service_name"`
	Suppressed  bool            `json:"suppressed"`
}

type TaskPreviewRequest struct {
	TenantID    snowflake.ID
	TaskID      string
	ServiceCode *string
	Quantity    *decimal.Decimal
	Rate        *decimal.Decimal
}

type ShipmentPreviewRequest struct {
	TenantID   snowflake.ID
	ShipmentID string
	Direction  shipmentdomain.Direction
}

type Service interface {
	PreviewForTask(ctx context.Context, req TaskPreviewRequest) (Preview, error)
	PreviewForShipment(ctx context.Context, req ShipmentPreviewRequest) (Preview, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidDirection = errors.New("invalid_direction")
	ErrTaskNotFound     = errors.New("task_not_found")
	ErrShipmentNotFound = errors.New("shipment_not_found")
)
