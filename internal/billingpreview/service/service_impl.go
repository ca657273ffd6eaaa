package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	"github.com/stowbase/stowbase/internal/billingpreview/domain"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	ratingdomain "github.com/stowbase/stowbase/internal/rating/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	shipmentdomain "github.com/stowbase/stowbase/internal/shipment/domain"
	taskdomain "github.com/stowbase/stowbase/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sourceTypeTask     = "task"
	sourceTypeShipment = "shipment"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Resolver ratingdomain.Resolver
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	resolver ratingdomain.Resolver
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billingpreview.service"),
		resolver: p.Resolver,
	}
}

// PreviewForTask prices the items on a task as if the task were completed
// now, without writing anything. If the completion charge already landed in
// the ledger the preview suppresses itself.
func (s *Service) PreviewForTask(ctx context.Context, req domain.TaskPreviewRequest) (domain.Preview, error) {
	if req.TenantID == 0 {
		return domain.Preview{}, domain.ErrInvalidTenant
	}
	taskID, err := snowflake.ParseString(strings.TrimSpace(req.TaskID))
	if err != nil {
		return domain.Preview{}, domain.ErrInvalidID
	}

	var task taskdomain.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ? AND tenant_id = ?", taskID, req.TenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Preview{}, domain.ErrTaskNotFound
		}
		return domain.Preview{}, err
	}

	recorded, err := s.chargeRecorded(ctx, req.TenantID, sourceTypeTask, taskID)
	if err != nil {
		return domain.Preview{}, err
	}
	if recorded {
		return domain.Preview{Suppressed: true, Subtotal: decimal.Zero}, nil
	}

	serviceCode := strings.ToUpper(task.TaskType)
	if task.ServiceCode != nil && *task.ServiceCode != "" {
		serviceCode = *task.ServiceCode
	}
	if req.ServiceCode != nil && *req.ServiceCode != "" {
		serviceCode = strings.ToUpper(strings.TrimSpace(*req.ServiceCode))
	}

	items, err := s.taskItems(ctx, req.TenantID, taskID)
	if err != nil {
		return domain.Preview{}, err
	}

	return s.buildPreview(ctx, req.TenantID, serviceCode, items, req.Quantity, req.Rate)
}

// PreviewForShipment prices the receiving or shipping charge for every item
// on a shipment that has not yet been recorded in the ledger.
func (s *Service) PreviewForShipment(ctx context.Context, req domain.ShipmentPreviewRequest) (domain.Preview, error) {
	if req.TenantID == 0 {
		return domain.Preview{}, domain.ErrInvalidTenant
	}
	shipmentID, err := snowflake.ParseString(strings.TrimSpace(req.ShipmentID))
	if err != nil {
		return domain.Preview{}, domain.ErrInvalidID
	}

	var shipment shipmentdomain.Shipment
	if err := s.db.WithContext(ctx).First(&shipment, "id = ? AND tenant_id = ?", shipmentID, req.TenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Preview{}, domain.ErrShipmentNotFound
		}
		return domain.Preview{}, err
	}

	direction := req.Direction
	if direction == "" {
		direction = shipment.Direction
	}

	var serviceCode string
	switch direction {
	case shipmentdomain.DirectionReceiving:
		serviceCode = ratedomain.ServiceCodeReceiving
	case shipmentdomain.DirectionShipping:
		serviceCode = ratedomain.ServiceCodeShipping
	default:
		return domain.Preview{}, domain.ErrInvalidDirection
	}

	recorded, err := s.chargeRecorded(ctx, req.TenantID, sourceTypeShipment, shipmentID)
	if err != nil {
		return domain.Preview{}, err
	}
	if recorded {
		return domain.Preview{Suppressed: true, Subtotal: decimal.Zero}, nil
	}

	items, err := s.shipmentItems(ctx, req.TenantID, shipmentID)
	if err != nil {
		return domain.Preview{}, err
	}

	return s.buildPreview(ctx, req.TenantID, serviceCode, items, nil, nil)
}

func (s *Service) buildPreview(ctx context.Context, tenantID snowflake.ID, serviceCode string, items []itemdomain.Item, qtyOverride, rateOverride *decimal.Decimal) (domain.Preview, error) {
	preview := domain.Preview{
		ServiceCode: serviceCode,
		Subtotal:    decimal.Zero,
		Lines:       make([]domain.PreviewLine, 0, len(items)),
	}

	quantity := decimal.NewFromInt(1)
	if qtyOverride != nil && qtyOverride.IsPositive() {
		quantity = *qtyOverride
	}

	for i := range items {
		item := &items[i]

		resolved, err := s.resolver.Resolve(ctx, tenantID, serviceCode, item.ClassCode)
		if err != nil {
			return domain.Preview{}, err
		}
		if preview.ServiceName == "" && resolved.ServiceName != "" {
			preview.ServiceName = resolved.ServiceName
		}

		unitRate := resolved.Rate
		if rateOverride != nil {
			unitRate = *rateOverride
		}
		lineTotal := quantity.Mul(unitRate).Round(2)

		serviceName := resolved.ServiceName
		if serviceName == "" {
			serviceName = serviceCode
		}

		line := domain.PreviewLine{
			ItemID:       item.ID,
			ItemCode:     item.ItemCode,
			Description:  fmt.Sprintf("%s - %s", serviceName, item.ItemCode),
			Quantity:     quantity,
			UnitRate:     unitRate,
			LineTotal:    lineTotal,
			HasRateError: resolved.HasError,
			ErrorMessage: resolved.ErrorMessage,
		}
		if resolved.HasError {
			preview.HasErrors = true
		}

		preview.Lines = append(preview.Lines, line)
		preview.Subtotal = preview.Subtotal.Add(lineTotal)
	}

	return preview, nil
}

func (s *Service) chargeRecorded(ctx context.Context, tenantID snowflake.ID, sourceType string, sourceID snowflake.ID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&eventdomain.BillingEvent{}).
		Where("tenant_id = ? AND source_type = ? AND source_id = ? AND status <> ?",
			tenantID, sourceType, sourceID, eventdomain.StatusVoid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) taskItems(ctx context.Context, tenantID, taskID snowflake.ID) ([]itemdomain.Item, error) {
	var items []itemdomain.Item
	err := s.db.WithContext(ctx).
		Joins("JOIN task_items ON task_items.item_id = items.id").
		Where("task_items.tenant_id = ? AND task_items.task_id = ?", tenantID, taskID).
		Order("items.id ASC").
		Find(&items).Error
	return items, err
}

func (s *Service) shipmentItems(ctx context.Context, tenantID, shipmentID snowflake.ID) ([]itemdomain.Item, error) {
	var items []itemdomain.Item
	err := s.db.WithContext(ctx).
		Joins("JOIN shipment_items ON shipment_items.item_id = items.id").
		Where("shipment_items.tenant_id = ? AND shipment_items.shipment_id = ?", tenantID, shipmentID).
		Order("items.id ASC").
		Find(&items).Error
	return items, err
}
