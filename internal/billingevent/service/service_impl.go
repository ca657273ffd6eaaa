package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stowbase/stowbase/internal/billingevent/domain"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	ratingdomain "github.com/stowbase/stowbase/internal/rating/domain"
	"github.com/stowbase/stowbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Resolver ratingdomain.Resolver
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	resolver ratingdomain.Resolver

	eventrepo repository.Repository[domain.BillingEvent]
	itemrepo  repository.Repository[itemdomain.Item]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billingevent.service"),
		genID:    p.GenID,
		resolver: p.Resolver,

		eventrepo: repository.ProvideStore[domain.BillingEvent](p.DB),
		itemrepo:  repository.ProvideStore[itemdomain.Item](p.DB),
	}
}

// CreateServiceEvent charges one item for a service scan. The rate is
// resolved from the item's class and snapshotted onto the event; a soft
// pricing error is recorded on the event rather than failing the call.
func (s *Service) CreateServiceEvent(ctx context.Context, req domain.CreateServiceEventRequest) (*domain.BillingEvent, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	serviceCode := strings.ToUpper(strings.TrimSpace(req.ServiceCode))
	if serviceCode == "" {
		return nil, domain.ErrInvalidServiceCode
	}
	itemID, err := snowflake.ParseString(strings.TrimSpace(req.ItemID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.itemrepo.FindOne(ctx, &itemdomain.Item{ID: itemID, TenantID: req.TenantID})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	resolved, err := s.resolver.Resolve(ctx, req.TenantID, serviceCode, item.ClassCode)
	if err != nil {
		return nil, err
	}

	serviceName := resolved.ServiceName
	if serviceName == "" {
		serviceName = serviceCode
	}

	var errMsg *string
	if resolved.HasError {
		msg := resolved.ErrorMessage
		errMsg = &msg
	}

	event := &domain.BillingEvent{
		ID:               s.genID.Generate(),
		TenantID:         req.TenantID,
		AccountID:        item.AccountID,
		ItemID:           &item.ID,
		SidemarkID:       item.SidemarkID,
		EventType:        domain.EventTypeServiceScan,
		ChargeType:       serviceCode,
		Description:      fmt.Sprintf("%s - %s", serviceName, item.ItemCode),
		Quantity:         decimal.NewFromInt(1),
		UnitRate:         resolved.Rate,
		TotalAmount:      resolved.Rate,
		Status:           domain.StatusUnbilled,
		HasRateError:     resolved.HasError,
		RateErrorMessage: errMsg,
		CreatedBy:        req.CreatedBy,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}

	if event.HasRateError {
		s.log.Warn("service event created with rate error",
			zap.Int64("tenant_id", req.TenantID.Int64()),
			zap.String("service_code", serviceCode),
			zap.String("item_code", item.ItemCode),
		)
	}

	return event, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.BillingEvent, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	stmt := s.db.WithContext(ctx).
		Where("tenant_id = ?", req.TenantID).
		Order("created_at DESC")
	if req.AccountID != nil {
		stmt = stmt.Where("account_id = ?", *req.AccountID)
	}
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}
	if req.EventType != nil {
		stmt = stmt.Where("event_type = ?", *req.EventType)
	}
	if req.Limit > 0 {
		stmt = stmt.Limit(req.Limit)
	}

	var events []domain.BillingEvent
	if err := stmt.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListUnbilled returns the billable backlog for one account in a period.
// Storage events are bucketed by their accrual date, everything else by
// creation time. periodEnd is inclusive.
func (s *Service) ListUnbilled(ctx context.Context, tenantID, accountID snowflake.ID, periodStart, periodEnd time.Time) ([]domain.BillingEvent, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	stmt := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND status = ?", tenantID, accountID, domain.StatusUnbilled)
	if !periodStart.IsZero() {
		stmt = stmt.Where("COALESCE(rollup_date, created_at) >= ?", periodStart)
	}
	if !periodEnd.IsZero() {
		stmt = stmt.Where("COALESCE(rollup_date, created_at) < ?", periodEnd.AddDate(0, 0, 1))
	}

	var events []domain.BillingEvent
	if err := stmt.Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Service) Get(ctx context.Context, tenantID snowflake.ID, id string) (*domain.BillingEvent, error) {
	eventID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	event, err := s.eventrepo.FindOne(ctx, &domain.BillingEvent{ID: eventID, TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

// Void cancels an unbilled event. Invoiced and void events are terminal, so
// the status flip is guarded in the update itself rather than read-then-write.
func (s *Service) Void(ctx context.Context, tenantID snowflake.ID, id string) error {
	eventID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	res := s.db.WithContext(ctx).Model(&domain.BillingEvent{}).
		Where("id = ? AND tenant_id = ? AND status = ?", eventID, tenantID, domain.StatusUnbilled).
		Update("status", domain.StatusVoid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := s.eventrepo.FindOne(ctx, &domain.BillingEvent{ID: eventID, TenantID: tenantID})
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		return domain.ErrNotUnbilled
	}
	return nil
}
