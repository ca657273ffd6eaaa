package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	"github.com/stowbase/stowbase/pkg/db"
	"github.com/stowbase/stowbase/pkg/db/option"
	"github.com/stowbase/stowbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	raterepo repository.Repository[ratedomain.ServiceRate]
}

func NewService(p ServiceParam) ratedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("servicerate.service"),
		genID: p.GenID,

		raterepo: repository.ProvideStore[ratedomain.ServiceRate](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req ratedomain.CreateRequest) (*ratedomain.ServiceRate, error) {
	if req.TenantID == 0 {
		return nil, ratedomain.ErrInvalidTenant
	}

	serviceCode := strings.ToUpper(strings.TrimSpace(req.ServiceCode))
	if serviceCode == "" {
		return nil, ratedomain.ErrInvalidServiceCode
	}
	serviceName := strings.TrimSpace(req.ServiceName)
	if serviceName == "" {
		return nil, ratedomain.ErrInvalidServiceName
	}
	switch req.BillingUnit {
	case ratedomain.UnitDay, ratedomain.UnitItem, ratedomain.UnitTask:
	default:
		return nil, ratedomain.ErrInvalidBillingUnit
	}
	if req.Rate.IsNegative() {
		return nil, ratedomain.ErrInvalidRate
	}

	var classCode *string
	if req.ClassCode != nil {
		trimmed := strings.ToUpper(strings.TrimSpace(*req.ClassCode))
		if trimmed != "" {
			classCode = &trimmed
		}
	}

	now := time.Now().UTC()
	rate := &ratedomain.ServiceRate{
		ID:                 s.genID.Generate(),
		TenantID:           req.TenantID,
		ServiceCode:        serviceCode,
		ClassCode:          classCode,
		ServiceName:        serviceName,
		BillingUnit:        req.BillingUnit,
		Rate:               req.Rate.Round(2),
		ServiceTimeMinutes: req.ServiceTimeMinutes,
		Taxable:            req.Taxable,
		UsesClassPricing:   req.UsesClassPricing,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findActive(ctx, tx, req.TenantID, serviceCode, classCode)
		if err != nil {
			return err
		}
		if existing != nil {
			return ratedomain.ErrDuplicateRate
		}
		return tx.Create(rate).Error
	})
	if err != nil {
		// the partial unique index catches races the pre-check missed
		if db.IsDuplicateKeyErr(err) {
			return nil, ratedomain.ErrDuplicateRate
		}
		return nil, err
	}

	return rate, nil
}

func (s *Service) List(ctx context.Context, req ratedomain.ListRequest) ([]ratedomain.ServiceRate, error) {
	if req.TenantID == 0 {
		return nil, ratedomain.ErrInvalidTenant
	}

	filter := &ratedomain.ServiceRate{TenantID: req.TenantID}
	if req.ServiceCode != nil {
		filter.ServiceCode = strings.ToUpper(strings.TrimSpace(*req.ServiceCode))
	}
	if req.ActiveOnly {
		filter.IsActive = true
	}

	items, err := s.raterepo.Find(ctx, filter, option.WithSortBy(option.QuerySortBy{
		Allow: map[string]bool{"created_at": true, "service_code": true},
		Field: "service_code",
	}))
	if err != nil {
		return nil, err
	}

	rates := make([]ratedomain.ServiceRate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rates = append(rates, *item)
	}
	return rates, nil
}

func (s *Service) Get(ctx context.Context, tenantID snowflake.ID, id string) (*ratedomain.ServiceRate, error) {
	rateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, ratedomain.ErrInvalidID
	}

	rate, err := s.raterepo.FindOne(ctx, &ratedomain.ServiceRate{ID: rateID, TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, ratedomain.ErrNotFound
	}
	return rate, nil
}

func (s *Service) Deactivate(ctx context.Context, tenantID snowflake.ID, id string) error {
	rate, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&ratedomain.ServiceRate{}).
		Where("id = ? AND tenant_id = ?", rate.ID, tenantID).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Service) findActive(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.ServiceRate, error) {
	stmt := tx.WithContext(ctx).
		Where("tenant_id = ? AND service_code = ? AND is_active = ?", tenantID, serviceCode, true)
	if classCode == nil {
		stmt = stmt.Where("class_code IS NULL")
	} else {
		stmt = stmt.Where("class_code = ?", *classCode)
	}

	var rate ratedomain.ServiceRate
	err := stmt.First(&rate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}
