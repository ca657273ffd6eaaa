package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stowbase/stowbase/internal/rating/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResolverParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Resolver struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewResolver(p ResolverParam) domain.Resolver {
	return &Resolver{
		db:  p.DB,
		log: p.Log.Named("rating.resolver"),
	}
}

// Resolve looks up the effective rate for (tenant, service, class). Ordered:
// a class-specific active row wins, then the null-class default, then a zero
// rate flagged as a soft error. A class-less lookup landing on a default row
// with uses_class_pricing set also flags a soft error but keeps the default's
// numbers, so billing proceeds under review instead of stopping.
func (r *Resolver) Resolve(ctx context.Context, tenantID snowflake.ID, serviceCode string, classCode *string) (domain.ResolvedRate, error) {
	serviceCode = strings.ToUpper(strings.TrimSpace(serviceCode))

	if classCode != nil && strings.TrimSpace(*classCode) != "" {
		rate, err := r.lookup(ctx, tenantID, serviceCode, classCode)
		if err != nil {
			return domain.ResolvedRate{}, err
		}
		if rate != nil {
			return resolved(rate, false, ""), nil
		}
	}

	rate, err := r.lookup(ctx, tenantID, serviceCode, nil)
	if err != nil {
		return domain.ResolvedRate{}, err
	}
	if rate != nil {
		if rate.UsesClassPricing && (classCode == nil || strings.TrimSpace(*classCode) == "") {
			return resolved(rate, true, domain.MsgNoClassAssigned), nil
		}
		return resolved(rate, false, ""), nil
	}

	r.log.Debug("no rate configured",
		zap.Int64("tenant_id", tenantID.Int64()),
		zap.String("service_code", serviceCode),
	)

	return domain.ResolvedRate{
		ServiceCode:  serviceCode,
		Rate:         decimal.Zero,
		HasError:     true,
		ErrorMessage: fmt.Sprintf(domain.MsgServiceNotFound, serviceCode),
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, tenantID snowflake.ID, serviceCode string, classCode *string) (*ratedomain.ServiceRate, error) {
	stmt := r.db.WithContext(ctx).
		Where("tenant_id = ? AND service_code = ? AND is_active = ?", tenantID, serviceCode, true)
	if classCode == nil {
		stmt = stmt.Where("class_code IS NULL")
	} else {
		stmt = stmt.Where("class_code = ?", strings.ToUpper(strings.TrimSpace(*classCode)))
	}

	var rate ratedomain.ServiceRate
	if err := stmt.First(&rate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func resolved(rate *ratedomain.ServiceRate, hasError bool, msg string) domain.ResolvedRate {
	return domain.ResolvedRate{
		ServiceCode:        rate.ServiceCode,
		ServiceName:        rate.ServiceName,
		BillingUnit:        rate.BillingUnit,
		Rate:               rate.Rate,
		ServiceTimeMinutes: rate.ServiceTimeMinutes,
		Taxable:            rate.Taxable,
		HasError:           hasError,
		ErrorMessage:       msg,
	}
}
