package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/stowbase/stowbase/internal/account/domain"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	"github.com/stowbase/stowbase/internal/clock"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	ratingdomain "github.com/stowbase/stowbase/internal/rating/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	"github.com/stowbase/stowbase/internal/storageaccrual/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	daysPerMonth = decimal.NewFromInt(30)
	hundred      = decimal.NewFromInt(100)
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Resolver ratingdomain.Resolver
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	resolver ratingdomain.Resolver
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("storageaccrual.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		resolver: p.Resolver,
		metrics:  p.Metrics,
	}
}

// AccrueStorageForDate rolls up one storage day for every eligible item and
// emits the matching billing events. Each item is processed independently:
// duplicate inserts are no-ops and a pricing problem degrades to a flagged
// charge instead of aborting the batch.
func (s *Service) AccrueStorageForDate(ctx context.Context, tenantID snowflake.ID, date time.Time) (domain.RunSummary, error) {
	if tenantID == 0 {
		return domain.RunSummary{}, domain.ErrInvalidTenant
	}
	if date.IsZero() {
		return domain.RunSummary{}, domain.ErrInvalidDate
	}
	date = truncateToDay(date)

	summary := domain.RunSummary{TenantID: tenantID, RollupDate: date}

	items, err := s.eligibleItems(ctx, tenantID, date)
	if err != nil {
		return summary, err
	}
	summary.ItemsConsidered = len(items)
	if len(items) == 0 {
		return summary, nil
	}

	accounts, err := s.accountSettings(ctx, tenantID)
	if err != nil {
		return summary, err
	}

	// The STORAGE rate varies only by class within a tenant, so resolve
	// once per distinct class for the whole batch.
	rateCache := map[string]ratingdomain.ResolvedRate{}

	for i := range items {
		item := &items[i]

		resolved, err := s.resolveCached(ctx, tenantID, item.ClassCode, rateCache)
		if err != nil {
			s.log.Error("rate resolution failed",
				zap.Int64("item_id", item.ID.Int64()),
				zap.Error(err),
			)
			continue
		}

		account := accounts[item.AccountID]
		dailyRate := dailyStorageRate(resolved.Rate, account.GlobalRateAdjustPct)

		if resolved.HasError {
			summary.RateErrors++
			s.metrics.IncRateError(ratedomain.ServiceCodeStorage)
		}

		inserted, err := s.insertRollup(ctx, item, date, dailyRate, resolved)
		if err != nil {
			s.log.Error("rollup insert failed",
				zap.Int64("item_id", item.ID.Int64()),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			summary.RollupsInserted++
		}

		daysInStorage := int(date.Sub(truncateToDay(item.ReceivedDate)).Hours()/24) + 1
		if daysInStorage <= account.FreeStorageDays {
			continue
		}

		emitted, err := s.emitStorageEvent(ctx, item, date, dailyRate, resolved)
		if err != nil {
			s.log.Error("storage event insert failed",
				zap.Int64("item_id", item.ID.Int64()),
				zap.Error(err),
			)
			continue
		}
		if emitted {
			summary.EventsEmitted++
		}
	}

	s.metrics.IncAccrualItems(tenantID.String(), summary.ItemsConsidered)
	s.metrics.IncAccrualRollups(tenantID.String(), summary.RollupsInserted)
	s.metrics.IncAccrualEvents(tenantID.String(), summary.EventsEmitted)

	s.log.Info("storage accrual complete",
		zap.Int64("tenant_id", tenantID.Int64()),
		zap.String("rollup_date", date.Format("2006-01-02")),
		zap.Int("items", summary.ItemsConsidered),
		zap.Int("rollups", summary.RollupsInserted),
		zap.Int("events", summary.EventsEmitted),
		zap.Int("rate_errors", summary.RateErrors),
	)

	return summary, nil
}

func (s *Service) eligibleItems(ctx context.Context, tenantID snowflake.ID, date time.Time) ([]itemdomain.Item, error) {
	var items []itemdomain.Item
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, itemdomain.ItemStatusActive).
		Where("received_date <= ?", endOfDay(date)).
		Where("released_date IS NULL OR released_date > ?", endOfDay(date)).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) accountSettings(ctx context.Context, tenantID snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]accountdomain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID, nil
}

func (s *Service) resolveCached(ctx context.Context, tenantID snowflake.ID, classCode *string, cache map[string]ratingdomain.ResolvedRate) (ratingdomain.ResolvedRate, error) {
	key := ""
	if classCode != nil {
		key = *classCode
	}
	if cached, ok := cache[key]; ok {
		return cached, nil
	}

	resolved, err := s.resolver.Resolve(ctx, tenantID, ratedomain.ServiceCodeStorage, classCode)
	if err != nil {
		return ratingdomain.ResolvedRate{}, err
	}
	cache[key] = resolved
	return resolved, nil
}

func (s *Service) insertRollup(ctx context.Context, item *itemdomain.Item, date time.Time, dailyRate decimal.Decimal, resolved ratingdomain.ResolvedRate) (bool, error) {
	rollup := domain.StorageDailyRollup{
		ID:           s.genID.Generate(),
		TenantID:     item.TenantID,
		ItemID:       item.ID,
		AccountID:    item.AccountID,
		SidemarkID:   item.SidemarkID,
		RollupDate:   date,
		ClassCode:    item.ClassCode,
		DailyRate:    dailyRate,
		HasRateError: resolved.HasError,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if resolved.HasError {
		msg := resolved.ErrorMessage
		rollup.RateErrorMessage = &msg
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "item_id"}, {Name: "rollup_date"}},
		DoNothing: true,
	}).Create(&rollup)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) emitStorageEvent(ctx context.Context, item *itemdomain.Item, date time.Time, dailyRate decimal.Decimal, resolved ratingdomain.ResolvedRate) (bool, error) {
	rollupDate := date
	event := eventdomain.BillingEvent{
		ID:           s.genID.Generate(),
		TenantID:     item.TenantID,
		AccountID:    item.AccountID,
		ItemID:       &item.ID,
		SidemarkID:   item.SidemarkID,
		EventType:    eventdomain.EventTypeStorage,
		ChargeType:   eventdomain.ChargeTypeStorageDaily,
		Description:  fmt.Sprintf("Daily storage - %s", item.ItemCode),
		Quantity:     decimal.NewFromInt(1),
		UnitRate:     dailyRate,
		TotalAmount:  dailyRate,
		Status:       eventdomain.StatusUnbilled,
		HasRateError: resolved.HasError,
		RollupDate:   &rollupDate,
		Metadata:     datatypes.JSONMap{"rollup_date": date.Format("2006-01-02")},
		CreatedAt:    s.clock.Now().UTC(),
	}
	if resolved.HasError {
		msg := resolved.ErrorMessage
		event.RateErrorMessage = &msg
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "item_id"}, {Name: "event_type"}, {Name: "rollup_date"}},
		DoNothing: true,
	}).Create(&event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// dailyStorageRate converts a monthly rate to a daily one and applies the
// account-level adjustment. The /30 is a deliberate simplification, not a
// calendar-accurate conversion.
func dailyStorageRate(monthlyRate, adjustPct decimal.Decimal) decimal.Decimal {
	daily := monthlyRate.DivRound(daysPerMonth, 4)
	if adjustPct.IsZero() {
		return daily
	}
	factor := decimal.NewFromInt(1).Add(adjustPct.Div(hundred))
	return daily.Mul(factor).Round(4)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return truncateToDay(t).Add(24*time.Hour - time.Nanosecond)
}
