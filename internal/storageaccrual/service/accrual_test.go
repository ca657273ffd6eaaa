package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accountdomain "github.com/stowbase/stowbase/internal/account/domain"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	"github.com/stowbase/stowbase/internal/clock"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	ratingservice "github.com/stowbase/stowbase/internal/rating/service"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	"github.com/stowbase/stowbase/internal/storageaccrual/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      domain.Service
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ratedomain.ServiceRate{},
		&accountdomain.Account{},
		&itemdomain.Item{},
		&eventdomain.BillingEvent{},
		&domain.StorageDailyRollup{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	resolver := ratingservice.NewResolver(ratingservice.ResolverParam{DB: db, Log: zap.NewNop()})
	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)),
		Resolver: resolver,
	})

	return &fixture{db: db, node: node, svc: svc, tenantID: node.Generate()}
}

func (f *fixture) seedStorageRate(t *testing.T, monthlyRate string, classCode *string) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&ratedomain.ServiceRate{
		ID:          f.node.Generate(),
		TenantID:    f.tenantID,
		ServiceCode: ratedomain.ServiceCodeStorage,
		ClassCode:   classCode,
		ServiceName: "Monthly Storage",
		BillingUnit: ratedomain.UnitDay,
		Rate:        decimal.RequireFromString(monthlyRate),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
}

func (f *fixture) seedAccount(t *testing.T, freeDays int, adjustPct string) snowflake.ID {
	t.Helper()

	account := &accountdomain.Account{
		ID:                  f.node.Generate(),
		TenantID:            f.tenantID,
		Name:                "Test Account",
		FreeStorageDays:     freeDays,
		StorageBillingDay:   1,
		GlobalRateAdjustPct: decimal.RequireFromString(adjustPct),
		IsActive:            true,
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(account).Error)
	return account.ID
}

func (f *fixture) seedItem(t *testing.T, accountID snowflake.ID, itemCode string, classCode *string, received time.Time, released *time.Time) *itemdomain.Item {
	t.Helper()

	status := itemdomain.ItemStatusActive
	item := &itemdomain.Item{
		ID:           f.node.Generate(),
		TenantID:     f.tenantID,
		AccountID:    accountID,
		ItemCode:     itemCode,
		ClassCode:    classCode,
		Status:       status,
		ReceivedDate: received,
		ReleasedDate: released,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *fixture) countRollups(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.StorageDailyRollup{}).Where("tenant_id = ?", f.tenantID).Count(&n).Error)
	return n
}

func (f *fixture) countEvents(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&eventdomain.BillingEvent{}).Where("tenant_id = ?", f.tenantID).Count(&n).Error)
	return n
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAccrualIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedStorageRate(t, "45.00", nil)
	accountID := f.seedAccount(t, 0, "0")
	f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	ctx := context.Background()
	first, err := f.svc.AccrueStorageForDate(ctx, f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, first.RollupsInserted)
	assert.Equal(t, 1, first.EventsEmitted)

	second, err := f.svc.AccrueStorageForDate(ctx, f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, second.RollupsInserted)
	assert.Equal(t, 0, second.EventsEmitted)

	assert.EqualValues(t, 1, f.countRollups(t))
	assert.EqualValues(t, 1, f.countEvents(t))
}

func TestAccrualThreeDayScenario(t *testing.T) {
	// $45/month / 30 = $1.50/day, no free days: 3 runs produce 3 rollups
	// and 3 unbilled events totaling $4.50.
	f := newFixture(t)
	f.seedStorageRate(t, "45.00", nil)
	accountID := f.seedAccount(t, 0, "0")
	item := f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	ctx := context.Background()
	for d := 1; d <= 3; d++ {
		summary, err := f.svc.AccrueStorageForDate(ctx, f.tenantID, day(2024, 1, d))
		require.NoError(t, err)
		assert.Equal(t, 1, summary.RollupsInserted)
		assert.Equal(t, 1, summary.EventsEmitted)
	}

	var rollups []domain.StorageDailyRollup
	require.NoError(t, f.db.Where("tenant_id = ? AND item_id = ?", f.tenantID, item.ID).Find(&rollups).Error)
	require.Len(t, rollups, 3)
	for _, r := range rollups {
		assert.True(t, r.DailyRate.Equal(decimal.RequireFromString("1.50")), "daily rate %s", r.DailyRate)
	}

	var events []eventdomain.BillingEvent
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).Find(&events).Error)
	require.Len(t, events, 3)

	total := decimal.Zero
	for _, e := range events {
		assert.Equal(t, eventdomain.StatusUnbilled, e.Status)
		assert.Equal(t, eventdomain.ChargeTypeStorageDaily, e.ChargeType)
		total = total.Add(e.TotalAmount)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("4.50")), "total %s", total)
}

func TestAccrualRespectsFreeStorageDays(t *testing.T) {
	f := newFixture(t)
	f.seedStorageRate(t, "45.00", nil)
	accountID := f.seedAccount(t, 5, "0")
	f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	ctx := context.Background()
	for d := 1; d <= 6; d++ {
		_, err := f.svc.AccrueStorageForDate(ctx, f.tenantID, day(2024, 1, d))
		require.NoError(t, err)
	}

	// rollups accrue from day one, charges only after the grace period
	assert.EqualValues(t, 6, f.countRollups(t))
	assert.EqualValues(t, 1, f.countEvents(t))

	var event eventdomain.BillingEvent
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).First(&event).Error)
	require.NotNil(t, event.RollupDate)
	assert.Equal(t, "2024-01-06", event.RollupDate.Format("2006-01-02"))
}

func TestAccrualAppliesGlobalRateAdjustment(t *testing.T) {
	f := newFixture(t)
	f.seedStorageRate(t, "45.00", nil)
	accountID := f.seedAccount(t, 0, "10")
	item := f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	_, err := f.svc.AccrueStorageForDate(context.Background(), f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)

	var rollup domain.StorageDailyRollup
	require.NoError(t, f.db.Where("item_id = ?", item.ID).First(&rollup).Error)
	assert.True(t, rollup.DailyRate.Equal(decimal.RequireFromString("1.65")), "daily rate %s", rollup.DailyRate)
}

func TestAccrualUsesClassSpecificRate(t *testing.T) {
	f := newFixture(t)
	classA := "A"
	f.seedStorageRate(t, "45.00", nil)
	f.seedStorageRate(t, "90.00", &classA)
	accountID := f.seedAccount(t, 0, "0")
	defaultItem := f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)
	classItem := f.seedItem(t, accountID, "ITM-0002", &classA, day(2024, 1, 1), nil)

	_, err := f.svc.AccrueStorageForDate(context.Background(), f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)

	var defaultRollup, classRollup domain.StorageDailyRollup
	require.NoError(t, f.db.Where("item_id = ?", defaultItem.ID).First(&defaultRollup).Error)
	require.NoError(t, f.db.Where("item_id = ?", classItem.ID).First(&classRollup).Error)
	assert.True(t, defaultRollup.DailyRate.Equal(decimal.RequireFromString("1.50")))
	assert.True(t, classRollup.DailyRate.Equal(decimal.RequireFromString("3.00")))
}

func TestAccrualSkipsReleasedAndFutureItems(t *testing.T) {
	f := newFixture(t)
	f.seedStorageRate(t, "45.00", nil)
	accountID := f.seedAccount(t, 0, "0")

	released := day(2024, 1, 3)
	f.seedItem(t, accountID, "ITM-GONE", nil, day(2024, 1, 1), &released)
	f.seedItem(t, accountID, "ITM-LATER", nil, day(2024, 2, 1), nil)
	f.seedItem(t, accountID, "ITM-HERE", nil, day(2024, 1, 1), nil)

	summary, err := f.svc.AccrueStorageForDate(context.Background(), f.tenantID, day(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsConsidered)
	assert.Equal(t, 1, summary.RollupsInserted)
}

func TestAccrualPropagatesRateErrors(t *testing.T) {
	f := newFixture(t)
	// only a class-pricing default exists; the item has no class
	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&ratedomain.ServiceRate{
		ID:               f.node.Generate(),
		TenantID:         f.tenantID,
		ServiceCode:      ratedomain.ServiceCodeStorage,
		ServiceName:      "Monthly Storage",
		BillingUnit:      ratedomain.UnitDay,
		Rate:             decimal.RequireFromString("45.00"),
		UsesClassPricing: true,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}).Error)
	accountID := f.seedAccount(t, 0, "0")
	item := f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	summary, err := f.svc.AccrueStorageForDate(context.Background(), f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RateErrors)

	var rollup domain.StorageDailyRollup
	require.NoError(t, f.db.Where("item_id = ?", item.ID).First(&rollup).Error)
	assert.True(t, rollup.HasRateError)
	assert.True(t, rollup.DailyRate.Equal(decimal.RequireFromString("1.50")))

	var event eventdomain.BillingEvent
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).First(&event).Error)
	assert.True(t, event.HasRateError)
	require.NotNil(t, event.RateErrorMessage)
	assert.Equal(t, "Item has no class assigned - using default rate", *event.RateErrorMessage)
}

func TestAccrualMissingRateStillRollsUpAtZero(t *testing.T) {
	f := newFixture(t)
	accountID := f.seedAccount(t, 0, "0")
	item := f.seedItem(t, accountID, "ITM-0001", nil, day(2024, 1, 1), nil)

	summary, err := f.svc.AccrueStorageForDate(context.Background(), f.tenantID, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RollupsInserted)
	assert.Equal(t, 1, summary.EventsEmitted)

	var rollup domain.StorageDailyRollup
	require.NoError(t, f.db.Where("item_id = ?", item.ID).First(&rollup).Error)
	assert.True(t, rollup.DailyRate.IsZero())
	assert.True(t, rollup.HasRateError)
}
