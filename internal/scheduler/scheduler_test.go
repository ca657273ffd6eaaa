package scheduler

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
	accrualdomain "github.com/stowbase/stowbase/internal/storageaccrual/domain"
	accrualservice "github.com/stowbase/stowbase/internal/storageaccrual/service"
	tenantdomain "github.com/stowbase/stowbase/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	sched *Scheduler
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&accountdomain.Account{},
		&itemdomain.Item{},
		&ratedomain.ServiceRate{},
		&eventdomain.BillingEvent{},
		&accrualdomain.StorageDailyRollup{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC))
	resolver := ratingservice.NewResolver(ratingservice.ResolverParam{DB: db, Log: zap.NewNop()})
	accrualSvc := accrualservice.NewService(accrualservice.ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Resolver: resolver,
	})

	sched, err := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		AccrualSvc: accrualSvc,
		Clock:      fake,
		Config:     cfg,
	})
	require.NoError(t, err)

	return &fixture{db: db, node: node, clock: fake, sched: sched}
}

func (f *fixture) seedTenantWithItem(t *testing.T, active bool) snowflake.ID {
	t.Helper()

	tenant := &tenantdomain.Tenant{
		ID:        f.node.Generate(),
		Name:      "Tenant",
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(tenant).Error)

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&ratedomain.ServiceRate{
		ID:          f.node.Generate(),
		TenantID:    tenant.ID,
		ServiceCode: ratedomain.ServiceCodeStorage,
		ServiceName: "Monthly Storage",
		BillingUnit: ratedomain.UnitDay,
		Rate:        decimal.RequireFromString("45.00"),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)

	account := &accountdomain.Account{
		ID:                  f.node.Generate(),
		TenantID:            tenant.ID,
		Name:                "Account",
		StorageBillingDay:   1,
		GlobalRateAdjustPct: decimal.Zero,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, f.db.Create(account).Error)

	require.NoError(t, f.db.Create(&itemdomain.Item{
		ID:           f.node.Generate(),
		TenantID:     tenant.ID,
		AccountID:    account.ID,
		ItemCode:     "ITM-0001",
		Status:       itemdomain.ItemStatusActive,
		ReceivedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:    now,
	}).Error)

	return tenant.ID
}

func TestRunOnceAccruesForActiveTenants(t *testing.T) {
	f := newFixture(t, Config{})
	activeTenant := f.seedTenantWithItem(t, true)
	inactiveTenant := f.seedTenantWithItem(t, false)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	var activeCount, inactiveCount int64
	require.NoError(t, f.db.Model(&accrualdomain.StorageDailyRollup{}).Where("tenant_id = ?", activeTenant).Count(&activeCount).Error)
	require.NoError(t, f.db.Model(&accrualdomain.StorageDailyRollup{}).Where("tenant_id = ?", inactiveTenant).Count(&inactiveCount).Error)
	assert.EqualValues(t, 1, activeCount)
	assert.Zero(t, inactiveCount)

	var rollup accrualdomain.StorageDailyRollup
	require.NoError(t, f.db.Where("tenant_id = ?", activeTenant).First(&rollup).Error)
	assert.Equal(t, "2024-03-15", rollup.RollupDate.Format("2006-01-02"))
}

func TestRunOnceIsIdempotentWithinADay(t *testing.T) {
	f := newFixture(t, Config{})
	tenantID := f.seedTenantWithItem(t, true)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	require.NoError(t, f.sched.RunOnce(context.Background()))

	var count int64
	require.NoError(t, f.db.Model(&accrualdomain.StorageDailyRollup{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRunOnceAdvancesWithTheClock(t *testing.T) {
	f := newFixture(t, Config{})
	tenantID := f.seedTenantWithItem(t, true)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.sched.RunOnce(context.Background()))

	var count int64
	require.NoError(t, f.db.Model(&accrualdomain.StorageDailyRollup{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestDisabledJobIsSkipped(t *testing.T) {
	f := newFixture(t, Config{EnabledJobs: []string{"nothing"}})
	tenantID := f.seedTenantWithItem(t, true)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	var count int64
	require.NoError(t, f.db.Model(&accrualdomain.StorageDailyRollup{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
