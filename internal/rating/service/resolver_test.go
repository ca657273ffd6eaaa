package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stowbase/stowbase/internal/rating/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ratedomain.ServiceRate{}))
	return db
}

func newResolver(t *testing.T, db *gorm.DB) domain.Resolver {
	t.Helper()
	return NewResolver(ResolverParam{DB: db, Log: zap.NewNop()})
}

func seedRate(t *testing.T, db *gorm.DB, node *snowflake.Node, tenantID snowflake.ID, classCode *string, rate string, usesClassPricing, active bool) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, db.Create(&ratedomain.ServiceRate{
		ID:               node.Generate(),
		TenantID:         tenantID,
		ServiceCode:      ratedomain.ServiceCodeStorage,
		ClassCode:        classCode,
		ServiceName:      "Monthly Storage",
		BillingUnit:      ratedomain.UnitDay,
		Rate:             decimal.RequireFromString(rate),
		UsesClassPricing: usesClassPricing,
		IsActive:         active,
		CreatedAt:        now,
		UpdatedAt:        now,
	}).Error)
}

func TestResolveClassSpecificWinsOverDefault(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()
	classA := "A"
	seedRate(t, db, node, tenantID, nil, "30.00", false, true)
	seedRate(t, db, node, tenantID, &classA, "45.00", false, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "STORAGE", &classA)
	require.NoError(t, err)

	assert.False(t, got.HasError)
	assert.Empty(t, got.ErrorMessage)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, "Monthly Storage", got.ServiceName)
	assert.Equal(t, ratedomain.UnitDay, got.BillingUnit)
}

func TestResolveFallsBackToDefaultWhenClassRowMissing(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()
	classB := "B"
	seedRate(t, db, node, tenantID, nil, "30.00", false, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "STORAGE", &classB)
	require.NoError(t, err)

	assert.False(t, got.HasError)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("30.00")))
}

func TestResolveClassPricingDefaultWithoutClassFlagsSoftError(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()
	seedRate(t, db, node, tenantID, nil, "30.00", true, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "STORAGE", nil)
	require.NoError(t, err)

	assert.True(t, got.HasError)
	assert.Equal(t, "Item has no class assigned - using default rate", got.ErrorMessage)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("30.00")))
}

func TestResolveClassPricingDefaultWithClassSuppliedIsClean(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()
	classC := "C"
	seedRate(t, db, node, tenantID, nil, "30.00", true, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "STORAGE", &classC)
	require.NoError(t, err)

	assert.False(t, got.HasError)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("30.00")))
}

func TestResolveMissingServiceReturnsZeroRateSoftError(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "SHRINKWRAP", nil)
	require.NoError(t, err)

	assert.True(t, got.HasError)
	assert.Equal(t, "Service not found: SHRINKWRAP", got.ErrorMessage)
	assert.True(t, got.Rate.IsZero())
}

func TestResolveIgnoresInactiveRates(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantID := node.Generate()
	classA := "A"
	seedRate(t, db, node, tenantID, &classA, "45.00", false, false)
	seedRate(t, db, node, tenantID, nil, "30.00", false, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantID, "STORAGE", &classA)
	require.NoError(t, err)

	assert.False(t, got.HasError)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("30.00")))
}

func TestResolveIsTenantScoped(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tenantA := node.Generate()
	tenantB := node.Generate()
	seedRate(t, db, node, tenantA, nil, "30.00", false, true)

	resolver := newResolver(t, db)
	got, err := resolver.Resolve(context.Background(), tenantB, "STORAGE", nil)
	require.NoError(t, err)

	assert.True(t, got.HasError)
	assert.Equal(t, "Service not found: STORAGE", got.ErrorMessage)
}
