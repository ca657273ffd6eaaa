package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stowbase/stowbase/internal/servicerate/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	node     *snowflake.Node
	svc      domain.Service
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ServiceRate{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})

	return &fixture{node: node, svc: svc, tenantID: node.Generate()}
}

func TestCreateNormalizesCodes(t *testing.T) {
	f := newFixture(t)
	classA := " a "

	rate, err := f.svc.Create(context.Background(), domain.CreateRequest{
		TenantID:    f.tenantID,
		ServiceCode: " crating ",
		ClassCode:   &classA,
		ServiceName: "Custom Crating",
		BillingUnit: domain.UnitItem,
		Rate:        decimal.RequireFromString("85.005"),
	})
	require.NoError(t, err)

	assert.Equal(t, "CRATING", rate.ServiceCode)
	require.NotNil(t, rate.ClassCode)
	assert.Equal(t, "A", *rate.ClassCode)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("85.01")))
	assert.True(t, rate.IsActive)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{
			name: "missing tenant",
			req:  domain.CreateRequest{ServiceCode: "STORAGE", ServiceName: "Storage", BillingUnit: domain.UnitDay},
			want: domain.ErrInvalidTenant,
		},
		{
			name: "blank service code",
			req:  domain.CreateRequest{TenantID: f.tenantID, ServiceCode: "  ", ServiceName: "Storage", BillingUnit: domain.UnitDay},
			want: domain.ErrInvalidServiceCode,
		},
		{
			name: "blank service name",
			req:  domain.CreateRequest{TenantID: f.tenantID, ServiceCode: "STORAGE", BillingUnit: domain.UnitDay},
			want: domain.ErrInvalidServiceName,
		},
		{
			name: "unknown billing unit",
			req:  domain.CreateRequest{TenantID: f.tenantID, ServiceCode: "STORAGE", ServiceName: "Storage", BillingUnit: "HOUR"},
			want: domain.ErrInvalidBillingUnit,
		},
		{
			name: "negative rate",
			req: domain.CreateRequest{
				TenantID: f.tenantID, ServiceCode: "STORAGE", ServiceName: "Storage",
				BillingUnit: domain.UnitDay, Rate: decimal.RequireFromString("-1"),
			},
			want: domain.ErrInvalidRate,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateRejectsDuplicateActiveRate(t *testing.T) {
	f := newFixture(t)

	req := domain.CreateRequest{
		TenantID:    f.tenantID,
		ServiceCode: "STORAGE",
		ServiceName: "Monthly Storage",
		BillingUnit: domain.UnitDay,
		Rate:        decimal.RequireFromString("45.00"),
	}
	first, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDuplicateRate)

	// a class-specific row does not collide with the default row
	classA := "A"
	classReq := req
	classReq.ClassCode = &classA
	_, err = f.svc.Create(context.Background(), classReq)
	require.NoError(t, err)

	// deactivating the default frees the slot for a replacement
	require.NoError(t, f.svc.Deactivate(context.Background(), f.tenantID, first.ID.String()))
	_, err = f.svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)

	storage, err := f.svc.Create(context.Background(), domain.CreateRequest{
		TenantID:    f.tenantID,
		ServiceCode: "STORAGE",
		ServiceName: "Monthly Storage",
		BillingUnit: domain.UnitDay,
		Rate:        decimal.RequireFromString("45.00"),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), domain.CreateRequest{
		TenantID:    f.tenantID,
		ServiceCode: "RECEIVING",
		ServiceName: "Receiving",
		BillingUnit: domain.UnitItem,
		Rate:        decimal.RequireFromString("15.00"),
	})
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), domain.ListRequest{TenantID: f.tenantID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	code := "storage"
	byCode, err := f.svc.List(context.Background(), domain.ListRequest{TenantID: f.tenantID, ServiceCode: &code})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "STORAGE", byCode[0].ServiceCode)

	require.NoError(t, f.svc.Deactivate(context.Background(), f.tenantID, storage.ID.String()))
	active, err := f.svc.List(context.Background(), domain.ListRequest{TenantID: f.tenantID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "RECEIVING", active[0].ServiceCode)

	other, err := f.svc.List(context.Background(), domain.ListRequest{TenantID: f.node.Generate()})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGetScopesToTenant(t *testing.T) {
	f := newFixture(t)

	rate, err := f.svc.Create(context.Background(), domain.CreateRequest{
		TenantID:    f.tenantID,
		ServiceCode: "STORAGE",
		ServiceName: "Monthly Storage",
		BillingUnit: domain.UnitDay,
		Rate:        decimal.RequireFromString("45.00"),
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.tenantID, rate.ID.String())
	require.NoError(t, err)
	assert.Equal(t, rate.ID, got.ID)

	_, err = f.svc.Get(context.Background(), f.node.Generate(), rate.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(context.Background(), f.tenantID, "not-a-snowflake")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
