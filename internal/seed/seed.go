// Package seed installs demo fixtures for local development.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/stowbase/stowbase/internal/account/domain"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	tenantdomain "github.com/stowbase/stowbase/internal/tenant/domain"
	"gorm.io/gorm"
)

// EnsureDemoData creates a demo tenant with an account, a rate card and a
// few items in storage. A no-op when any tenant already exists.
func EnsureDemoData(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Model(&tenantdomain.Tenant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	tenant := &tenantdomain.Tenant{
		ID:        genID.Generate(),
		Name:      "Demo Warehouse",
		IsActive:  true,
		CreatedAt: now,
	}

	account := &accountdomain.Account{
		ID:                  genID.Generate(),
		TenantID:            tenant.ID,
		Name:                "Demo Designs",
		FreeStorageDays:     5,
		StorageBillingDay:   1,
		GlobalRateAdjustPct: decimal.Zero,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	classA := "A"
	rates := []ratedomain.ServiceRate{
		{
			ID:          genID.Generate(),
			TenantID:    tenant.ID,
			ServiceCode: ratedomain.ServiceCodeStorage,
			ServiceName: "Monthly Storage",
			BillingUnit: ratedomain.UnitDay,
			Rate:        decimal.RequireFromString("45.00"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          genID.Generate(),
			TenantID:    tenant.ID,
			ServiceCode: ratedomain.ServiceCodeStorage,
			ClassCode:   &classA,
			ServiceName: "Monthly Storage",
			BillingUnit: ratedomain.UnitDay,
			Rate:        decimal.RequireFromString("90.00"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          genID.Generate(),
			TenantID:    tenant.ID,
			ServiceCode: ratedomain.ServiceCodeReceiving,
			ServiceName: "Receiving",
			BillingUnit: ratedomain.UnitItem,
			Rate:        decimal.RequireFromString("15.00"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          genID.Generate(),
			TenantID:    tenant.ID,
			ServiceCode: ratedomain.ServiceCodeShipping,
			ServiceName: "Shipping",
			BillingUnit: ratedomain.UnitItem,
			Rate:        decimal.RequireFromString("20.00"),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	items := []itemdomain.Item{
		{
			ID:           genID.Generate(),
			TenantID:     tenant.ID,
			AccountID:    account.ID,
			ItemCode:     "ITM-0001",
			ClassCode:    &classA,
			Status:       itemdomain.ItemStatusActive,
			ReceivedDate: now.AddDate(0, 0, -10),
			CreatedAt:    now,
		},
		{
			ID:           genID.Generate(),
			TenantID:     tenant.ID,
			AccountID:    account.ID,
			ItemCode:     "ITM-0002",
			Status:       itemdomain.ItemStatusActive,
			ReceivedDate: now.AddDate(0, 0, -3),
			CreatedAt:    now,
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if err := tx.Create(&rates).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
}
