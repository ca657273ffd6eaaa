package migration

import (
	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stowbase/stowbase/internal/account/domain"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	"github.com/stowbase/stowbase/internal/config"
	invoicedomain "github.com/stowbase/stowbase/internal/invoice/domain"
	itemdomain "github.com/stowbase/stowbase/internal/item/domain"
	"github.com/stowbase/stowbase/internal/seed"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	shipmentdomain "github.com/stowbase/stowbase/internal/shipment/domain"
	accrualdomain "github.com/stowbase/stowbase/internal/storageaccrual/domain"
	taskdomain "github.com/stowbase/stowbase/internal/task/domain"
	tenantdomain "github.com/stowbase/stowbase/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql dev environments use the model schema directly
			if err := conn.AutoMigrate(
				&tenantdomain.Tenant{},
				&accountdomain.Account{},
				&itemdomain.Item{},
				&taskdomain.Task{},
				&taskdomain.TaskItem{},
				&shipmentdomain.Shipment{},
				&shipmentdomain.ShipmentItem{},
				&ratedomain.ServiceRate{},
				&accrualdomain.StorageDailyRollup{},
				&eventdomain.BillingEvent{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceLine{},
				&invoicedomain.InvoiceCounter{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn, genID)
		}
		return nil
	}),
)
