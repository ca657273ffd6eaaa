package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stowbase/stowbase/internal/billingevent"
	"github.com/stowbase/stowbase/internal/billingpreview"
	"github.com/stowbase/stowbase/internal/clock"
	"github.com/stowbase/stowbase/internal/config"
	"github.com/stowbase/stowbase/internal/invoice"
	"github.com/stowbase/stowbase/internal/logger"
	"github.com/stowbase/stowbase/internal/migration"
	"github.com/stowbase/stowbase/internal/observability"
	"github.com/stowbase/stowbase/internal/rating"
	"github.com/stowbase/stowbase/internal/scheduler"
	"github.com/stowbase/stowbase/internal/server"
	"github.com/stowbase/stowbase/internal/servicerate"
	"github.com/stowbase/stowbase/internal/storageaccrual"
	"github.com/stowbase/stowbase/internal/tax"
	"github.com/stowbase/stowbase/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// billing domains
		servicerate.Module,
		rating.Module,
		billingevent.Module,
		storageaccrual.Module,
		tax.Module,
		invoice.Module,
		billingpreview.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
