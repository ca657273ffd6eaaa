package storageaccrual

import (
	"github.com/stowbase/stowbase/internal/storageaccrual/service"
	"go.uber.org/fx"
)

var Module = fx.Module("storageaccrual.service",
	fx.Provide(service.NewService),
)
