package servicerate

import (
	"github.com/stowbase/stowbase/internal/servicerate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicerate.service",
	fx.Provide(service.NewService),
)
