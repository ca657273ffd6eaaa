package billingpreview

import (
	"github.com/stowbase/stowbase/internal/billingpreview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingpreview.service",
	fx.Provide(service.NewService),
)
