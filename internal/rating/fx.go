package rating

import (
	"github.com/stowbase/stowbase/internal/rating/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rating.service",
	fx.Provide(service.NewResolver),
)
