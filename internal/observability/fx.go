package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	"github.com/stowbase/stowbase/internal/observability/tracing"
	"go.uber.org/fx"
)

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// Module wires metrics and tracing.
var Module = fx.Module("observability",
	fx.Provide(newMetrics),
	fx.Invoke(tracing.Register),
)
