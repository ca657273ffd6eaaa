package scheduler

import (
	"context"

	"github.com/stowbase/stowbase/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:    cfg.Scheduler.RunInterval,
		AccrualTimeout: cfg.Scheduler.AccrualTimeout,
		EnabledJobs:    cfg.Scheduler.EnabledJobs,
	}.withDefaults()
}

func NewScheduler(lc fx.Lifecycle, sched *Scheduler) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
