package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stowbase/stowbase/internal/clock"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	accrualdomain "github.com/stowbase/stowbase/internal/storageaccrual/domain"
	tenantdomain "github.com/stowbase/stowbase/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	AccrualSvc accrualdomain.Service
	Clock      clock.Clock
	Metrics    *metrics.Metrics `optional:"true"`
	Config     Config           `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	metrics    *metrics.Metrics
	accrualSvc accrualdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.AccrualSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		metrics:    p.Metrics,
		accrualSvc: p.AccrualSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	s.metrics.IncJobRun(name)
	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Timeout time.Duration
		Run     func(context.Context) error
	}{
		{"storage_accrual", s.cfg.AccrualTimeout, s.StorageAccrualJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Timeout, job.Run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty EnabledJobs enables everything
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// StorageAccrualJob runs today's storage accrual for every active tenant.
// The accrual itself is idempotent, so repeated runs within the same day are
// harmless. One tenant's failure never blocks the others.
func (s *Scheduler) StorageAccrualJob(ctx context.Context) error {
	today := s.clock.Now().UTC()
	var jobErr error

	offset := 0
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		tenants, err := s.fetchActiveTenants(ctx, offset, s.cfg.BatchSize)
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(tenants) == 0 {
			break
		}
		offset += len(tenants)

		for _, tenant := range tenants {
			if ctx.Err() != nil {
				return errors.Join(jobErr, ctx.Err())
			}

			summary, err := s.accrualSvc.AccrueStorageForDate(ctx, tenant.ID, today)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				s.log.Error("tenant accrual failed",
					zap.Int64("tenant_id", tenant.ID.Int64()),
					zap.Error(err),
				)
				continue
			}

			if summary.RollupsInserted > 0 || summary.EventsEmitted > 0 {
				s.log.Info("tenant accrual done",
					zap.Int64("tenant_id", tenant.ID.Int64()),
					zap.Int("rollups", summary.RollupsInserted),
					zap.Int("events", summary.EventsEmitted),
				)
			}
		}
	}

	return jobErr
}

func (s *Scheduler) fetchActiveTenants(ctx context.Context, offset, limit int) ([]tenantdomain.Tenant, error) {
	var tenants []tenantdomain.Tenant
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&tenants).Error
	return tenants, err
}
