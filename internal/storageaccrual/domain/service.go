package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service runs the daily storage accrual. Safe to invoke multiple times for
// the same date and safe to backfill past dates.
type Service interface {
	AccrueStorageForDate(ctx context.Context, tenantID snowflake.ID, date time.Time) (RunSummary, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidDate   = errors.New("invalid_date")
)
