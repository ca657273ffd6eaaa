// Package metrics exposes application-level Prometheus instruments.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the billing-core instruments. All record methods are nil-safe
// so optional wiring never panics.
type Metrics struct {
	accrualItems   *prometheus.CounterVec
	accrualRollups *prometheus.CounterVec
	accrualEvents  *prometheus.CounterVec
	rateErrors     *prometheus.CounterVec
	invoicesTotal  *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		accrualItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_accrual_items_total",
			Help: "Items considered by the storage accrual batch.",
		}, []string{"tenant_id"}),
		accrualRollups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_accrual_rollups_inserted_total",
			Help: "Storage daily rollup rows inserted.",
		}, []string{"tenant_id"}),
		accrualEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_accrual_events_emitted_total",
			Help: "Storage billing events emitted.",
		}, []string{"tenant_id"}),
		rateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_rate_errors_total",
			Help: "Soft rate-resolution errors flagged on charges.",
		}, []string{"service_code"}),
		invoicesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_invoices_created_total",
			Help: "Invoices created.",
		}, []string{"invoice_type"}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_scheduler_job_runs_total",
			Help: "Scheduler job executions.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_scheduler_job_errors_total",
			Help: "Scheduler job failures.",
		}, []string{"job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stowbase_scheduler_job_duration_seconds",
			Help:    "Scheduler job wall time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stowbase_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stowbase_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) IncAccrualItems(tenantID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.accrualItems.WithLabelValues(tenantID).Add(float64(n))
}

func (m *Metrics) IncAccrualRollups(tenantID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.accrualRollups.WithLabelValues(tenantID).Add(float64(n))
}

func (m *Metrics) IncAccrualEvents(tenantID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.accrualEvents.WithLabelValues(tenantID).Add(float64(n))
}

func (m *Metrics) IncRateError(serviceCode string) {
	if m == nil {
		return
	}
	m.rateErrors.WithLabelValues(strings.TrimSpace(serviceCode)).Inc()
}

func (m *Metrics) IncInvoiceCreated(invoiceType string) {
	if m == nil {
		return
	}
	m.invoicesTotal.WithLabelValues(strings.TrimSpace(invoiceType)).Inc()
}

func (m *Metrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobError(job string) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *Metrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
