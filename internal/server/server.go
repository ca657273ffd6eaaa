package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	previewdomain "github.com/stowbase/stowbase/internal/billingpreview/domain"
	"github.com/stowbase/stowbase/internal/config"
	invoicedomain "github.com/stowbase/stowbase/internal/invoice/domain"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	accrualdomain "github.com/stowbase/stowbase/internal/storageaccrual/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, m *metrics.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(MetricsMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Params struct {
	fx.In

	Engine *gin.Engine
	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger

	RateSvc    ratedomain.Service
	EventSvc   eventdomain.Service
	InvoiceSvc invoicedomain.Service
	PreviewSvc previewdomain.Service
	AccrualSvc accrualdomain.Service
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger

	rateSvc    ratedomain.Service
	eventSvc   eventdomain.Service
	invoiceSvc invoicedomain.Service
	previewSvc previewdomain.Service
	accrualSvc accrualdomain.Service
}

func NewServer(p Params) *Server {
	s := &Server{
		engine: p.Engine,
		cfg:    p.Config,
		db:     p.DB,
		log:    p.Log.Named("http.server"),

		rateSvc:    p.RateSvc,
		eventSvc:   p.EventSvc,
		invoiceSvc: p.InvoiceSvc,
		previewSvc: p.PreviewSvc,
		accrualSvc: p.AccrualSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1", TenantContext())

	rates := v1.Group("/rates")
	rates.POST("", s.CreateRate)
	rates.GET("", s.ListRates)
	rates.GET("/:id", s.GetRate)
	rates.DELETE("/:id", s.DeactivateRate)

	events := v1.Group("/billing-events")
	events.POST("", s.CreateServiceEvent)
	events.GET("", s.ListBillingEvents)
	events.GET("/:id", s.GetBillingEvent)
	events.POST("/:id/void", s.VoidBillingEvent)

	invoices := v1.Group("/invoices")
	invoices.POST("", s.CreateInvoice)
	invoices.POST("/from-unbilled", s.CreateInvoiceFromUnbilled)
	invoices.GET("", s.ListInvoices)
	invoices.GET("/:id", s.GetInvoice)
	invoices.POST("/:id/send", s.MarkInvoiceSent)
	invoices.POST("/:id/void", s.VoidInvoice)

	preview := v1.Group("/preview")
	preview.GET("/tasks/:id", s.PreviewTask)
	preview.GET("/shipments/:id", s.PreviewShipment)

	v1.POST("/accrual/run", s.RunAccrual)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
