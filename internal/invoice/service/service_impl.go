package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	"github.com/stowbase/stowbase/internal/clock"
	"github.com/stowbase/stowbase/internal/invoice/domain"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	"github.com/stowbase/stowbase/internal/tax"
	"github.com/stowbase/stowbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Tax     tax.Calculator
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	tax     tax.Calculator
	metrics *metrics.Metrics

	invoicerepo repository.Repository[domain.Invoice]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		tax:     p.Tax,
		metrics: p.Metrics,

		invoicerepo: repository.ProvideStore[domain.Invoice](p.DB),
	}
}

func (s *Service) AllocateNumber(ctx context.Context, tenantID snowflake.ID) (string, error) {
	if tenantID == 0 {
		return "", domain.ErrInvalidTenant
	}

	var number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = s.allocateNumberTx(tx, tenantID)
		return err
	})
	return number, err
}

// allocateNumberTx increments the tenant counter and returns the
// pre-increment value in a single statement, so two concurrent allocations
// can never observe the same number. The upsert creates the row on first use.
func (s *Service) allocateNumberTx(tx *gorm.DB, tenantID snowflake.ID) (string, error) {
	var allocated int64
	err := tx.Raw(`
		INSERT INTO invoice_counters (tenant_id, next_number, updated_at)
		VALUES (?, 2, ?)
		ON CONFLICT (tenant_id) DO UPDATE
		SET next_number = invoice_counters.next_number + 1,
		    updated_at  = excluded.updated_at
		RETURNING next_number - 1
	`, tenantID, s.clock.Now().UTC()).Scan(&allocated).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", allocated), nil
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	if req.AccountID == 0 {
		return nil, domain.ErrInvalidAccount
	}
	if len(req.Lines) == 0 {
		return nil, domain.ErrNoLines
	}
	if req.InvoiceType == "" {
		req.InvoiceType = domain.TypeManual
	}

	var invoice *domain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		invoice, err = s.createInvoiceTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncInvoiceCreated(string(req.InvoiceType))
	s.log.Info("invoice created",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total", invoice.Total.String()),
		zap.Int("lines", len(req.Lines)),
	)
	return invoice, nil
}

func (s *Service) createInvoiceTx(ctx context.Context, tx *gorm.DB, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	number, err := s.allocateNumberTx(tx, req.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	invoice := &domain.Invoice{
		ID:            s.genID.Generate(),
		TenantID:      req.TenantID,
		AccountID:     req.AccountID,
		Sidemark:      req.Sidemark,
		InvoiceNumber: number,
		InvoiceType:   req.InvoiceType,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		Status:        domain.StatusDraft,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
	}

	subtotal := decimal.Zero
	lines := make([]domain.InvoiceLine, 0, len(req.Lines))
	taxLines := make([]tax.Line, 0, len(req.Lines))
	for _, in := range req.Lines {
		lineTotal := in.Quantity.Mul(in.UnitRate).Round(2)
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, domain.InvoiceLine{
			ID:             s.genID.Generate(),
			TenantID:       req.TenantID,
			InvoiceID:      invoice.ID,
			BillingEventID: in.BillingEventID,
			ItemID:         in.ItemID,
			ServiceCode:    strings.ToUpper(strings.TrimSpace(in.ServiceCode)),
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitRate:       in.UnitRate,
			LineTotal:      lineTotal,
		})
		taxLines = append(taxLines, tax.Line{Taxable: in.Taxable, Amount: lineTotal})
	}

	taxTotal, err := s.tax.ComputeTax(ctx, taxLines)
	if err != nil {
		return nil, err
	}

	invoice.Subtotal = subtotal.Round(2)
	invoice.TaxTotal = taxTotal.Round(2)
	invoice.Total = invoice.Subtotal.Add(invoice.TaxTotal)

	if err := tx.Create(invoice).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&lines).Error; err != nil {
		return nil, err
	}

	for _, in := range req.Lines {
		if in.BillingEventID == nil {
			continue
		}
		res := tx.Model(&eventdomain.BillingEvent{}).
			Where("id = ? AND tenant_id = ? AND status = ?", *in.BillingEventID, req.TenantID, eventdomain.StatusUnbilled).
			Updates(map[string]any{
				"status":      eventdomain.StatusInvoiced,
				"invoice_id":  invoice.ID,
				"invoiced_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		// an already-invoiced or void event rolls back the whole invoice
		if res.RowsAffected == 0 {
			return nil, domain.ErrEventNotOpen
		}
	}

	return invoice, nil
}

func (s *Service) CreateFromUnbilled(ctx context.Context, req domain.CreateFromUnbilledRequest) (*domain.Invoice, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	if req.AccountID == 0 {
		return nil, domain.ErrInvalidAccount
	}

	stmt := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND status = ?", req.TenantID, req.AccountID, eventdomain.StatusUnbilled)
	if !req.PeriodStart.IsZero() {
		stmt = stmt.Where("COALESCE(rollup_date, created_at) >= ?", req.PeriodStart)
	}
	if !req.PeriodEnd.IsZero() {
		stmt = stmt.Where("COALESCE(rollup_date, created_at) < ?", req.PeriodEnd.AddDate(0, 0, 1))
	}

	var events []eventdomain.BillingEvent
	if err := stmt.Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrNoLines
	}

	lines := make([]domain.LineInput, 0, len(events))
	for i := range events {
		e := &events[i]
		eventID := e.ID
		lines = append(lines, domain.LineInput{
			BillingEventID: &eventID,
			ItemID:         e.ItemID,
			ServiceCode:    e.ChargeType,
			Description:    e.Description,
			Quantity:       e.Quantity,
			UnitRate:       e.UnitRate,
		})
	}

	return s.CreateInvoice(ctx, domain.CreateInvoiceRequest{
		TenantID:    req.TenantID,
		AccountID:   req.AccountID,
		InvoiceType: req.InvoiceType,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Lines:       lines,
		CreatedBy:   req.CreatedBy,
	})
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Invoice, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	stmt := s.db.WithContext(ctx).
		Where("tenant_id = ?", req.TenantID).
		Order("created_at DESC")
	if req.AccountID != nil {
		stmt = stmt.Where("account_id = ?", *req.AccountID)
	}
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}
	if req.Limit > 0 {
		stmt = stmt.Limit(req.Limit)
	}

	var invoices []domain.Invoice
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Service) Get(ctx context.Context, tenantID snowflake.ID, id string) (*domain.Invoice, []domain.InvoiceLine, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, domain.ErrInvalidID
	}

	invoice, err := s.invoicerepo.FindOne(ctx, &domain.Invoice{ID: invoiceID, TenantID: tenantID})
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, domain.ErrNotFound
	}

	var lines []domain.InvoiceLine
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, nil, err
	}
	return invoice, lines, nil
}

func (s *Service) MarkSent(ctx context.Context, tenantID snowflake.ID, id string) error {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	res := s.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ? AND tenant_id = ? AND status = ?", invoiceID, tenantID, domain.StatusDraft).
		Updates(map[string]any{
			"status":  domain.StatusSent,
			"sent_at": s.clock.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.explainMissedUpdate(ctx, tenantID, invoiceID)
	}
	return nil
}

func (s *Service) Void(ctx context.Context, tenantID snowflake.ID, id string) error {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	res := s.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ? AND tenant_id = ? AND status <> ?", invoiceID, tenantID, domain.StatusVoid).
		Update("status", domain.StatusVoid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.explainMissedUpdate(ctx, tenantID, invoiceID)
	}
	return nil
}

func (s *Service) explainMissedUpdate(ctx context.Context, tenantID, invoiceID snowflake.ID) error {
	existing, err := s.invoicerepo.FindOne(ctx, &domain.Invoice{ID: invoiceID, TenantID: tenantID})
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return domain.ErrNotDraft
}
