package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/stowbase/stowbase/internal/invoice/domain"
)

type createInvoiceBody struct {
	AccountID   string                    `json:"account_id"`
	Sidemark    *string                   `json:"sidemark"`
	InvoiceType string                    `json:"invoice_type"`
	PeriodStart string                    `json:"period_start"`
	PeriodEnd   string                    `json:"period_end"`
	Lines       []invoicedomain.LineInput `json:"lines"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	accountID, err := snowflake.ParseString(strings.TrimSpace(body.AccountID))
	if err != nil {
		AbortWithError(c, newValidationError("account_id", "invalid_id", "invalid account id"))
		return
	}
	periodStart, periodEnd, err := parsePeriod(body.PeriodStart, body.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.CreateInvoice(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		TenantID:    tenantID,
		AccountID:   accountID,
		Sidemark:    body.Sidemark,
		InvoiceType: invoicedomain.InvoiceType(body.InvoiceType),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Lines:       body.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

type createFromUnbilledBody struct {
	AccountID   string `json:"account_id"`
	InvoiceType string `json:"invoice_type"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (s *Server) CreateInvoiceFromUnbilled(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createFromUnbilledBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	accountID, err := snowflake.ParseString(strings.TrimSpace(body.AccountID))
	if err != nil {
		AbortWithError(c, newValidationError("account_id", "invalid_id", "invalid account id"))
		return
	}
	periodStart, periodEnd, err := parsePeriod(body.PeriodStart, body.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.CreateFromUnbilled(c.Request.Context(), invoicedomain.CreateFromUnbilledRequest{
		TenantID:    tenantID,
		AccountID:   accountID,
		InvoiceType: invoicedomain.InvoiceType(body.InvoiceType),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := invoicedomain.ListRequest{TenantID: tenantID}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		accountID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("account_id", "invalid_id", "invalid account id"))
			return
		}
		req.AccountID = &accountID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.Status(raw)
		req.Status = &status
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoice(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoice, lines, err := s.invoiceSvc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice, "lines": lines})
}

func (s *Server) MarkInvoiceSent(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.invoiceSvc.MarkSent(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) VoidInvoice(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.invoiceSvc.Void(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parsePeriod(startRaw, endRaw string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if raw := strings.TrimSpace(startRaw); raw != "" {
		start, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, newValidationError("period_start", "invalid_date", "expected YYYY-MM-DD")
		}
	}
	if raw := strings.TrimSpace(endRaw); raw != "" {
		end, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, newValidationError("period_end", "invalid_date", "expected YYYY-MM-DD")
		}
	}
	return start, end, nil
}
