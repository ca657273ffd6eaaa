package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	previewdomain "github.com/stowbase/stowbase/internal/billingpreview/domain"
	shipmentdomain "github.com/stowbase/stowbase/internal/shipment/domain"
)

func (s *Server) PreviewTask(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := previewdomain.TaskPreviewRequest{
		TenantID: tenantID,
		TaskID:   c.Param("id"),
	}
	if raw := strings.TrimSpace(c.Query("service_code")); raw != "" {
		req.ServiceCode = &raw
	}
	if raw := strings.TrimSpace(c.Query("quantity")); raw != "" {
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("quantity", "invalid_quantity", "invalid quantity"))
			return
		}
		req.Quantity = &qty
	}
	if raw := strings.TrimSpace(c.Query("rate")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("rate", "invalid_rate", "invalid rate"))
			return
		}
		req.Rate = &rate
	}

	preview, err := s.previewSvc.PreviewForTask(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": preview})
}

func (s *Server) PreviewShipment(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	preview, err := s.previewSvc.PreviewForShipment(c.Request.Context(), previewdomain.ShipmentPreviewRequest{
		TenantID:   tenantID,
		ShipmentID: c.Param("id"),
		Direction:  shipmentdomain.Direction(strings.TrimSpace(c.Query("direction"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": preview})
}
