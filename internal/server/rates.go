package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
)

func (s *Server) CreateRate(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ratedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	req.TenantID = tenantID

	rate, err := s.rateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rate})
}

func (s *Server) ListRates(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := ratedomain.ListRequest{
		TenantID:   tenantID,
		ActiveOnly: strings.EqualFold(c.Query("active_only"), "true"),
	}
	if code := strings.TrimSpace(c.Query("service_code")); code != "" {
		req.ServiceCode = &code
	}

	rates, err := s.rateSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rates})
}

func (s *Server) GetRate(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rate, err := s.rateSvc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rate})
}

func (s *Server) DeactivateRate(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.rateSvc.Deactivate(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
