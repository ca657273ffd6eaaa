package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
)

func (s *Server) CreateServiceEvent(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req eventdomain.CreateServiceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	req.TenantID = tenantID

	event, err := s.eventSvc.CreateServiceEvent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": event})
}

func (s *Server) ListBillingEvents(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := eventdomain.ListRequest{TenantID: tenantID}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		accountID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("account_id", "invalid_id", "invalid account id"))
			return
		}
		req.AccountID = &accountID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := eventdomain.Status(raw)
		req.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("event_type")); raw != "" {
		eventType := eventdomain.EventType(raw)
		req.EventType = &eventType
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		req.Limit = limit
	}

	events, err := s.eventSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (s *Server) GetBillingEvent(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	event, err := s.eventSvc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) VoidBillingEvent(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.eventSvc.Void(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
