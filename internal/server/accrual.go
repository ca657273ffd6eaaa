package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type runAccrualBody struct {
	Date string `json:"date"`
}

// RunAccrual triggers one storage accrual run for the calling tenant, used
// for backfills and manual reruns. The underlying job is idempotent.
func (s *Server) RunAccrual(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body runAccrualBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
			return
		}
	}

	// default to today; an explicit date supports backfills
	date := time.Now().UTC()
	if raw := strings.TrimSpace(body.Date); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			AbortWithError(c, newValidationError("date", "invalid_date", "expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	summary, err := s.accrualSvc.AccrueStorageForDate(c.Request.Context(), tenantID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
