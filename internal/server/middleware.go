package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stowbase/stowbase/internal/observability/metrics"
	"github.com/stowbase/stowbase/pkg/tenantctx"
)

const (
	HeaderTenant    = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"

	contextTenantIDKey = "tenant_id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// TenantContext resolves the tenant from the X-Tenant-ID header and injects
// it into the request context. Every /v1 route is tenant scoped.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		tenantID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextTenantIDKey, tenantID)
		c.Request = c.Request.WithContext(tenantctx.WithTenantID(c.Request.Context(), tenantID.Int64()))
		c.Next()
	}
}

func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func tenantFromContext(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextTenantIDKey)
	if !ok {
		return 0, false
	}
	tenantID, ok := value.(snowflake.ID)
	return tenantID, ok
}
