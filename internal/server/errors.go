package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/stowbase/stowbase/internal/billingevent/domain"
	previewdomain "github.com/stowbase/stowbase/internal/billingpreview/domain"
	invoicedomain "github.com/stowbase/stowbase/internal/invoice/domain"
	ratedomain "github.com/stowbase/stowbase/internal/servicerate/domain"
	accrualdomain "github.com/stowbase/stowbase/internal/storageaccrual/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ratedomain.ErrInvalidTenant),
		errors.Is(err, ratedomain.ErrInvalidServiceCode),
		errors.Is(err, ratedomain.ErrInvalidServiceName),
		errors.Is(err, ratedomain.ErrInvalidBillingUnit),
		errors.Is(err, ratedomain.ErrInvalidRate),
		errors.Is(err, ratedomain.ErrInvalidID),
		errors.Is(err, eventdomain.ErrInvalidTenant),
		errors.Is(err, eventdomain.ErrInvalidServiceCode),
		errors.Is(err, eventdomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidTenant),
		errors.Is(err, invoicedomain.ErrInvalidAccount),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrNoLines),
		errors.Is(err, previewdomain.ErrInvalidTenant),
		errors.Is(err, previewdomain.ErrInvalidID),
		errors.Is(err, previewdomain.ErrInvalidDirection),
		errors.Is(err, accrualdomain.ErrInvalidTenant),
		errors.Is(err, accrualdomain.ErrInvalidDate):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ratedomain.ErrDuplicateRate),
		errors.Is(err, eventdomain.ErrNotUnbilled),
		errors.Is(err, invoicedomain.ErrNotDraft),
		errors.Is(err, invoicedomain.ErrEventNotOpen):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ratedomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrItemNotFound),
		errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, previewdomain.ErrTaskNotFound),
		errors.Is(err, previewdomain.ErrShipmentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
