package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jypsi/cabs/internal/gateway"
	"github.com/jypsi/cabs/internal/repository"
	"github.com/jypsi/cabs/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRoute),
		errors.Is(err, service.ErrContactRequired),
		errors.Is(err, service.ErrRateNotFound),
		errors.Is(err, service.ErrInvalidPNR),
		errors.Is(err, service.ErrInvalidInvoiceID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPaymentMode),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidDriver),
		errors.Is(err, service.ErrInvalidVehicle),
		errors.Is(err, gateway.ErrMalformedCallback):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrBookingBusy),
		errors.Is(err, service.ErrGatewayPaymentImmutable),
		errors.Is(err, service.ErrNoDriverAssigned),
		errors.Is(err, service.ErrNoDriverCharge):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
