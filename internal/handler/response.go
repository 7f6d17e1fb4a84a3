package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/repository"
	"fleet/internal/service"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// respondData sends a success envelope with the given status code.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{Success: true, Data: data})
}

// respondMessage sends a success envelope carrying a message and data.
func respondMessage(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

// respondError sends an error envelope with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Internal details stay in the logs.
		message = "internal server error"
	}
	c.JSON(code, Envelope{Success: false, Message: message})
}

// respondValidationErrors sends a 400 envelope listing field errors.
func respondValidationErrors(c *gin.Context, errs ...string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
	})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrPickupInPast),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropoffLocation),
		errors.Is(err, service.ErrOdometerRegression),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidRateType),
		errors.Is(err, service.ErrInvalidBookingStatus),
		errors.Is(err, service.ErrNoUpdatableFields),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest

	// Lifecycle errors - the operation is illegal in the current state
	case errors.Is(err, service.ErrVehicleUnavailable),
		errors.Is(err, service.ErrConfirmWithoutDriver),
		errors.Is(err, service.ErrNotADriver),
		errors.Is(err, service.ErrDriverNotRegistered),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingNotStartable),
		errors.Is(err, service.ErrBookingNotCompletable),
		errors.Is(err, service.ErrTripExists),
		errors.Is(err, service.ErrTripNotStartable),
		errors.Is(err, service.ErrTripNotCompletable),
		errors.Is(err, service.ErrTripNotCancellable):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, repository.ErrDuplicateEmail):
		return http.StatusConflict

	// Ownership errors
	case errors.Is(err, service.ErrNotVehicleOwner),
		errors.Is(err, service.ErrNotBookingCustomer),
		errors.Is(err, service.ErrNotAssignedDriver):
		return http.StatusForbidden

	// Auth errors
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
