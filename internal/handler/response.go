package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hail/internal/repository"
	"hail/internal/service"
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
	case errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidTripFacts),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidServiceType),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrProposalOutOfRange):
		return http.StatusBadRequest

	// Conflict errors - lost races and state machine guards
	case errors.Is(err, service.ErrAssignmentConflict),
		errors.Is(err, service.ErrRideNoLongerAvailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRideAlreadyCancelled),
		errors.Is(err, service.ErrCancelNotAllowed),
		errors.Is(err, service.ErrNegotiationClosed),
		errors.Is(err, service.ErrNoCounterPending),
		errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotOfferHolder):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoDriverAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
