package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hail/internal/service"
)

// PassengerHandler handles HTTP requests for passengers.
type PassengerHandler struct {
	passengerService *service.PassengerService
}

// NewPassengerHandler creates a new PassengerHandler.
func NewPassengerHandler(passengerService *service.PassengerService) *PassengerHandler {
	return &PassengerHandler{passengerService: passengerService}
}

// RegisterPassengerRequest is the HTTP request body for registering a passenger.
type RegisterPassengerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PassengerResponse is the HTTP representation of a passenger.
type PassengerResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	CompletedRides int    `json:"completed_rides"`
	CreatedAt      string `json:"created_at"`
}

// Register handles POST /v1/passengers
func (h *PassengerHandler) Register(c *gin.Context) {
	var req RegisterPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	passenger, err := h.passengerService.Register(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, PassengerResponse{
		ID:             passenger.ID,
		Name:           passenger.Name,
		Phone:          passenger.Phone,
		CompletedRides: passenger.CompletedRides,
		CreatedAt:      passenger.CreatedAt.Format(time.RFC3339),
	})
}

// GetPassenger handles GET /v1/passengers/:id
func (h *PassengerHandler) GetPassenger(c *gin.Context) {
	passenger, err := h.passengerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, PassengerResponse{
		ID:             passenger.ID,
		Name:           passenger.Name,
		Phone:          passenger.Phone,
		CompletedRides: passenger.CompletedRides,
		CreatedAt:      passenger.CreatedAt.Format(time.RFC3339),
	})
}
