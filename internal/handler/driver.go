package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hail/internal/domain"
	"hail/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"` // ECONOMY, COMFORT, EXCLUSIVE
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	ServiceType string `json:"service_type"`
}

func driverToResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:          d.ID,
		Name:        d.Name,
		Phone:       d.Phone,
		Status:      string(d.Status),
		ServiceType: string(d.ServiceType),
	}
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), req.Name, req.Phone, domain.ServiceType(req.ServiceType))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, driverToResponse(driver))
}

// AvailabilityRequest is the HTTP request body for availability changes.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// SetAvailability handles PUT /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.SetAvailability(c.Request.Context(), c.Param("id"), req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverToResponse(driver))
}

// LocationRequest is the HTTP request body for a location heartbeat.
type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation handles PUT /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.driverService.Heartbeat(c.Request.Context(), c.Param("id"), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverToResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, driverToResponse(d))
	}
	c.JSON(http.StatusOK, response)
}
