package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hail/internal/domain"
	"hail/internal/service"
)

// RideHandler handles HTTP requests for quotes, rides, negotiation and
// the ride lifecycle.
type RideHandler struct {
	fareService        *service.FareService
	rideService        *service.RideService
	negotiationService *service.NegotiationService
	assignmentService  *service.AssignmentService
	lifecycleService   *service.LifecycleService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(
	fareService *service.FareService,
	rideService *service.RideService,
	negotiationService *service.NegotiationService,
	assignmentService *service.AssignmentService,
	lifecycleService *service.LifecycleService,
) *RideHandler {
	return &RideHandler{
		fareService:        fareService,
		rideService:        rideService,
		negotiationService: negotiationService,
		assignmentService:  assignmentService,
		lifecycleService:   lifecycleService,
	}
}

// QuoteRequest is the HTTP request body for a fare quote.
type QuoteRequest struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	ServiceType     string  `json:"service_type"`
	RideTime        string  `json:"ride_time,omitempty"` // RFC3339, defaults to now
	CouponCode      string  `json:"coupon_code,omitempty"`
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	BaseFare            float64 `json:"base_fare"`
	DistanceCost        float64 `json:"distance_cost"`
	DurationCost        float64 `json:"duration_cost"`
	ServiceMultiplier   float64 `json:"service_multiplier"`
	ServiceCost         float64 `json:"service_cost"`
	SpecialDaySurcharge float64 `json:"special_day_surcharge"`
	SpecialRuleName     string  `json:"special_rule_name,omitempty"`
	PeakSurcharge       float64 `json:"peak_surcharge"`
	Subtotal            float64 `json:"subtotal"`
	CouponDiscount      float64 `json:"coupon_discount"`
	CouponApplied       bool    `json:"coupon_applied"`
	CouponReason        string  `json:"coupon_reason,omitempty"`
	Total               float64 `json:"total"`
	NormalizedTotal     float64 `json:"normalized_total"`
}

// Quote handles POST /v1/quotes
func (h *RideHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rideTime := time.Now()
	if req.RideTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.RideTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid ride_time, expected RFC3339"})
			return
		}
		rideTime = parsed
	}

	breakdown, err := h.fareService.Quote(c.Request.Context(), domain.TripFacts{
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		ServiceType:     domain.ServiceType(req.ServiceType),
		RideTime:        rideTime,
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		BaseFare:            breakdown.BaseFare,
		DistanceCost:        breakdown.DistanceCost,
		DurationCost:        breakdown.DurationCost,
		ServiceMultiplier:   breakdown.ServiceMultiplier,
		ServiceCost:         breakdown.ServiceCost,
		SpecialDaySurcharge: breakdown.SpecialDaySurcharge,
		SpecialRuleName:     breakdown.SpecialRuleName,
		PeakSurcharge:       breakdown.PeakSurcharge,
		Subtotal:            breakdown.Subtotal,
		CouponDiscount:      breakdown.CouponDiscount,
		CouponApplied:       breakdown.CouponApplied,
		CouponReason:        breakdown.CouponReason,
		Total:               breakdown.Total,
		NormalizedTotal:     service.NormalizeFare(breakdown.Total),
	})
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PassengerID     string  `json:"passenger_id"`
	PickupAddress   string  `json:"pickup_address"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DropoffAddress  string  `json:"dropoff_address"`
	DropoffLat      float64 `json:"dropoff_lat"`
	DropoffLng      float64 `json:"dropoff_lng"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	ServiceType     string  `json:"service_type"`
	PaymentMethod   string  `json:"payment_method"` // CASH, CARD, WALLET
	CouponCode      string  `json:"coupon_code,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID             string  `json:"id"`
	PassengerID    string  `json:"passenger_id"`
	PickupAddress  string  `json:"pickup_address"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	DropoffAddress string  `json:"dropoff_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	ServiceType    string  `json:"service_type"`
	PaymentMethod  string  `json:"payment_method"`
	Status         string  `json:"status"`
	AgreedFare     float64 `json:"agreed_fare"`
	DriverID       string  `json:"driver_id,omitempty"`
	OfferedTo      string  `json:"offered_to,omitempty"`
	OfferExpiresAt string  `json:"offer_expires_at,omitempty"`
	CounterAmount  float64 `json:"counter_amount,omitempty"`
	CancelledAt    string  `json:"cancelled_at,omitempty"`
	CancelledBy    string  `json:"cancelled_by,omitempty"`
	CancelReason   string  `json:"cancel_reason,omitempty"`
	RequestedAt    string  `json:"requested_at"`
	CompletedAt    string  `json:"completed_at,omitempty"`
}

func rideToResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:             r.ID,
		PassengerID:    r.PassengerID,
		PickupAddress:  r.PickupAddress,
		PickupLat:      r.PickupLat,
		PickupLng:      r.PickupLng,
		DropoffAddress: r.DropoffAddress,
		DropoffLat:     r.DropoffLat,
		DropoffLng:     r.DropoffLng,
		ServiceType:    string(r.ServiceType),
		PaymentMethod:  string(r.PaymentMethod),
		Status:         string(r.Status),
		AgreedFare:     r.AgreedFare,
		DriverID:       r.DriverID,
		OfferedTo:      r.OfferedTo,
		CounterAmount:  r.CounterAmount,
		CancelReason:   r.CancelReason,
		CancelledBy:    string(r.CancelledBy),
		RequestedAt:    r.RequestedAt.Format(time.RFC3339),
	}
	if !r.OfferExpiresAt.IsZero() {
		resp.OfferExpiresAt = r.OfferExpiresAt.Format(time.RFC3339)
	}
	if !r.CancelledAt.IsZero() {
		resp.CancelledAt = r.CancelledAt.Format(time.RFC3339)
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.RequestRide(c.Request.Context(), &service.RideRequest{
		PassengerID:     req.PassengerID,
		PickupAddress:   req.PickupAddress,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DropoffAddress:  req.DropoffAddress,
		DropoffLat:      req.DropoffLat,
		DropoffLng:      req.DropoffLng,
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		ServiceType:     domain.ServiceType(req.ServiceType),
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, rideToResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideToResponse(ride))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, rideToResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// ProposeFareRequest is the HTTP request body for a passenger fare proposal.
type ProposeFareRequest struct {
	Amount float64 `json:"amount"`
}

// ProposeFare handles POST /v1/rides/:id/propose-fare
func (h *RideHandler) ProposeFare(c *gin.Context) {
	var req ProposeFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	outcome, err := h.negotiationService.ProposeFare(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, outcome)
}

// CounterResponseRequest is the HTTP request body for the passenger's
// decision on a pending driver counter-offer.
type CounterResponseRequest struct {
	Accept bool `json:"accept"`
}

// CounterResponse handles POST /v1/rides/:id/counter-response
func (h *RideHandler) CounterResponse(c *gin.Context) {
	var req CounterResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.assignmentService.RespondToCounter(c.Request.Context(), c.Param("id"), req.Accept)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideToResponse(ride))
}

// RespondToOfferRequest is the HTTP request body for a driver's response
// to the offer they hold.
type RespondToOfferRequest struct {
	DriverID string  `json:"driver_id"`
	Decision string  `json:"decision"` // accept, reject, counter
	Amount   float64 `json:"amount,omitempty"`
}

// RespondToOffer handles POST /v1/rides/:id/respond
func (h *RideHandler) RespondToOffer(c *gin.Context) {
	var req RespondToOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.assignmentService.RespondToOffer(c.Request.Context(), c.Param("id"), req.DriverID, service.OfferDecision(req.Decision), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideToResponse(ride))
}

// AdvanceStatusRequest is the HTTP request body for a driver advancing
// the ride lifecycle.
type AdvanceStatusRequest struct {
	DriverID string `json:"driver_id"`
	Status   string `json:"status"` // ARRIVED, IN_PROGRESS, COMPLETED
}

// AdvanceStatus handles POST /v1/rides/:id/advance
func (h *RideHandler) AdvanceStatus(c *gin.Context) {
	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.lifecycleService.AdvanceStatus(c.Request.Context(), c.Param("id"), req.DriverID, domain.RideStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideToResponse(ride))
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by"` // PASSENGER or DRIVER
	Reason      string `json:"reason"`
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actor := domain.CancelActor(req.CancelledBy)
	if actor != domain.CancelActorPassenger && actor != domain.CancelActorDriver {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cancelled_by must be PASSENGER or DRIVER"})
		return
	}

	ride, err := h.lifecycleService.CancelRide(c.Request.Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideToResponse(ride))
}
