package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hail/internal/domain"
	"hail/internal/service"
)

// AdminHandler handles operator endpoints: pricing configuration and
// coupon management.
type AdminHandler struct {
	fareService   *service.FareService
	couponService *service.CouponService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(fareService *service.FareService, couponService *service.CouponService) *AdminHandler {
	return &AdminHandler{
		fareService:   fareService,
		couponService: couponService,
	}
}

// SpecialFareRuleDTO is the wire form of a special fare rule.
type SpecialFareRuleDTO struct {
	Name             string  `json:"name"`
	StartDate        string  `json:"start_date"` // YYYY-MM-DD
	EndDate          string  `json:"end_date"`   // YYYY-MM-DD
	SurchargePercent float64 `json:"surcharge_percent"`
}

// PeakTimeRuleDTO is the wire form of a peak time rule.
type PeakTimeRuleDTO struct {
	StartTime        string  `json:"start_time"` // HH:mm
	EndTime          string  `json:"end_time"`   // HH:mm
	SurchargePercent float64 `json:"surcharge_percent"`
}

// PricingConfigDTO is the wire form of the pricing configuration.
type PricingConfigDTO struct {
	BaseFare                float64              `json:"base_fare"`
	PerKmFare               float64              `json:"per_km_fare"`
	PerMinuteFare           float64              `json:"per_minute_fare"`
	ServiceMultipliers      map[string]float64   `json:"service_multipliers"`
	SpecialFareRules        []SpecialFareRuleDTO `json:"special_fare_rules"`
	PeakTimeRules           []PeakTimeRuleDTO    `json:"peak_time_rules"`
	NegotiationRangePercent float64              `json:"negotiation_range_percent"`
}

// GetPricing handles GET /v1/admin/pricing
func (h *AdminHandler) GetPricing(c *gin.Context) {
	cfg, err := h.fareService.Config(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, pricingToDTO(cfg))
}

// UpdatePricing handles PUT /v1/admin/pricing
func (h *AdminHandler) UpdatePricing(c *gin.Context) {
	var req PricingConfigDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.BaseFare < 0 || req.PerKmFare < 0 || req.PerMinuteFare < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "fares must be non-negative"})
		return
	}

	cfg := &domain.PricingConfig{
		BaseFare:                req.BaseFare,
		PerKmFare:               req.PerKmFare,
		PerMinuteFare:           req.PerMinuteFare,
		ServiceMultipliers:      map[domain.ServiceType]float64{},
		NegotiationRangePercent: req.NegotiationRangePercent,
	}
	for st, m := range req.ServiceMultipliers {
		if m < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipliers must be non-negative"})
			return
		}
		cfg.ServiceMultipliers[domain.ServiceType(st)] = m
	}
	for _, r := range req.SpecialFareRules {
		start, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		end, err := time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		cfg.SpecialFareRules = append(cfg.SpecialFareRules, domain.SpecialFareRule{
			Name:             r.Name,
			StartDate:        start,
			EndDate:          end,
			SurchargePercent: r.SurchargePercent,
		})
	}
	for _, r := range req.PeakTimeRules {
		cfg.PeakTimeRules = append(cfg.PeakTimeRules, domain.PeakTimeRule{
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
			SurchargePercent: r.SurchargePercent,
		})
	}

	if err := h.fareService.UpdateConfig(c.Request.Context(), cfg); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, pricingToDTO(cfg))
}

func pricingToDTO(cfg *domain.PricingConfig) PricingConfigDTO {
	dto := PricingConfigDTO{
		BaseFare:                cfg.BaseFare,
		PerKmFare:               cfg.PerKmFare,
		PerMinuteFare:           cfg.PerMinuteFare,
		ServiceMultipliers:      map[string]float64{},
		NegotiationRangePercent: cfg.NegotiationRangePercent,
	}
	for st, m := range cfg.ServiceMultipliers {
		dto.ServiceMultipliers[string(st)] = m
	}
	for _, r := range cfg.SpecialFareRules {
		dto.SpecialFareRules = append(dto.SpecialFareRules, SpecialFareRuleDTO{
			Name:             r.Name,
			StartDate:        r.StartDate.Format("2006-01-02"),
			EndDate:          r.EndDate.Format("2006-01-02"),
			SurchargePercent: r.SurchargePercent,
		})
	}
	for _, r := range cfg.PeakTimeRules {
		dto.PeakTimeRules = append(dto.PeakTimeRules, PeakTimeRuleDTO{
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
			SurchargePercent: r.SurchargePercent,
		})
	}
	return dto
}

// CreateCouponRequest is the HTTP request body for creating a coupon.
type CreateCouponRequest struct {
	Code         string  `json:"code"`
	DiscountType string  `json:"discount_type"` // PERCENTAGE or FIXED
	Value        float64 `json:"value"`
	ExpiryDate   string  `json:"expiry_date"` // YYYY-MM-DD
	MinSpend     float64 `json:"min_spend,omitempty"`
	UsageLimit   int     `json:"usage_limit,omitempty"`
}

// CouponResponse is the HTTP representation of a coupon.
type CouponResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	DiscountType string  `json:"discount_type"`
	Value        float64 `json:"value"`
	ExpiryDate   string  `json:"expiry_date"`
	Status       string  `json:"status"`
	MinSpend     float64 `json:"min_spend"`
	UsageLimit   int     `json:"usage_limit"`
	TimesUsed    int     `json:"times_used"`
}

func couponToResponse(cp *domain.Coupon) CouponResponse {
	return CouponResponse{
		ID:           cp.ID,
		Code:         cp.Code,
		DiscountType: string(cp.DiscountType),
		Value:        cp.Value,
		ExpiryDate:   cp.ExpiryDate.Format("2006-01-02"),
		Status:       string(cp.Status),
		MinSpend:     cp.MinSpend,
		UsageLimit:   cp.UsageLimit,
		TimesUsed:    cp.TimesUsed,
	}
}

// CreateCoupon handles POST /v1/admin/coupons
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid expiry_date, expected YYYY-MM-DD"})
		return
	}
	// Coupons expire at the end of their expiry day.
	expiry = expiry.Add(24*time.Hour - time.Second)

	coupon, err := h.couponService.Create(c.Request.Context(), req.Code, domain.DiscountType(req.DiscountType), req.Value, expiry, req.MinSpend, req.UsageLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, couponToResponse(coupon))
}

// GetCoupon handles GET /v1/admin/coupons/:code
func (h *AdminHandler) GetCoupon(c *gin.Context) {
	coupon, err := h.couponService.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, couponToResponse(coupon))
}
