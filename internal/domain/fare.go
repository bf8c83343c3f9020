package domain

// FareBreakdown itemizes how a quoted total was produced. It is immutable
// once produced; all sub-amounts are rounded to two decimals for display
// while the total is accumulated at full precision before normalization.
type FareBreakdown struct {
	BaseFare            float64
	DistanceCost        float64
	DurationCost        float64
	ServiceMultiplier   float64
	ServiceCost         float64
	SpecialDaySurcharge float64
	SpecialRuleName     string
	PeakSurcharge       float64
	Subtotal            float64
	CouponDiscount      float64
	CouponApplied       bool
	CouponReason        string
	Total               float64
}
