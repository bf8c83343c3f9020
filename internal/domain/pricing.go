package domain

import "time"

// ServiceType represents the service class requested for a ride.
type ServiceType string

const (
	ServiceTypeEconomy   ServiceType = "ECONOMY"
	ServiceTypeComfort   ServiceType = "COMFORT"
	ServiceTypeExclusive ServiceType = "EXCLUSIVE"
)

// Valid reports whether the service type is one of the known classes.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeEconomy, ServiceTypeComfort, ServiceTypeExclusive:
		return true
	}
	return false
}

// TripFacts are the immutable route facts a quote is computed from.
// Distance and duration come from an external routing collaborator.
type TripFacts struct {
	DistanceKm      float64
	DurationMinutes float64
	ServiceType     ServiceType
	RideTime        time.Time
	CouponCode      string
}

// SpecialFareRule applies a percentage surcharge when the ride date falls
// inside [StartDate, EndDate]. Rules are scanned in declared order and the
// first match wins, so overlapping ranges are resolved by position.
type SpecialFareRule struct {
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	SurchargePercent float64
}

// PeakTimeRule applies a percentage surcharge when the ride's time of day
// falls inside [StartTime, EndTime]. Times are "HH:mm" strings and the
// range may wrap past midnight (e.g. 23:00-05:00). First match wins.
type PeakTimeRule struct {
	StartTime        string
	EndTime          string
	SurchargePercent float64
}

// PricingConfig is the long-lived, admin-mutated pricing configuration.
// It is read-mostly; the fare calculator never mutates it.
type PricingConfig struct {
	BaseFare                float64
	PerKmFare               float64
	PerMinuteFare           float64
	ServiceMultipliers      map[ServiceType]float64
	SpecialFareRules        []SpecialFareRule
	PeakTimeRules           []PeakTimeRule
	NegotiationRangePercent float64
	UpdatedAt               time.Time
}

// Multiplier returns the configured multiplier for the service type and
// whether it was actually configured. Callers fall back to 1.0 when it was
// not, flagging a configuration error.
func (c *PricingConfig) Multiplier(st ServiceType) (float64, bool) {
	m, ok := c.ServiceMultipliers[st]
	return m, ok
}
