package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusSearching      RideStatus = "SEARCHING"
	RideStatusCounterOffered RideStatus = "COUNTER_OFFERED"
	RideStatusAccepted       RideStatus = "ACCEPTED"
	RideStatusArrived        RideStatus = "ARRIVED"
	RideStatusInProgress     RideStatus = "IN_PROGRESS"
	RideStatusCompleted      RideStatus = "COMPLETED"
	RideStatusCancelled      RideStatus = "CANCELLED"
)

// IsTerminal reports whether no transition may leave this status.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// CancelActor identifies who cancelled a ride.
type CancelActor string

const (
	CancelActorPassenger CancelActor = "PASSENGER"
	CancelActorDriver    CancelActor = "DRIVER"
)

// Ride represents a ride request in the system.
//
// OfferedTo holds the single driver currently owning the exclusive,
// time-bounded offer. RejectedBy grows monotonically; a driver listed
// there is never offered this ride again.
type Ride struct {
	ID             string
	PassengerID    string
	PickupAddress  string
	PickupLat      float64
	PickupLng      float64
	DropoffAddress string
	DropoffLat     float64
	DropoffLng     float64
	ServiceType    ServiceType
	PaymentMethod  PaymentMethod
	Status         RideStatus

	// AgreedFare starts as the quoted total and is replaced by whatever
	// fare negotiation settles on.
	AgreedFare float64
	Breakdown  FareBreakdown
	CouponCode string

	DriverID       string
	OfferedTo      string
	OfferExpiresAt time.Time
	RejectedBy     []string

	// Pending counter-offer surfaced to the passenger (COUNTER_OFFERED only).
	CounterAmount float64
	CounterDriver string

	CancelReason string
	CancelledBy  CancelActor
	CancelledAt  time.Time

	RequestedAt time.Time
	CompletedAt time.Time
}

// HasRejected reports whether the driver already declined or timed out on
// this ride.
func (r *Ride) HasRejected(driverID string) bool {
	for _, id := range r.RejectedBy {
		if id == driverID {
			return true
		}
	}
	return false
}
