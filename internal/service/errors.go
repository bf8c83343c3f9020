package service

import "errors"

var (
	// ErrNoDriverAvailable is returned when every eligible candidate has
	// declined, timed out, or gone offline. Retryable by the caller.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrAssignmentConflict is returned when a conditional assignment or
	// status update lost its race. The coordinator retries these
	// internally; it only surfaces when candidates are exhausted.
	ErrAssignmentConflict = errors.New("assignment conflict")

	// ErrRideNoLongerAvailable is returned to a driver whose accept
	// arrived after the ride was claimed, cancelled, or reassigned.
	ErrRideNoLongerAvailable = errors.New("ride no longer available")

	// ErrInvalidTransition is returned when a lifecycle transition is not
	// allowed from the ride's current status. The ride is unchanged.
	ErrInvalidTransition = errors.New("invalid ride status transition")

	// ErrRideAlreadyCancelled is returned for a duplicate cancellation.
	ErrRideAlreadyCancelled = errors.New("ride already cancelled")

	// ErrCancelNotAllowed is returned when the actor may not cancel from
	// the ride's current status (e.g. driver cancel once in progress).
	ErrCancelNotAllowed = errors.New("cancellation not allowed in current state")

	// ErrInvalidPassengerID is returned when the passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidRideID is returned when the ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripFacts is returned for negative distance or duration.
	ErrInvalidTripFacts = errors.New("invalid trip facts")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidServiceType is returned when the service type is unknown.
	ErrInvalidServiceType = errors.New("invalid service type")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrProposalOutOfRange is returned when the passenger proposes a fare
	// outside their allowed bargaining window. No state is mutated.
	ErrProposalOutOfRange = errors.New("proposed fare outside allowed range")

	// ErrNegotiationClosed is returned for proposals against a finished
	// negotiation or a ride no longer open to bargaining.
	ErrNegotiationClosed = errors.New("negotiation already closed")

	// ErrNoCounterPending is returned when no counter-offer awaits the
	// passenger's decision.
	ErrNoCounterPending = errors.New("no counter-offer pending")

	// ErrNotOfferHolder is returned when a driver responds to an offer
	// they do not currently hold.
	ErrNotOfferHolder = errors.New("driver does not hold the offer")

	// ErrCouponNotFound is surfaced as the "not applied" reason when the
	// quoted coupon code does not exist. Quotes still succeed with
	// discount 0; domain.Coupon.Usable owns the other reasons.
	ErrCouponNotFound = errors.New("coupon not found")
)
