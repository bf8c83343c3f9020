package repository

import (
	"context"
	"time"

	"hail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// Every method that changes assignment or status is a single conditional
// mutation: it returns true only when the guard held and exactly one row
// changed. Callers treat false as a lost race (AssignmentConflict), never
// as an error.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// ClaimOffer grants driverID the exclusive offer on a SEARCHING,
	// unassigned ride whose previous offer is empty or expired. A
	// displaced expired holder joins rejected_by.
	ClaimOffer(ctx context.Context, rideID, driverID string, expiresAt time.Time) (bool, error)

	// AcceptOffer transitions SEARCHING -> ACCEPTED for the driver that
	// currently holds a live offer, clearing the offer. The agreed fare is
	// left untouched: the committed column is authoritative, including any
	// negotiation settled after the caller last read the ride.
	AcceptOffer(ctx context.Context, rideID, driverID string) (bool, error)

	// ReleaseOffer clears driverID's offer. When reject is true the driver
	// is appended to rejected_by (append-only; the driver is never
	// re-offered this ride).
	ReleaseOffer(ctx context.Context, rideID, driverID string, reject bool) (bool, error)

	// SetCounterOffer transitions SEARCHING -> COUNTER_OFFERED recording
	// the driver's proposed amount for the passenger to decide on.
	SetCounterOffer(ctx context.Context, rideID, driverID string, amount float64) (bool, error)

	// AcceptCounter transitions COUNTER_OFFERED -> ACCEPTED, assigning the
	// countering driver at the countered amount.
	AcceptCounter(ctx context.Context, rideID string) (bool, error)

	// ReturnToSearch transitions COUNTER_OFFERED -> SEARCHING after the
	// passenger declines a counter-offer; the countering driver joins
	// rejected_by.
	ReturnToSearch(ctx context.Context, rideID string) (bool, error)

	// SetAgreedFare replaces the agreed fare while the ride is still
	// SEARCHING (passenger-side negotiation settled on a new price).
	SetAgreedFare(ctx context.Context, rideID string, fare float64) (bool, error)

	// UpdateStatusGuarded transitions from -> to for the assigned driver.
	UpdateStatusGuarded(ctx context.Context, rideID, driverID string, from, to domain.RideStatus) (bool, error)

	// Cancel transitions to CANCELLED if the current status is one of the
	// allowed from-statuses, recording who cancelled and why.
	Cancel(ctx context.Context, rideID string, actor domain.CancelActor, reason string, from []domain.RideStatus) (bool, error)

	// ListNeedingOffer returns SEARCHING rides whose offer is empty or
	// expired, for the coordinator's re-offer sweep.
	ListNeedingOffer(ctx context.Context, now time.Time) ([]*domain.Ride, error)
}
