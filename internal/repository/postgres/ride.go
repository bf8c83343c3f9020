package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"hail/internal/domain"
	"hail/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
//
// Assignment and status changes are expressed as single conditional
// UPDATEs; RowsAffected == 1 means the caller won the race. rejected_by is
// a text[] that only ever grows (array_append, never removal).
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, passenger_id, pickup_address, pickup_lat, pickup_lng,
		dropoff_address, dropoff_lat, dropoff_lng, service_type, payment_method,
		status, agreed_fare, breakdown, coupon_code, driver_id, offered_to,
		offer_expires_at, rejected_by, counter_amount, counter_driver,
		cancel_reason, cancelled_by, cancelled_at, requested_at, completed_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	breakdown, err := json.Marshal(ride.Breakdown)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), $17, $18, $19, NULLIF($20, ''),
			NULLIF($21, ''), NULLIF($22, ''), $23, $24, $25)
	`

	_, err = r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.PickupAddress,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropoffAddress,
		ride.DropoffLat,
		ride.DropoffLng,
		ride.ServiceType,
		ride.PaymentMethod,
		ride.Status,
		ride.AgreedFare,
		breakdown,
		ride.CouponCode,
		ride.DriverID,
		ride.OfferedTo,
		nullTime(ride.OfferExpiresAt),
		pq.Array(ride.RejectedBy),
		ride.CounterAmount,
		ride.CounterDriver,
		ride.CancelReason,
		string(ride.CancelledBy),
		nullTime(ride.CancelledAt),
		ride.RequestedAt,
		nullTime(ride.CompletedAt),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY requested_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// ClaimOffer grants driverID the exclusive offer on a still-unassigned
// SEARCHING ride. The guard only passes when no live offer exists, which
// makes this the critical section preventing two coordinators awarding the
// same ride twice. Displacing an expired holder records their timeout as a
// rejection, so the claim and the sweep agree on who is excluded.
func (r *RideRepository) ClaimOffer(ctx context.Context, rideID, driverID string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET offered_to = $1, offer_expires_at = $2,
		    rejected_by = CASE WHEN offered_to IS NULL THEN rejected_by
		                       ELSE array_append(rejected_by, offered_to) END
		WHERE id = $3
		  AND status = $4
		  AND driver_id IS NULL
		  AND (offered_to IS NULL OR offer_expires_at < NOW())
		  AND NOT ($1 = ANY(rejected_by))
	`
	return r.execCAS(ctx, query, driverID, expiresAt, rideID, domain.RideStatusSearching)
}

// AcceptOffer transitions SEARCHING -> ACCEPTED for the offer holder.
// agreed_fare is deliberately not written here: the column already holds
// the settled value, including negotiations that landed after the caller
// read the ride.
func (r *RideRepository) AcceptOffer(ctx context.Context, rideID, driverID string) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, driver_id = $2,
		    offered_to = NULL, offer_expires_at = NULL
		WHERE id = $3
		  AND status = $4
		  AND offered_to = $2
		  AND offer_expires_at >= NOW()
	`
	return r.execCAS(ctx, query, domain.RideStatusAccepted, driverID, rideID, domain.RideStatusSearching)
}

// ReleaseOffer clears driverID's offer, optionally recording the rejection.
func (r *RideRepository) ReleaseOffer(ctx context.Context, rideID, driverID string, reject bool) (bool, error) {
	var query string
	if reject {
		query = `
			UPDATE rides
			SET offered_to = NULL, offer_expires_at = NULL,
			    rejected_by = array_append(rejected_by, $1)
			WHERE id = $2 AND offered_to = $1
		`
	} else {
		query = `
			UPDATE rides
			SET offered_to = NULL, offer_expires_at = NULL
			WHERE id = $2 AND offered_to = $1
		`
	}
	return r.execCAS(ctx, query, driverID, rideID)
}

// SetCounterOffer transitions SEARCHING -> COUNTER_OFFERED with the
// driver's proposed amount.
func (r *RideRepository) SetCounterOffer(ctx context.Context, rideID, driverID string, amount float64) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, counter_amount = $2, counter_driver = $3,
		    offered_to = NULL, offer_expires_at = NULL
		WHERE id = $4
		  AND status = $5
		  AND offered_to = $3
		  AND offer_expires_at >= NOW()
	`
	return r.execCAS(ctx, query, domain.RideStatusCounterOffered, amount, driverID, rideID, domain.RideStatusSearching)
}

// AcceptCounter transitions COUNTER_OFFERED -> ACCEPTED, assigning the
// countering driver at the countered amount.
func (r *RideRepository) AcceptCounter(ctx context.Context, rideID string) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, driver_id = counter_driver, agreed_fare = counter_amount,
		    counter_amount = 0, counter_driver = NULL
		WHERE id = $2 AND status = $3 AND counter_driver IS NOT NULL
	`
	return r.execCAS(ctx, query, domain.RideStatusAccepted, rideID, domain.RideStatusCounterOffered)
}

// ReturnToSearch transitions COUNTER_OFFERED -> SEARCHING; the countering
// driver joins rejected_by so the ride is never re-offered to them.
func (r *RideRepository) ReturnToSearch(ctx context.Context, rideID string) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1,
		    rejected_by = array_append(rejected_by, counter_driver),
		    counter_amount = 0, counter_driver = NULL
		WHERE id = $2 AND status = $3 AND counter_driver IS NOT NULL
	`
	return r.execCAS(ctx, query, domain.RideStatusSearching, rideID, domain.RideStatusCounterOffered)
}

// SetAgreedFare replaces the agreed fare while the ride is still SEARCHING.
func (r *RideRepository) SetAgreedFare(ctx context.Context, rideID string, fare float64) (bool, error) {
	query := `UPDATE rides SET agreed_fare = $1 WHERE id = $2 AND status = $3`
	return r.execCAS(ctx, query, fare, rideID, domain.RideStatusSearching)
}

// UpdateStatusGuarded transitions from -> to for the assigned driver only.
func (r *RideRepository) UpdateStatusGuarded(ctx context.Context, rideID, driverID string, from, to domain.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END
		WHERE id = $2 AND status = $3 AND driver_id = $4
	`
	return r.execCAS(ctx, query, to, rideID, from, driverID)
}

// Cancel transitions to CANCELLED when the current status is still one of
// the allowed from-statuses. Losing this race against an in-flight accept
// (or a faster duplicate cancel) returns false.
func (r *RideRepository) Cancel(ctx context.Context, rideID string, actor domain.CancelActor, reason string, from []domain.RideStatus) (bool, error) {
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `
		UPDATE rides
		SET status = $1, cancel_reason = $2, cancelled_by = $3, cancelled_at = NOW(),
		    offered_to = NULL, offer_expires_at = NULL
		WHERE id = $4 AND status = ANY($5)
	`
	return r.execCAS(ctx, query, domain.RideStatusCancelled, reason, actor, rideID, pq.Array(statuses))
}

// ListNeedingOffer returns SEARCHING rides without a live offer.
func (r *RideRepository) ListNeedingOffer(ctx context.Context, now time.Time) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE status = $1
		  AND driver_id IS NULL
		  AND (offered_to IS NULL OR offer_expires_at < $2)
		ORDER BY requested_at
		LIMIT 50
	`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusSearching, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func (r *RideRepository) execCAS(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var breakdown []byte
	var driverID, offeredTo, counterDriver, cancelReason, cancelledBy sql.NullString
	var offerExpiresAt, cancelledAt, completedAt sql.NullTime
	var couponCode sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.PassengerID,
		&ride.PickupAddress,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropoffAddress,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.ServiceType,
		&ride.PaymentMethod,
		&ride.Status,
		&ride.AgreedFare,
		&breakdown,
		&couponCode,
		&driverID,
		&offeredTo,
		&offerExpiresAt,
		pq.Array(&ride.RejectedBy),
		&ride.CounterAmount,
		&counterDriver,
		&cancelReason,
		&cancelledBy,
		&cancelledAt,
		&ride.RequestedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &ride.Breakdown); err != nil {
			return nil, err
		}
	}
	ride.CouponCode = couponCode.String
	ride.DriverID = driverID.String
	ride.OfferedTo = offeredTo.String
	ride.CounterDriver = counterDriver.String
	ride.CancelReason = cancelReason.String
	ride.CancelledBy = domain.CancelActor(cancelledBy.String)
	if offerExpiresAt.Valid {
		ride.OfferExpiresAt = offerExpiresAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}

	return &ride, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
