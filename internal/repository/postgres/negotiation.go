package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hail/internal/domain"
	"hail/internal/repository"
)

// NegotiationRepository is a PostgreSQL implementation of
// repository.NegotiationRepository.
type NegotiationRepository struct {
	q Querier
}

// NewNegotiationRepository creates a new PostgreSQL negotiation repository.
func NewNegotiationRepository(db *sql.DB) *NegotiationRepository {
	return &NegotiationRepository{q: db}
}

// Create persists a new negotiation.
func (r *NegotiationRepository) Create(ctx context.Context, n *domain.Negotiation) error {
	query := `
		INSERT INTO negotiations (id, ride_id, reference_fare, proposed_fare, counter_fare,
			min_fare, max_fare, round, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		n.ID, n.RideID, n.ReferenceFare, n.ProposedFare, n.CounterFare,
		n.MinFare, n.MaxFare, n.Round, n.Status, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

// GetActiveByRide retrieves the unfinished negotiation for a ride.
func (r *NegotiationRepository) GetActiveByRide(ctx context.Context, rideID string) (*domain.Negotiation, error) {
	query := `
		SELECT id, ride_id, reference_fare, proposed_fare, counter_fare,
		       min_fare, max_fare, round, status, created_at, updated_at
		FROM negotiations
		WHERE ride_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var n domain.Negotiation
	err := r.q.QueryRowContext(ctx, query, rideID,
		domain.NegotiationStatusNegotiating, domain.NegotiationStatusCounterOffered,
	).Scan(
		&n.ID, &n.RideID, &n.ReferenceFare, &n.ProposedFare, &n.CounterFare,
		&n.MinFare, &n.MaxFare, &n.Round, &n.Status, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Advance conditionally moves a negotiation forward. The stored status and
// round must still match, so two concurrent proposals cannot both count a
// round.
func (r *NegotiationRepository) Advance(ctx context.Context, n *domain.Negotiation, fromStatus domain.NegotiationStatus, fromRound int) (bool, error) {
	query := `
		UPDATE negotiations
		SET proposed_fare = $1, counter_fare = $2, round = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6 AND round = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		n.ProposedFare, n.CounterFare, n.Round, n.Status, n.ID, fromStatus, fromRound,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
