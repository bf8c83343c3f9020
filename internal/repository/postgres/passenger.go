package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hail/internal/domain"
	"hail/internal/repository"
)

// PassengerRepository is a PostgreSQL implementation of repository.PassengerRepository.
type PassengerRepository struct {
	q Querier
}

// NewPassengerRepository creates a new PostgreSQL passenger repository.
func NewPassengerRepository(db *sql.DB) *PassengerRepository {
	return &PassengerRepository{q: db}
}

// NewPassengerRepositoryWithTx creates a passenger repository using a transaction.
func NewPassengerRepositoryWithTx(tx *sql.Tx) *PassengerRepository {
	return &PassengerRepository{q: tx}
}

// Create adds a new passenger.
func (r *PassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	query := `INSERT INTO passengers (id, name, phone, completed_rides, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, p.ID, p.Name, p.Phone, p.CompletedRides, p.CreatedAt)
	return err
}

// GetByID retrieves a passenger by ID.
func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), completed_rides, created_at FROM passengers WHERE id = $1`

	var p domain.Passenger
	err := r.q.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Phone, &p.CompletedRides, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetAll retrieves all passengers.
func (r *PassengerRepository) GetAll(ctx context.Context) ([]*domain.Passenger, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), completed_rides, created_at FROM passengers ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []*domain.Passenger
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.CompletedRides, &p.CreatedAt); err != nil {
			return nil, err
		}
		passengers = append(passengers, &p)
	}
	return passengers, rows.Err()
}

// IncrementCompletedRides bumps the passenger's completed ride counter.
func (r *PassengerRepository) IncrementCompletedRides(ctx context.Context, id string) error {
	query := `UPDATE passengers SET completed_rides = completed_rides + 1 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
