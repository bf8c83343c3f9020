package repository

import (
	"context"

	"hail/internal/domain"
)

// PassengerRepository defines the persistence operations for passengers.
type PassengerRepository interface {
	// Create adds a new passenger.
	Create(ctx context.Context, passenger *domain.Passenger) error

	// GetByID retrieves a passenger by ID.
	GetByID(ctx context.Context, id string) (*domain.Passenger, error)

	// GetAll retrieves all passengers.
	GetAll(ctx context.Context) ([]*domain.Passenger, error)

	// IncrementCompletedRides bumps the passenger's completed ride counter.
	IncrementCompletedRides(ctx context.Context, id string) error
}
