package repository

import (
	"context"

	"hail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// UpdateStatusGuarded updates the status only when the driver is
	// currently in from. Used for exactly-once release semantics on
	// completion and cancellation.
	UpdateStatusGuarded(ctx context.Context, id string, from, to domain.DriverStatus) (bool, error)
}
