package repository

import (
	"context"

	"hail/internal/domain"
)

// NegotiationRepository defines the persistence operations for fare
// negotiations.
type NegotiationRepository interface {
	// Create persists a new negotiation.
	Create(ctx context.Context, n *domain.Negotiation) error

	// GetActiveByRide retrieves the unfinished negotiation for a ride, or
	// ErrNotFound when none is open.
	GetActiveByRide(ctx context.Context, rideID string) (*domain.Negotiation, error)

	// Advance conditionally moves a negotiation forward: the update only
	// applies when the stored status and round still match fromStatus and
	// fromRound, so two concurrent proposals cannot both count a round.
	Advance(ctx context.Context, n *domain.Negotiation, fromStatus domain.NegotiationStatus, fromRound int) (bool, error)
}
