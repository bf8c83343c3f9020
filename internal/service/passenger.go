package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/repository"
)

// PassengerService manages passenger registration and lookup.
type PassengerService struct {
	passengerRepo repository.PassengerRepository
	log           *logrus.Logger
}

func NewPassengerService(passengerRepo repository.PassengerRepository, log *logrus.Logger) *PassengerService {
	return &PassengerService{passengerRepo: passengerRepo, log: log}
}

// Register creates a new passenger.
func (s *PassengerService) Register(ctx context.Context, name, phone string) (*domain.Passenger, error) {
	if name == "" || phone == "" {
		return nil, errors.New("name and phone are required")
	}

	passenger := &domain.Passenger{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	if err := s.passengerRepo.Create(ctx, passenger); err != nil {
		return nil, err
	}
	s.log.WithField("passenger_id", passenger.ID).Info("passenger registered")
	return passenger, nil
}

// Get retrieves a passenger by ID.
func (s *PassengerService) Get(ctx context.Context, id string) (*domain.Passenger, error) {
	if id == "" {
		return nil, ErrInvalidPassengerID
	}
	return s.passengerRepo.GetByID(ctx, id)
}
