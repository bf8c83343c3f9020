package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/redis"
	"hail/internal/repository"
)

// ErrPhoneTaken is returned when registering with a phone number already
// in use.
var ErrPhoneTaken = errors.New("phone number already registered")

// DriverService manages driver registration, availability and location
// heartbeats. Location updates are best-effort periodic writes; the
// assignment coordinator tolerates them being stale.
type DriverService struct {
	driverRepo repository.DriverRepository
	locations  redis.LocationStoreInterface
	log        *logrus.Logger
}

func NewDriverService(driverRepo repository.DriverRepository, locations redis.LocationStoreInterface, log *logrus.Logger) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		locations:  locations,
		log:        log,
	}
}

// Register creates a new driver, OFFLINE until they go available.
func (s *DriverService) Register(ctx context.Context, name, phone string, serviceType domain.ServiceType) (*domain.Driver, error) {
	if name == "" || phone == "" {
		return nil, errors.New("name and phone are required")
	}
	if !serviceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	if _, err := s.driverRepo.GetByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	driver := &domain.Driver{
		ID:          uuid.New().String(),
		Name:        name,
		Phone:       phone,
		Status:      domain.DriverStatusOffline,
		ServiceType: serviceType,
		CreatedAt:   time.Now(),
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}
	s.log.WithField("driver_id", driver.ID).Info("driver registered")
	return driver, nil
}

// SetAvailability flips a driver between ONLINE and OFFLINE. A driver on
// a trip cannot go offline; their status is owned by the lifecycle until
// the ride ends. Going offline drops the driver from the location index
// so the coordinator stops considering them.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, available bool) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	target := domain.DriverStatusOffline
	from := domain.DriverStatusOnline
	if available {
		target = domain.DriverStatusOnline
		from = domain.DriverStatusOffline
	}

	ok, err := s.driverRepo.UpdateStatusGuarded(ctx, driverID, from, target)
	if err != nil {
		return nil, err
	}
	driver, gerr := s.driverRepo.GetByID(ctx, driverID)
	if gerr != nil {
		return nil, gerr
	}
	if !ok && driver.Status != target {
		return nil, ErrInvalidTransition
	}

	if target == domain.DriverStatusOffline {
		if err := s.locations.RemoveLocation(ctx, driverID); err != nil {
			s.log.WithError(err).Warn("failed to remove driver location")
		}
	}
	return driver, nil
}

// Heartbeat records the driver's current position in the location index.
func (s *DriverService) Heartbeat(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !validLatLng(lat, lng) {
		return ErrInvalidLocation
	}
	return s.locations.UpdateLocation(ctx, driverID, lat, lng)
}

// Get retrieves a driver by ID.
func (s *DriverService) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// List retrieves all drivers.
func (s *DriverService) List(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}
