package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/repository"
)

// RideRequest carries the passenger's booking input.
type RideRequest struct {
	PassengerID     string
	PickupAddress   string
	PickupLat       float64
	PickupLng       float64
	DropoffAddress  string
	DropoffLat      float64
	DropoffLng      float64
	DistanceKm      float64
	DurationMinutes float64
	ServiceType     domain.ServiceType
	PaymentMethod   domain.PaymentMethod
	CouponCode      string
}

// RideService creates ride requests and reads them back. Quoting happens
// at creation; assignment is handed to the coordinator immediately after
// the ride is persisted.
type RideService struct {
	rideRepo      repository.RideRepository
	passengerRepo repository.PassengerRepository
	fareSvc       *FareService
	assignment    *AssignmentService
	log           *logrus.Logger
}

func NewRideService(rideRepo repository.RideRepository, passengerRepo repository.PassengerRepository, fareSvc *FareService, assignment *AssignmentService, log *logrus.Logger) *RideService {
	return &RideService{
		rideRepo:      rideRepo,
		passengerRepo: passengerRepo,
		fareSvc:       fareSvc,
		assignment:    assignment,
		log:           log,
	}
}

// RequestRide quotes the trip, persists the ride in SEARCHING and enters
// the offer loop. The quote's normalized total becomes the initial agreed
// fare; negotiation may replace it while the ride is still searching.
func (s *RideService) RequestRide(ctx context.Context, req *RideRequest) (*domain.Ride, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if req.DistanceKm < 0 || req.DurationMinutes < 0 {
		return nil, ErrInvalidTripFacts
	}
	if !validLatLng(req.PickupLat, req.PickupLng) || !validLatLng(req.DropoffLat, req.DropoffLng) {
		return nil, ErrInvalidLocation
	}
	if !req.ServiceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	switch req.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet:
	default:
		return nil, ErrInvalidPaymentMethod
	}
	if _, err := s.passengerRepo.GetByID(ctx, req.PassengerID); err != nil {
		return nil, err
	}

	breakdown, err := s.fareSvc.Quote(ctx, domain.TripFacts{
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		ServiceType:     req.ServiceType,
		RideTime:        time.Now(),
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		PassengerID:    req.PassengerID,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropoffAddress: req.DropoffAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		ServiceType:    req.ServiceType,
		PaymentMethod:  req.PaymentMethod,
		Status:         domain.RideStatusSearching,
		AgreedFare:     NormalizeFare(breakdown.Total),
		Breakdown:      *breakdown,
		CouponCode:     req.CouponCode,
		RejectedBy:     []string{},
		RequestedAt:    time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"ride_id":      ride.ID,
		"passenger_id": ride.PassengerID,
		"agreed_fare":  ride.AgreedFare,
	}).Info("ride requested")

	if err := s.assignment.OfferRide(ctx, ride.ID); err != nil && err != ErrNoDriverAvailable {
		s.log.WithError(err).Warn("initial offer failed, sweeper will retry")
	}
	return s.rideRepo.GetByID(ctx, ride.ID)
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, id string) (*domain.Ride, error) {
	if id == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, id)
}

// ListRides retrieves recent rides.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
