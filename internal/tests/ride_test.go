package tests

import (
	"context"
	"testing"
	"time"

	"hail/internal/domain"
	"hail/internal/service"
	"hail/pkg/logger"
)

type rideFixture struct {
	svc        *service.RideService
	rideRepo   *MockRideRepository
	driverRepo *MockDriverRepository
	locations  *MockLocationStore
}

func newRideFixture(t *testing.T) *rideFixture {
	t.Helper()
	log := logger.Discard()

	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	passengerRepo := NewMockPassengerRepository()
	couponRepo := NewMockCouponRepository()
	locations := NewMockLocationStore()

	passengerRepo.AddPassenger(&domain.Passenger{ID: "passenger-1", Name: "P"})

	pricingRepo := NewMockPricingConfigRepository()
	pricingRepo.SetConfig(testPricingConfig())
	fareSvc := service.NewFareService(pricingRepo, couponRepo, NewMockCacheStore(), log)

	assignment := service.NewAssignmentService(
		rideRepo, driverRepo, couponRepo, locations, NewMockLockStore(),
		service.NewBandPolicy(15), service.NewNotificationService(log), log,
		30*time.Second, 5,
	)
	return &rideFixture{
		svc:        service.NewRideService(rideRepo, passengerRepo, fareSvc, assignment, log),
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		locations:  locations,
	}
}

func validRequest() *service.RideRequest {
	return &service.RideRequest{
		PassengerID:     "passenger-1",
		PickupAddress:   "12 MG Road",
		PickupLat:       12.97,
		PickupLng:       77.59,
		DropoffAddress:  "Airport T2",
		DropoffLat:      13.19,
		DropoffLng:      77.70,
		DistanceKm:      10,
		DurationMinutes: 20,
		ServiceType:     domain.ServiceTypeComfort,
		PaymentMethod:   domain.PaymentMethodCard,
	}
}

func TestRequestRide_QuotesAndStartsSearching(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t)

	ride, err := f.svc.RequestRide(ctx, validRequest())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ride.Status != domain.RideStatusSearching {
		t.Errorf("expected SEARCHING, got %s", ride.Status)
	}
	// Comfort 10km/20min quotes 22.75, normalized to 23.00.
	if !almostEqual(ride.AgreedFare, 23.0) {
		t.Errorf("expected agreed fare 23.00, got %.2f", ride.AgreedFare)
	}
	if !almostEqual(ride.Breakdown.Subtotal, 22.75) {
		t.Errorf("expected breakdown subtotal 22.75, got %.2f", ride.Breakdown.Subtotal)
	}
	if ride.DriverID != "" {
		t.Error("expected no driver assigned yet")
	}
}

func TestRequestRide_OffersToNearbyDriver(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t)
	f.driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Status:      domain.DriverStatusOnline,
		ServiceType: domain.ServiceTypeComfort,
	})
	if err := f.locations.UpdateLocation(ctx, "driver-1", 12.97, 77.59); err != nil {
		t.Fatalf("location setup failed: %v", err)
	}

	ride, err := f.svc.RequestRide(ctx, validRequest())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ride.OfferedTo != "driver-1" {
		t.Errorf("expected immediate offer to driver-1, got %q", ride.OfferedTo)
	}
}

func TestRequestRide_PersistsEvenWithoutDrivers(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t)

	ride, err := f.svc.RequestRide(ctx, validRequest())
	if err != nil {
		t.Fatalf("expected ride creation to survive an empty driver pool, got %v", err)
	}
	if ride.Status != domain.RideStatusSearching || ride.OfferedTo != "" {
		t.Errorf("expected SEARCHING without offer, got %s / %q", ride.Status, ride.OfferedTo)
	}
	if f.rideRepo.CountRides() != 1 {
		t.Errorf("expected 1 persisted ride, got %d", f.rideRepo.CountRides())
	}
}

func TestRequestRide_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t)

	req := validRequest()
	req.PassengerID = ""
	if _, err := f.svc.RequestRide(ctx, req); err != service.ErrInvalidPassengerID {
		t.Errorf("expected ErrInvalidPassengerID, got %v", err)
	}

	req = validRequest()
	req.DistanceKm = -3
	if _, err := f.svc.RequestRide(ctx, req); err != service.ErrInvalidTripFacts {
		t.Errorf("expected ErrInvalidTripFacts, got %v", err)
	}

	req = validRequest()
	req.PickupLat = 123.4
	if _, err := f.svc.RequestRide(ctx, req); err != service.ErrInvalidLocation {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}

	req = validRequest()
	req.ServiceType = "LUXURY"
	if _, err := f.svc.RequestRide(ctx, req); err != service.ErrInvalidServiceType {
		t.Errorf("expected ErrInvalidServiceType, got %v", err)
	}

	req = validRequest()
	req.PaymentMethod = "BARTER"
	if _, err := f.svc.RequestRide(ctx, req); err != service.ErrInvalidPaymentMethod {
		t.Errorf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	if f.rideRepo.CountRides() != 0 {
		t.Errorf("expected no rides persisted, got %d", f.rideRepo.CountRides())
	}
}

func TestRequestRide_UnknownPassenger(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t)

	req := validRequest()
	req.PassengerID = "passenger-ghost"
	if _, err := f.svc.RequestRide(ctx, req); err == nil {
		t.Error("expected unknown passenger to be rejected")
	}
}
