package tests

import (
	"context"
	"testing"
	"time"

	"hail/internal/domain"
	"hail/internal/service"
	"hail/pkg/logger"
)

type lifecycleFixture struct {
	svc           *service.LifecycleService
	rideRepo      *MockRideRepository
	driverRepo    *MockDriverRepository
	passengerRepo *MockPassengerRepository
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		rideRepo:      NewMockRideRepository(),
		driverRepo:    NewMockDriverRepository(),
		passengerRepo: NewMockPassengerRepository(),
	}
	log := logger.Discard()
	f.svc = service.NewLifecycleService(f.rideRepo, f.driverRepo, f.passengerRepo, service.NewNotificationService(log), log)
	return f
}

// assignedRide seeds an ACCEPTED ride with its driver ON_TRIP and the
// passenger registered.
func (f *lifecycleFixture) assignedRide(id string) *domain.Ride {
	ride := searchingRide(id)
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = "driver-1"
	f.rideRepo.AddRide(ride)
	f.driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Status:      domain.DriverStatusOnTrip,
		ServiceType: domain.ServiceTypeEconomy,
	})
	f.passengerRepo.AddPassenger(&domain.Passenger{ID: "passenger-1", Name: "P"})
	return ride
}

func TestAdvanceStatus_FullProgression(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	for _, next := range []domain.RideStatus{
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
	} {
		ride, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-1", next)
		if err != nil {
			t.Fatalf("advance to %s failed: %v", next, err)
		}
		if ride.Status != next {
			t.Fatalf("expected %s, got %s", next, ride.Status)
		}
	}

	ride := f.rideRepo.GetRide("ride-1")
	if ride.CompletedAt.IsZero() {
		t.Error("expected completion timestamp set")
	}
	if got := f.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected driver released to ONLINE, got %s", got)
	}
	if got := f.passengerRepo.GetPassenger("passenger-1").CompletedRides; got != 1 {
		t.Errorf("expected passenger counter bumped once, got %d", got)
	}
}

func TestAdvanceStatus_CannotSkipSteps(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	if _, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-1", domain.RideStatusInProgress); err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition skipping ARRIVED, got %v", err)
	}
	if _, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-1", domain.RideStatusCompleted); err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition skipping to COMPLETED, got %v", err)
	}
	if got := f.rideRepo.GetRide("ride-1").Status; got != domain.RideStatusAccepted {
		t.Errorf("expected ride unchanged, got %s", got)
	}
}

func TestAdvanceStatus_WrongDriverDenied(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	if _, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-2", domain.RideStatusArrived); err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for unassigned driver, got %v", err)
	}
}

func TestAdvanceStatus_BackwardsDenied(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	// SEARCHING and ACCEPTED are not driver-advanceable targets at all.
	if _, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-1", domain.RideStatusSearching); err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.AdvanceStatus(ctx, "ride-1", "driver-1", domain.RideStatusAccepted); err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelRide_PassengerWhileSearching(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.rideRepo.AddRide(searchingRide("ride-1"))

	ride, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "changed plans")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", ride.Status)
	}
	if ride.CancelledBy != domain.CancelActorPassenger || ride.CancelReason != "changed plans" {
		t.Errorf("unexpected cancellation record: %q by %s", ride.CancelReason, ride.CancelledBy)
	}
}

func TestCancelRide_ReasonRequired(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.rideRepo.AddRide(searchingRide("ride-1"))

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, ""); err == nil {
		t.Error("expected cancellation without a reason to fail")
	}
}

func TestCancelRide_DriverCannotCancelInProgress(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	ride := f.assignedRide("ride-1")
	ride.Status = domain.RideStatusInProgress

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorDriver, "traffic"); err != service.ErrCancelNotAllowed {
		t.Errorf("expected ErrCancelNotAllowed, got %v", err)
	}
}

func TestCancelRide_ReleasesAssignedDriver(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "waited too long"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := f.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected driver released to ONLINE, got %s", got)
	}
}

func TestCancelRide_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.rideRepo.AddRide(searchingRide("ride-1"))

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "changed plans"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	// A retry by the same actor reports success without changing anything.
	ride, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "changed plans")
	if err != nil {
		t.Fatalf("retried cancel failed: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", ride.Status)
	}
}

func TestCancelRide_OtherActorAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.assignedRide("ride-1")

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "changed plans"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorDriver, "no show"); err != service.ErrRideAlreadyCancelled {
		t.Errorf("expected ErrRideAlreadyCancelled, got %v", err)
	}
}

func TestCancelRide_StaleAcceptLoses(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	// The passenger cancels while driver-1 still holds a live offer; the
	// driver's accept lands afterwards and must bounce off the claim.
	ride := searchingRide("ride-1")
	ride.OfferedTo = "driver-1"
	ride.OfferExpiresAt = time.Now().Add(time.Minute)
	f.rideRepo.AddRide(ride)
	f.driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Status:      domain.DriverStatusOnline,
		ServiceType: domain.ServiceTypeEconomy,
	})

	if _, err := f.svc.CancelRide(ctx, "ride-1", domain.CancelActorPassenger, "changed plans"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	accepted, err := f.rideRepo.AcceptOffer(ctx, "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("accept errored: %v", err)
	}
	if accepted {
		t.Fatal("expected stale accept to lose against the committed cancellation")
	}

	got := f.rideRepo.GetRide("ride-1")
	if got.Status != domain.RideStatusCancelled || got.DriverID != "" {
		t.Errorf("expected CANCELLED and unassigned, got %s / %q", got.Status, got.DriverID)
	}
	// The driver was never booked and must stay ONLINE.
	if got := f.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected driver still ONLINE, got %s", got)
	}
}
