package tests

import (
	"context"
	"testing"
	"time"

	"hail/internal/domain"
	"hail/internal/service"
	"hail/pkg/logger"
)

func newNegotiationFixture(t *testing.T) (*service.NegotiationService, *MockRideRepository, *MockNegotiationRepository, *MockCouponRepository) {
	t.Helper()
	rideRepo := NewMockRideRepository()
	negRepo := NewMockNegotiationRepository()

	pricingRepo := NewMockPricingConfigRepository()
	pricingRepo.SetConfig(testPricingConfig())
	couponRepo := NewMockCouponRepository()
	fareSvc := service.NewFareService(pricingRepo, couponRepo, NewMockCacheStore(), logger.Discard())

	svc := service.NewNegotiationService(rideRepo, negRepo, fareSvc, service.NewBandPolicy(15), 3, logger.Discard())
	return svc, rideRepo, negRepo, couponRepo
}

// searchingRide seeds a SEARCHING ride quoted at a 20.00 pre-coupon
// subtotal, giving a bargaining window of [16, 20] and an arbiter band of
// [18, 24].
func searchingRide(id string) *domain.Ride {
	return &domain.Ride{
		ID:          id,
		PassengerID: "passenger-1",
		ServiceType: domain.ServiceTypeEconomy,
		Status:      domain.RideStatusSearching,
		AgreedFare:  20.0,
		Breakdown:   domain.FareBreakdown{Subtotal: 20.0, Total: 20.0},
		RequestedAt: time.Now(),
	}
}

func TestBandPolicy_AcceptsReferenceFare(t *testing.T) {
	policy := service.NewBandPolicy(15)
	ref := 20.0

	outcome := policy.Decide(context.Background(), ref, ref, ref*0.9, ref*1.2)
	if outcome.Decision != service.DecisionAccept {
		t.Errorf("expected accept for proposal at reference, got %s (%s)", outcome.Decision, outcome.Reason)
	}
}

func TestBandPolicy_CountersNearMiss(t *testing.T) {
	policy := service.NewBandPolicy(15)

	// 16.50 is below the 18.00 floor but within 15% of it.
	outcome := policy.Decide(context.Background(), 20.0, 16.5, 18.0, 24.0)
	if outcome.Decision != service.DecisionCounter {
		t.Fatalf("expected counter, got %s", outcome.Decision)
	}
	if !almostEqual(outcome.Amount, 18.0) {
		t.Errorf("expected counter clamped to 18.00, got %.2f", outcome.Amount)
	}
}

func TestBandPolicy_RejectsLowball(t *testing.T) {
	policy := service.NewBandPolicy(15)

	outcome := policy.Decide(context.Background(), 20.0, 10.0, 18.0, 24.0)
	if outcome.Decision != service.DecisionReject {
		t.Fatalf("expected reject, got %s", outcome.Decision)
	}
	if outcome.Reason == "" {
		t.Error("expected a rejection reason")
	}
}

func TestProposeFare_OutsideWindowRejected(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _ := newNegotiationFixture(t)
	rideRepo.AddRide(searchingRide("ride-1"))

	// Window is [16, 20]; both ends exclusive of these values fail.
	if _, err := svc.ProposeFare(ctx, "ride-1", 15.0); err != service.ErrProposalOutOfRange {
		t.Errorf("expected ErrProposalOutOfRange below window, got %v", err)
	}
	if _, err := svc.ProposeFare(ctx, "ride-1", 21.0); err != service.ErrProposalOutOfRange {
		t.Errorf("expected ErrProposalOutOfRange above window, got %v", err)
	}
}

func TestProposeFare_AcceptRewritesAgreedFare(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _ := newNegotiationFixture(t)
	rideRepo.AddRide(searchingRide("ride-1"))

	outcome, err := svc.ProposeFare(ctx, "ride-1", 18.0)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if outcome.Decision != service.DecisionAccept {
		t.Fatalf("expected accept, got %s", outcome.Decision)
	}
	if got := rideRepo.GetRide("ride-1").AgreedFare; !almostEqual(got, 18.0) {
		t.Errorf("expected agreed fare 18.00, got %.2f", got)
	}
}

func TestProposeFare_CounterThenAccept(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _ := newNegotiationFixture(t)
	rideRepo.AddRide(searchingRide("ride-1"))

	// 16.50 is inside the passenger window but under the arbiter floor.
	outcome, err := svc.ProposeFare(ctx, "ride-1", 16.5)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if outcome.Decision != service.DecisionCounter {
		t.Fatalf("expected counter, got %s", outcome.Decision)
	}
	if !almostEqual(outcome.Amount, 18.0) {
		t.Errorf("expected counter at 18.00, got %.2f", outcome.Amount)
	}
	// The agreed fare is untouched until something is accepted.
	if got := rideRepo.GetRide("ride-1").AgreedFare; !almostEqual(got, 20.0) {
		t.Errorf("expected agreed fare to stay 20.00, got %.2f", got)
	}

	outcome, err = svc.ProposeFare(ctx, "ride-1", 18.0)
	if err != nil {
		t.Fatalf("second propose failed: %v", err)
	}
	if outcome.Decision != service.DecisionAccept {
		t.Fatalf("expected accept on second round, got %s", outcome.Decision)
	}
	if got := rideRepo.GetRide("ride-1").AgreedFare; !almostEqual(got, 18.0) {
		t.Errorf("expected agreed fare 18.00, got %.2f", got)
	}
}

func TestProposeFare_CouponReappliedToSettledFare(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, couponRepo := newNegotiationFixture(t)

	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "SAVE10",
		DiscountType: domain.DiscountTypePercentage,
		Value:        10,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusActive,
	})
	ride := searchingRide("ride-1")
	ride.CouponCode = "SAVE10"
	rideRepo.AddRide(ride)

	outcome, err := svc.ProposeFare(ctx, "ride-1", 18.0)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if outcome.Decision != service.DecisionAccept {
		t.Fatalf("expected accept, got %s", outcome.Decision)
	}
	// 18.00 agreed pre-coupon, minus 10% = 16.20.
	if got := rideRepo.GetRide("ride-1").AgreedFare; !almostEqual(got, 16.2) {
		t.Errorf("expected agreed fare 16.20 after coupon, got %.2f", got)
	}
}

func TestProposeFare_RoundLimitForcesReject(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, negRepo, _ := newNegotiationFixture(t)
	rideRepo.AddRide(searchingRide("ride-1"))

	// Seed a session already at the round limit.
	if err := negRepo.Create(ctx, &domain.Negotiation{
		ID:            "neg-1",
		RideID:        "ride-1",
		ReferenceFare: 20.0,
		MinFare:       18.0,
		MaxFare:       24.0,
		Round:         3,
		Status:        domain.NegotiationStatusCounterOffered,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	outcome, err := svc.ProposeFare(ctx, "ride-1", 18.0)
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if outcome.Decision != service.DecisionReject {
		t.Fatalf("expected forced reject at round limit, got %s", outcome.Decision)
	}
	if neg := negRepo.GetNegotiation("neg-1"); neg.Status != domain.NegotiationStatusRejected {
		t.Errorf("expected session closed as REJECTED, got %s", neg.Status)
	}
	// Subsequent proposals find no open session and start fresh rather
	// than resurrecting the closed one.
	if _, err := svc.ProposeFare(ctx, "ride-1", 19.0); err != nil {
		t.Errorf("expected a fresh session after rejection, got %v", err)
	}
}

func TestProposeFare_ClosedOncePastSearching(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _ := newNegotiationFixture(t)

	ride := searchingRide("ride-1")
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	if _, err := svc.ProposeFare(ctx, "ride-1", 18.0); err != service.ErrNegotiationClosed {
		t.Errorf("expected ErrNegotiationClosed, got %v", err)
	}
}
