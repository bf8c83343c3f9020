package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/repository"
)

// NegotiationDecision is the arbiter's verdict on a proposed fare.
type NegotiationDecision string

const (
	DecisionAccept  NegotiationDecision = "ACCEPT"
	DecisionCounter NegotiationDecision = "COUNTER"
	DecisionReject  NegotiationDecision = "REJECT"
)

// NegotiationOutcome is returned to the proposing party. Amount is set
// only for counter decisions, Reason only for rejections.
type NegotiationOutcome struct {
	Decision NegotiationDecision `json:"decision"`
	Amount   float64             `json:"amount,omitempty"`
	Reason   string              `json:"reason,omitempty"`
}

// NegotiationPolicy decides the outcome of a fare proposal against a
// reference fare and the counterparty's tolerance band. Implementations
// must be bounded: every call returns a final decision, never an
// indefinite wait.
type NegotiationPolicy interface {
	Decide(ctx context.Context, referenceFare, proposedFare, minFare, maxFare float64) NegotiationOutcome
}

// BandPolicy is the deterministic default arbiter. Proposals at or above
// minFare are accepted; proposals within counterTolerancePercent below
// minFare draw a counter clamped into [minFare, maxFare]; anything lower
// is rejected.
type BandPolicy struct {
	CounterTolerancePercent float64
}

func NewBandPolicy(counterTolerancePercent float64) *BandPolicy {
	return &BandPolicy{CounterTolerancePercent: counterTolerancePercent}
}

func (p *BandPolicy) Decide(_ context.Context, referenceFare, proposedFare, minFare, maxFare float64) NegotiationOutcome {
	if proposedFare >= minFare {
		return NegotiationOutcome{Decision: DecisionAccept}
	}
	floor := minFare * (1 - p.CounterTolerancePercent/100)
	if proposedFare >= floor {
		counter := proposedFare
		if counter < minFare {
			counter = minFare
		}
		if counter > maxFare {
			counter = maxFare
		}
		return NegotiationOutcome{Decision: DecisionCounter, Amount: NormalizeFare(counter)}
	}
	return NegotiationOutcome{Decision: DecisionReject, Reason: "offer too low"}
}

// NegotiationService runs passenger-side fare bargaining for rides that
// are still searching for a driver. Rounds are bounded; the negotiation
// is forced to REJECTED once the limit is reached.
type NegotiationService struct {
	rideRepo  repository.RideRepository
	negRepo   repository.NegotiationRepository
	fareSvc   *FareService
	policy    NegotiationPolicy
	maxRounds int
	log       *logrus.Logger
}

func NewNegotiationService(rideRepo repository.RideRepository, negRepo repository.NegotiationRepository, fareSvc *FareService, policy NegotiationPolicy, maxRounds int, log *logrus.Logger) *NegotiationService {
	if maxRounds <= 0 {
		maxRounds = 3
	}
	return &NegotiationService{
		rideRepo:  rideRepo,
		negRepo:   negRepo,
		fareSvc:   fareSvc,
		policy:    policy,
		maxRounds: maxRounds,
		log:       log,
	}
}

// ProposeFare evaluates the passenger's counter-price for a ride. The
// proposal is validated against the passenger's bargaining window before
// any state is touched; the arbiter then accepts, counters, or rejects.
// Acceptance rewrites the ride's agreed fare (coupon discount re-applied
// to the new amount) while the ride is still SEARCHING.
func (s *NegotiationService) ProposeFare(ctx context.Context, rideID string, amount float64) (*NegotiationOutcome, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusSearching {
		return nil, ErrNegotiationClosed
	}

	cfg, err := s.fareSvc.Config(ctx)
	if err != nil {
		return nil, err
	}

	// Bargaining runs against the pre-coupon quoted total so the coupon's
	// meaning stays stable regardless of outcome.
	ref := ride.Breakdown.Subtotal
	lower := ref * (1 - cfg.NegotiationRangePercent/100)
	if amount < lower || amount > ref {
		return nil, ErrProposalOutOfRange
	}

	neg, err := s.openOrResume(ctx, ride, ref)
	if err != nil {
		return nil, err
	}
	if neg.Status.IsFinal() {
		return nil, ErrNegotiationClosed
	}

	fromStatus, fromRound := neg.Status, neg.Round
	if neg.Round >= s.maxRounds {
		neg.Status = domain.NegotiationStatusRejected
		neg.ProposedFare = amount
		if _, err := s.negRepo.Advance(ctx, neg, fromStatus, fromRound); err != nil {
			return nil, err
		}
		return &NegotiationOutcome{Decision: DecisionReject, Reason: "negotiation round limit reached"}, nil
	}

	outcome := s.policy.Decide(ctx, ref, amount, neg.MinFare, neg.MaxFare)

	neg.ProposedFare = amount
	neg.Round = fromRound + 1
	switch outcome.Decision {
	case DecisionAccept:
		neg.Status = domain.NegotiationStatusAccepted
	case DecisionCounter:
		neg.Status = domain.NegotiationStatusCounterOffered
		neg.CounterFare = outcome.Amount
	case DecisionReject:
		neg.Status = domain.NegotiationStatusRejected
	}

	ok, err := s.negRepo.Advance(ctx, neg, fromStatus, fromRound)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssignmentConflict
	}

	if outcome.Decision == DecisionAccept {
		agreed := s.settledFare(ctx, ride, amount)
		ok, err := s.rideRepo.SetAgreedFare(ctx, ride.ID, agreed)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The ride left SEARCHING between the read and the write.
			return nil, ErrNegotiationClosed
		}
		s.log.WithFields(logrus.Fields{
			"ride_id":     ride.ID,
			"agreed_fare": agreed,
			"rounds":      neg.Round,
		}).Info("negotiation settled")
	}
	return &outcome, nil
}

func (s *NegotiationService) openOrResume(ctx context.Context, ride *domain.Ride, ref float64) (*domain.Negotiation, error) {
	neg, err := s.negRepo.GetActiveByRide(ctx, ride.ID)
	if err == nil {
		return neg, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	now := time.Now()
	neg = &domain.Negotiation{
		ID:            uuid.New().String(),
		RideID:        ride.ID,
		ReferenceFare: ref,
		MinFare:       ref * 0.9,
		MaxFare:       ref * 1.2,
		Round:         0,
		Status:        domain.NegotiationStatusNegotiating,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.negRepo.Create(ctx, neg); err != nil {
		return nil, err
	}
	return neg, nil
}

// settledFare re-applies the ride's coupon to the agreed pre-coupon
// amount and snaps the result onto the price grid.
func (s *NegotiationService) settledFare(ctx context.Context, ride *domain.Ride, agreed float64) float64 {
	agreed = NormalizeFare(agreed)
	if ride.CouponCode == "" {
		return agreed
	}
	discount := s.fareSvc.DiscountFor(ctx, ride.CouponCode, agreed)
	total := agreed - discount
	if total < 0 {
		total = 0
	}
	return round2(total)
}
