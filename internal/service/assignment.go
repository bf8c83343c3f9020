package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/redis"
	"hail/internal/repository"
)

// OfferDecision is a driver's response to an exclusive offer.
type OfferDecision string

const (
	OfferAccept  OfferDecision = "accept"
	OfferReject  OfferDecision = "reject"
	OfferCounter OfferDecision = "counter"
)

// AssignmentService is the ride assignment coordinator. It offers a
// SEARCHING ride to one candidate driver at a time under an exclusive,
// time-bounded claim, and survives rejections, timeouts, counter-offers
// and concurrent cancellation. All assignment mutations go through the
// repository's conditional updates; a false return means the race was
// lost and the loop moves on.
type AssignmentService struct {
	rideRepo      repository.RideRepository
	driverRepo    repository.DriverRepository
	couponRepo    repository.CouponRepository
	locations     redis.LocationStoreInterface
	locks         redis.LockStoreInterface
	policy        NegotiationPolicy
	notifier      *NotificationService
	log           *logrus.Logger
	offerTTL      time.Duration
	searchRadius  float64
	maxCandidates int
}

func NewAssignmentService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	couponRepo repository.CouponRepository,
	locations redis.LocationStoreInterface,
	locks redis.LockStoreInterface,
	policy NegotiationPolicy,
	notifier *NotificationService,
	log *logrus.Logger,
	offerTTL time.Duration,
	searchRadiusKm float64,
) *AssignmentService {
	if offerTTL <= 0 {
		offerTTL = 30 * time.Second
	}
	if searchRadiusKm <= 0 {
		searchRadiusKm = 5
	}
	return &AssignmentService{
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		couponRepo:    couponRepo,
		locations:     locations,
		locks:         locks,
		policy:        policy,
		notifier:      notifier,
		log:           log,
		offerTTL:      offerTTL,
		searchRadius:  searchRadiusKm,
		maxCandidates: 20,
	}
}

// OfferRide selects the next eligible candidate for a SEARCHING ride and
// grants them the exclusive offer. Eligible means: nearby, ONLINE,
// matching service type, not in rejectedBy and not already holding the
// offer. Returns ErrNoDriverAvailable when the pool is exhausted.
func (s *AssignmentService) OfferRide(ctx context.Context, rideID string) error {
	if rideID == "" {
		return ErrInvalidRideID
	}

	// Per-ride lock keeps two sweeps from walking the candidate list at
	// the same time; the ClaimOffer CAS stays the real exclusivity guard.
	acquired, err := s.locks.AcquireRideLock(ctx, rideID, 10*time.Second)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrAssignmentConflict
	}
	defer func() {
		if err := s.locks.ReleaseRideLock(ctx, rideID); err != nil {
			s.log.WithError(err).Warn("failed to release ride lock")
		}
	}()

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.Status != domain.RideStatusSearching {
		return ErrInvalidTransition
	}

	nearby, err := s.locations.FindNearbyDrivers(ctx, ride.PickupLat, ride.PickupLng, s.searchRadius)
	if err != nil {
		return err
	}

	tried := 0
	for _, loc := range nearby {
		if tried >= s.maxCandidates {
			break
		}
		if ride.HasRejected(loc.DriverID) || loc.DriverID == ride.OfferedTo {
			continue
		}
		tried++

		driver, err := s.driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return err
		}
		if driver.Status != domain.DriverStatusOnline || driver.ServiceType != ride.ServiceType {
			continue
		}

		ok, err := s.tryOffer(ctx, ride, driver.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	s.notifier.NotifyNoDrivers(ride)
	return ErrNoDriverAvailable
}

func (s *AssignmentService) tryOffer(ctx context.Context, ride *domain.Ride, driverID string) (bool, error) {
	acquired, err := s.locks.AcquireDriverLock(ctx, driverID, 5*time.Second)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		if err := s.locks.ReleaseDriverLock(ctx, driverID); err != nil {
			s.log.WithError(err).Warn("failed to release driver lock")
		}
	}()

	expiresAt := time.Now().Add(s.offerTTL)
	claimed, err := s.rideRepo.ClaimOffer(ctx, ride.ID, driverID, expiresAt)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	ride.OfferedTo = driverID
	ride.OfferExpiresAt = expiresAt
	s.notifier.NotifyOffer(driverID, ride)
	s.log.WithFields(logrus.Fields{
		"ride_id":    ride.ID,
		"driver_id":  driverID,
		"expires_at": expiresAt,
	}).Info("offer granted")
	return true, nil
}

// RespondToOffer applies a driver's decision on the offer they hold.
// Accepting runs through the atomic claim: if the ride was cancelled or
// reassigned in the meantime the driver gets ErrRideNoLongerAvailable and
// nothing changes. Rejecting adds the driver to rejectedBy (permanent for
// this ride) and immediately re-enters the offer loop. Countering routes
// the proposed amount through the negotiation arbiter before it is
// surfaced to the passenger.
func (s *AssignmentService) RespondToOffer(ctx context.Context, rideID, driverID string, decision OfferDecision, amount float64) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	switch decision {
	case OfferAccept:
		return s.acceptOffer(ctx, ride, driverID)
	case OfferReject:
		return s.rejectOffer(ctx, ride, driverID)
	case OfferCounter:
		return s.counterOffer(ctx, ride, driverID, amount)
	default:
		return nil, ErrInvalidTransition
	}
}

func (s *AssignmentService) acceptOffer(ctx context.Context, ride *domain.Ride, driverID string) (*domain.Ride, error) {
	ok, err := s.rideRepo.AcceptOffer(ctx, ride.ID, driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRideNoLongerAvailable
	}
	s.afterBooking(ctx, ride, driverID)
	return s.rideRepo.GetByID(ctx, ride.ID)
}

func (s *AssignmentService) rejectOffer(ctx context.Context, ride *domain.Ride, driverID string) (*domain.Ride, error) {
	ok, err := s.rideRepo.ReleaseOffer(ctx, ride.ID, driverID, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotOfferHolder
	}
	s.log.WithFields(logrus.Fields{
		"ride_id":   ride.ID,
		"driver_id": driverID,
	}).Info("offer rejected, re-entering offer loop")

	if err := s.OfferRide(ctx, ride.ID); err != nil && err != ErrNoDriverAvailable {
		s.log.WithError(err).Warn("re-offer after rejection failed")
	}
	return s.rideRepo.GetByID(ctx, ride.ID)
}

func (s *AssignmentService) counterOffer(ctx context.Context, ride *domain.Ride, driverID string, amount float64) (*domain.Ride, error) {
	if ride.OfferedTo != driverID {
		return nil, ErrNotOfferHolder
	}

	// The arbiter vets the driver's number against the platform band
	// around the quoted pre-coupon fare before the passenger sees it.
	// Decide only polices the low side, so the high side is cut off here:
	// a counter above the band ceiling never reaches the passenger.
	ref := ride.Breakdown.Subtotal
	minFare, maxFare := ref*0.9, ref*1.2
	if amount > maxFare {
		return nil, ErrProposalOutOfRange
	}
	outcome := s.policy.Decide(ctx, ref, amount, minFare, maxFare)
	if outcome.Decision == DecisionReject {
		return nil, ErrProposalOutOfRange
	}
	countered := NormalizeFare(amount)
	if outcome.Decision == DecisionCounter {
		countered = outcome.Amount
	}

	// The stored amount is the passenger-facing total: coupon discount
	// re-applied to the countered pre-coupon fare.
	final := countered
	if ride.CouponCode != "" {
		final = round2(countered - s.discountFor(ctx, ride.CouponCode, countered))
		if final < 0 {
			final = 0
		}
	}

	ok, err := s.rideRepo.SetCounterOffer(ctx, ride.ID, driverID, final)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRideNoLongerAvailable
	}
	s.notifier.NotifyCounterOffer(ride, final)
	return s.rideRepo.GetByID(ctx, ride.ID)
}

// RespondToCounter applies the passenger's decision on a pending driver
// counter-offer. Accepting goes through the same atomic claim as a
// normal accept; declining returns the ride to the offer pool with the
// countering driver permanently excluded.
func (s *AssignmentService) RespondToCounter(ctx context.Context, rideID string, accept bool) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCounterOffered || ride.CounterDriver == "" {
		return nil, ErrNoCounterPending
	}

	if accept {
		ok, err := s.rideRepo.AcceptCounter(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRideNoLongerAvailable
		}
		s.afterBooking(ctx, ride, ride.CounterDriver)
		return s.rideRepo.GetByID(ctx, rideID)
	}

	ok, err := s.rideRepo.ReturnToSearch(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRideNoLongerAvailable
	}
	if err := s.OfferRide(ctx, rideID); err != nil && err != ErrNoDriverAvailable {
		s.log.WithError(err).Warn("re-offer after declined counter failed")
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// afterBooking runs the side effects of a successful assignment: the
// driver goes ON_TRIP, the coupon's usage is consumed, and the passenger
// is told a driver is on the way. None of these may fail the booking
// itself; the claim has already committed.
func (s *AssignmentService) afterBooking(ctx context.Context, ride *domain.Ride, driverID string) {
	if _, err := s.driverRepo.UpdateStatusGuarded(ctx, driverID, domain.DriverStatusOnline, domain.DriverStatusOnTrip); err != nil {
		s.log.WithError(err).Warn("failed to mark driver on trip")
	}
	if ride.CouponCode != "" {
		consumed, err := s.couponRepo.IncrementUsage(ctx, ride.CouponCode)
		if err != nil {
			s.log.WithError(err).Warn("failed to consume coupon usage")
		} else if !consumed {
			s.log.WithField("coupon", ride.CouponCode).Warn("coupon usage limit reached at booking")
		}
	}
	ride.DriverID = driverID
	s.notifier.NotifyAccepted(ride)
}

func (s *AssignmentService) discountFor(ctx context.Context, code string, subtotal float64) float64 {
	c, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return 0
	}
	ok, _ := c.Usable(subtotal, time.Now())
	if !ok {
		return 0
	}
	var discount float64
	switch c.DiscountType {
	case domain.DiscountTypePercentage:
		discount = subtotal * c.Value / 100
	case domain.DiscountTypeFixed:
		discount = c.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// RunOfferSweeper periodically expires stale offers (the timed-out driver
// joins rejectedBy, same as an explicit reject) and re-enters the offer
// loop for rides still searching. Runs until ctx is cancelled.
func (s *AssignmentService) RunOfferSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.WithField("interval", interval).Info("offer sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("offer sweeper stopped")
			return
		case <-ticker.C:
			s.SweepExpiredOffers(ctx)
		}
	}
}

// SweepExpiredOffers runs a single sweep pass.
func (s *AssignmentService) SweepExpiredOffers(ctx context.Context) {
	rides, err := s.rideRepo.ListNeedingOffer(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Warn("offer sweep failed to list rides")
		return
	}
	for _, ride := range rides {
		if ride.OfferedTo != "" {
			ok, err := s.rideRepo.ReleaseOffer(ctx, ride.ID, ride.OfferedTo, true)
			if err != nil {
				s.log.WithError(err).Warn("failed to expire stale offer")
				continue
			}
			if ok {
				s.log.WithFields(logrus.Fields{
					"ride_id":   ride.ID,
					"driver_id": ride.OfferedTo,
				}).Info("offer expired, driver skipped")
			}
		}
		if err := s.OfferRide(ctx, ride.ID); err != nil && err != ErrNoDriverAvailable && err != ErrAssignmentConflict {
			s.log.WithError(err).Warn("offer sweep re-offer failed")
		}
	}
}
