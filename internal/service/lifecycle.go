package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/repository"
)

// LifecycleService owns the ride status state machine after assignment:
// driver progress (arrived, in progress, completed) and cancellation by
// either party. Every transition is a guarded conditional update, so
// concurrent actors resolve through the storage layer, not through
// read-then-write.
type LifecycleService struct {
	rideRepo      repository.RideRepository
	driverRepo    repository.DriverRepository
	passengerRepo repository.PassengerRepository
	notifier      *NotificationService
	log           *logrus.Logger
}

func NewLifecycleService(rideRepo repository.RideRepository, driverRepo repository.DriverRepository, passengerRepo repository.PassengerRepository, notifier *NotificationService, log *logrus.Logger) *LifecycleService {
	return &LifecycleService{
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		passengerRepo: passengerRepo,
		notifier:      notifier,
		log:           log,
	}
}

// advanceFrom maps each driver-advanceable target status to its only
// legal predecessor.
var advanceFrom = map[domain.RideStatus]domain.RideStatus{
	domain.RideStatusArrived:    domain.RideStatusAccepted,
	domain.RideStatusInProgress: domain.RideStatusArrived,
	domain.RideStatusCompleted:  domain.RideStatusInProgress,
}

// AdvanceStatus moves an assigned ride forward one step on behalf of its
// driver. Completion releases the driver back to ONLINE and bumps the
// passenger's ride counter, each exactly once.
func (s *LifecycleService) AdvanceStatus(ctx context.Context, rideID, driverID string, next domain.RideStatus) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	from, ok := advanceFrom[next]
	if !ok {
		return nil, ErrInvalidTransition
	}

	moved, err := s.rideRepo.UpdateStatusGuarded(ctx, rideID, driverID, from, next)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrInvalidTransition
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if next == domain.RideStatusCompleted {
		s.completeSideEffects(ctx, ride)
	} else {
		s.notifier.NotifyStatusUpdate(ride, next)
	}
	s.log.WithFields(logrus.Fields{
		"ride_id":   rideID,
		"driver_id": driverID,
		"status":    string(next),
	}).Info("ride status advanced")
	return ride, nil
}

func (s *LifecycleService) completeSideEffects(ctx context.Context, ride *domain.Ride) {
	released, err := s.driverRepo.UpdateStatusGuarded(ctx, ride.DriverID, domain.DriverStatusOnTrip, domain.DriverStatusOnline)
	if err != nil {
		s.log.WithError(err).Warn("failed to release driver after completion")
	} else if !released {
		// Already released by a concurrent path; nothing to do.
		s.log.WithField("driver_id", ride.DriverID).Debug("driver already released")
	}
	if err := s.passengerRepo.IncrementCompletedRides(ctx, ride.PassengerID); err != nil {
		s.log.WithError(err).Warn("failed to bump passenger ride counter")
	}
	s.notifier.NotifyCompleted(ride)
}

// cancellableFrom lists the statuses each actor may cancel from. Drivers
// may not cancel once the ride is in progress.
var cancellableFrom = map[domain.CancelActor][]domain.RideStatus{
	domain.CancelActorPassenger: {
		domain.RideStatusSearching,
		domain.RideStatusCounterOffered,
		domain.RideStatusAccepted,
		domain.RideStatusArrived,
	},
	domain.CancelActorDriver: {
		domain.RideStatusAccepted,
		domain.RideStatusArrived,
	},
}

// CancelRide cancels a ride on behalf of actor with a mandatory reason.
// The cancellation races safely against in-flight accepts: whichever
// conditional update commits first wins, and the loser observes the
// outcome. Retried cancellations by the same actor are idempotent.
func (s *LifecycleService) CancelRide(ctx context.Context, rideID string, actor domain.CancelActor, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if reason == "" {
		return nil, ErrInvalidTransition
	}
	allowed, ok := cancellableFrom[actor]
	if !ok {
		return nil, ErrCancelNotAllowed
	}

	cancelled, err := s.rideRepo.Cancel(ctx, rideID, actor, reason, allowed)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if !cancelled {
		if ride.Status == domain.RideStatusCancelled && ride.CancelledBy == actor {
			// Client retry of an already-committed cancellation.
			return ride, nil
		}
		if ride.Status == domain.RideStatusCancelled {
			return nil, ErrRideAlreadyCancelled
		}
		return nil, ErrCancelNotAllowed
	}

	// Post-assignment cancellation releases the driver exactly once.
	if ride.DriverID != "" {
		released, err := s.driverRepo.UpdateStatusGuarded(ctx, ride.DriverID, domain.DriverStatusOnTrip, domain.DriverStatusOnline)
		if err != nil {
			s.log.WithError(err).Warn("failed to release driver after cancellation")
		} else if released {
			s.log.WithField("driver_id", ride.DriverID).Info("driver released after cancellation")
		}
	}

	switch actor {
	case domain.CancelActorPassenger:
		if ride.DriverID != "" {
			s.notifier.NotifyCancelled(ride, ride.DriverID)
		}
	case domain.CancelActorDriver:
		s.notifier.NotifyCancelled(ride, ride.PassengerID)
	}
	s.log.WithFields(logrus.Fields{
		"ride_id": rideID,
		"actor":   string(actor),
		"reason":  reason,
	}).Info("ride cancelled")
	return ride, nil
}
