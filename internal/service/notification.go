package service

import (
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
)

// NotificationType categorizes outbound notifications.
type NotificationType string

const (
	NotificationOfferReceived NotificationType = "OFFER_RECEIVED"
	NotificationRideAccepted  NotificationType = "RIDE_ACCEPTED"
	NotificationCounterOffer  NotificationType = "COUNTER_OFFER"
	NotificationRideCancelled NotificationType = "RIDE_CANCELLED"
	NotificationRideCompleted NotificationType = "RIDE_COMPLETED"
	NotificationNoDrivers     NotificationType = "NO_DRIVERS"
	NotificationStatusUpdate  NotificationType = "STATUS_UPDATE"
)

// Notification is a message destined for a passenger or driver device.
type Notification struct {
	Type        NotificationType       `json:"type"`
	RecipientID string                 `json:"recipient_id"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// NotificationService dispatches ride events to the parties involved.
// Delivery is fire-and-forget; the push transport itself is an external
// collaborator, so send only emits the event for downstream consumers.
type NotificationService struct {
	log *logrus.Logger
}

func NewNotificationService(log *logrus.Logger) *NotificationService {
	return &NotificationService{log: log}
}

// NotifyOffer tells a driver they hold the exclusive offer on a ride.
func (s *NotificationService) NotifyOffer(driverID string, ride *domain.Ride) {
	s.send(&Notification{
		Type:        NotificationOfferReceived,
		RecipientID: driverID,
		Title:       "New ride request",
		Message:     "You have an exclusive offer. Accept, reject or counter before it expires.",
		Data: map[string]interface{}{
			"ride_id":     ride.ID,
			"pickup":      ride.PickupAddress,
			"dropoff":     ride.DropoffAddress,
			"agreed_fare": ride.AgreedFare,
			"expires_at":  ride.OfferExpiresAt,
		},
	})
}

// NotifyAccepted tells the passenger their ride has a driver.
func (s *NotificationService) NotifyAccepted(ride *domain.Ride) {
	s.send(&Notification{
		Type:        NotificationRideAccepted,
		RecipientID: ride.PassengerID,
		Title:       "Driver assigned",
		Message:     "A driver accepted your ride and is on the way.",
		Data: map[string]interface{}{
			"ride_id":     ride.ID,
			"driver_id":   ride.DriverID,
			"agreed_fare": ride.AgreedFare,
		},
	})
}

// NotifyCounterOffer tells the passenger a driver proposed a different fare.
func (s *NotificationService) NotifyCounterOffer(ride *domain.Ride, amount float64) {
	s.send(&Notification{
		Type:        NotificationCounterOffer,
		RecipientID: ride.PassengerID,
		Title:       "Driver counter-offer",
		Message:     "A driver proposed a different fare for your ride.",
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"amount":  amount,
		},
	})
}

// NotifyCancelled tells the other party the ride was cancelled.
func (s *NotificationService) NotifyCancelled(ride *domain.Ride, recipientID string) {
	s.send(&Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride cancelled",
		Message:     "The ride has been cancelled.",
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"reason":  ride.CancelReason,
			"by":      ride.CancelledBy,
		},
	})
}

// NotifyCompleted tells the passenger the ride finished and can be rated.
func (s *NotificationService) NotifyCompleted(ride *domain.Ride) {
	s.send(&Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.PassengerID,
		Title:       "Ride completed",
		Message:     "Thanks for riding. You can now rate your driver.",
		Data: map[string]interface{}{
			"ride_id":     ride.ID,
			"agreed_fare": ride.AgreedFare,
		},
	})
}

// NotifyNoDrivers tells the passenger the candidate pool is exhausted.
func (s *NotificationService) NotifyNoDrivers(ride *domain.Ride) {
	s.send(&Notification{
		Type:        NotificationNoDrivers,
		RecipientID: ride.PassengerID,
		Title:       "No drivers available",
		Message:     "No drivers are available right now. Please try again shortly.",
		Data: map[string]interface{}{
			"ride_id": ride.ID,
		},
	})
}

// NotifyStatusUpdate tells the passenger the ride moved to a new status.
func (s *NotificationService) NotifyStatusUpdate(ride *domain.Ride, status domain.RideStatus) {
	s.send(&Notification{
		Type:        NotificationStatusUpdate,
		RecipientID: ride.PassengerID,
		Title:       "Ride update",
		Message:     "Your ride status changed.",
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"status":  string(status),
		},
	})
}

func (s *NotificationService) send(n *Notification) {
	s.log.WithFields(logrus.Fields{
		"type":      string(n.Type),
		"recipient": n.RecipientID,
		"data":      n.Data,
	}).Info(n.Message)
}
