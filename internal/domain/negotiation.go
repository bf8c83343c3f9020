package domain

import "time"

// NegotiationStatus represents the status of a fare negotiation.
type NegotiationStatus string

const (
	NegotiationStatusNegotiating    NegotiationStatus = "NEGOTIATING"
	NegotiationStatusCounterOffered NegotiationStatus = "COUNTER_OFFERED"
	NegotiationStatusAccepted       NegotiationStatus = "ACCEPTED"
	NegotiationStatusRejected       NegotiationStatus = "REJECTED"
)

// IsFinal reports whether the negotiation has terminated.
func (s NegotiationStatus) IsFinal() bool {
	return s == NegotiationStatusAccepted || s == NegotiationStatusRejected
}

// Negotiation tracks a passenger's bargaining session against a quoted
// fare. ReferenceFare is the pre-coupon quoted total; the coupon discount
// is re-applied to whatever fare is finally agreed, so the coupon's
// meaning stays stable regardless of the bargaining outcome.
type Negotiation struct {
	ID            string
	RideID        string
	ReferenceFare float64
	ProposedFare  float64
	CounterFare   float64
	MinFare       float64
	MaxFare       float64
	Round         int
	Status        NegotiationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
