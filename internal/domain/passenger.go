package domain

import "time"

// Passenger represents a rider in the system.
type Passenger struct {
	ID             string
	Name           string
	Phone          string
	CompletedRides int
	CreatedAt      time.Time
}
