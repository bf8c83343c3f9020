package service

import "math"

// NormalizeFare snaps a raw fare amount onto the display grid used for
// quoting and bargaining: round half-up to the nearest 0.10, then half-up
// again to the nearest 0.50. Normalizing an already-normalized value is a
// no-op, and the function never maps a larger input below a smaller one.
func NormalizeFare(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	tenths := math.Floor(amount*10+0.5) / 10
	return math.Floor(tenths*2+0.5) / 2
}
