package domain

import "time"

type Trip struct {
	ID            string
	DepartureTime time.Time
}

// HoursUntilDeparture is negative once the trip has left.
func (t Trip) HoursUntilDeparture(now time.Time) float64 {
	return t.DepartureTime.Sub(now).Hours()
}
