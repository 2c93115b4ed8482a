package clock

import "time"

// Clocker is the only source of "now" for expiry and token timestamps.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func New() *System {
	return &System{}
}

// Now returns the current time in UTC so stored expiries never carry a
// local zone.
func (*System) Now() time.Time {
	return time.Now().UTC()
}
