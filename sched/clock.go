package sched

// VTimeInSec defines time in the host-driven space in the unit of second.
type VTimeInSec float64

// A ClockSource provides the single monotonic time sample that is taken at
// the entry of each drive call.
type ClockSource interface {
	Now() VTimeInSec
}

// TimeTeller can be used to get the time of the last accepted drive.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// A Clock tracks the scheduler's view of time. It advances only when a drive
// call passes the throttle gate, so `current` always refers to the last
// accepted drive rather than the last attempt.
type Clock struct {
	origin  VTimeInSec
	current VTimeInSec
	delta   VTimeInSec
}

// Origin returns the epoch that relative one-shot registrations are computed
// against. It moves forward when the scheduler is reset.
func (c Clock) Origin() VTimeInSec {
	return c.origin
}

// Current returns the time of the last accepted drive.
func (c Clock) Current() VTimeInSec {
	return c.current
}

// Delta returns the time between the last two accepted drives.
func (c Clock) Delta() VTimeInSec {
	return c.delta
}

func (c *Clock) advance(now VTimeInSec) {
	c.delta = now - c.current
	c.current = now
}

func (c *Clock) rebase() {
	c.origin = c.current
}
