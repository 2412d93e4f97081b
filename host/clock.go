// Package host provides the concrete adapters that satisfy machine.Host:
// a monotonic clock, a non-blocking keyboard poller, and a console writer.
package host

import "time"

// MonotonicClock reports seconds elapsed since it was constructed, backed
// by time.Now(), matching the machine.Clock contract the interrupt
// controller samples.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock whose epoch is the moment of this call.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Seconds implements machine.Clock.
func (c *MonotonicClock) Seconds() float64 {
	return time.Since(c.start).Seconds()
}
