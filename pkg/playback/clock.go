package playback

import "time"

// Clock reports the current position of the output audio clock in seconds.
// It is monotonic for the life of a session.
type Clock interface {
	Now() float64
}

// SystemClock is a Clock anchored at its creation time.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns seconds elapsed since the clock was created.
func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
