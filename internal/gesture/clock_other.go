//go:build !linux && !darwin && !freebsd

package gesture

import "time"

// MonotonicClock returns a clock driven by the runtime's monotonic reading.
func MonotonicClock() Clock {
	return processClock{origin: time.Now()}
}
