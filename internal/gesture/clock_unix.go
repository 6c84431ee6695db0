//go:build linux || darwin || freebsd

package gesture

import (
	"time"

	"golang.org/x/sys/unix"
)

type monotonicClock struct {
	fallback processClock
}

// NowMs returns CLOCK_MONOTONIC in milliseconds, the same time base the kernel
// uses for uptime. It is immune to wall-clock adjustments.
func (c monotonicClock) NowMs() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return c.fallback.NowMs()
	}
	ms := ts.Nano() / int64(time.Millisecond)
	if ms <= 0 {
		return c.fallback.NowMs()
	}
	return ms
}

// MonotonicClock returns the system monotonic clock.
func MonotonicClock() Clock {
	return monotonicClock{fallback: processClock{origin: time.Now()}}
}
