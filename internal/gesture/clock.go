// Package gesture recognizes the two hidden kiosk override gestures: a
// two-finger double tap on the touch screen and a volume up/down key combo.
//
// Both detectors are timer-free. Expiry is checked lazily on the next relevant
// event, so callers only have to feed events in delivery order from a single
// goroutine.
package gesture

import "time"

// Clock reports monotonic milliseconds. Zero is reserved to mean "unset" in the
// detectors' memory, so implementations must never return it.
type Clock interface {
	NowMs() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// NowMs implements Clock.
func (f ClockFunc) NowMs() int64 { return f() }

// processClock measures from a fixed origin using the monotonic reading
// carried by time.Time. Used where no system monotonic clock is available.
type processClock struct {
	origin time.Time
}

// originOffsetMs keeps processClock readings well clear of zero and of the
// default combo cooldown right after start-up.
const originOffsetMs = 60_000

func (c processClock) NowMs() int64 {
	return time.Since(c.origin).Milliseconds() + originOffsetMs
}
