package gesture

import (
	"log"
	"math"
	"time"
)

// Tap detector defaults.
const (
	DefaultTapMaxDuration    = 250 * time.Millisecond
	DefaultDoubleTapWindow   = 500 * time.Millisecond
	DefaultMovementTolerance = 24.0 // device pixels
)

const noPointer = -1

// TapConfig configures TwoFingerDoubleTap.
type TapConfig struct {
	// TapMaxDuration is the longest a single two-finger tap may last, measured
	// from the second finger touching down to the lift that ends the tap.
	TapMaxDuration time.Duration

	// DoubleTapWindow is the longest gap between two valid taps that still
	// counts as a double tap.
	DoubleTapWindow time.Duration

	// MovementTolerance is the displacement in device pixels either tracked
	// finger may travel before the tap is invalidated.
	MovementTolerance float64

	// InvalidateOnExtraPointer rejects the tap when a third finger touches down
	// while two are tracked. Off by default: extra fingers are ignored.
	InvalidateOnExtraPointer bool
}

// DefaultTapConfig returns the stock tap timings.
func DefaultTapConfig() TapConfig {
	return TapConfig{
		TapMaxDuration:    DefaultTapMaxDuration,
		DoubleTapWindow:   DefaultDoubleTapWindow,
		MovementTolerance: DefaultMovementTolerance,
	}
}

func (c TapConfig) withDefaults() TapConfig {
	d := DefaultTapConfig()
	if c.TapMaxDuration <= 0 {
		c.TapMaxDuration = d.TapMaxDuration
	}
	if c.DoubleTapWindow <= 0 {
		c.DoubleTapWindow = d.DoubleTapWindow
	}
	if c.MovementTolerance <= 0 {
		c.MovementTolerance = d.MovementTolerance
	}
	return c
}

type position struct {
	x, y float64
}

func (p position) distance(x, y float64) float64 {
	return math.Hypot(x-p.x, y-p.y)
}

// tapSession is the state of one two-finger contact.
type tapSession struct {
	idA, idB       int
	startMs        int64
	startA, startB position
	maxDispA       float64
	maxDispB       float64
	engaged, valid bool
}

func (s *tapSession) reset() {
	*s = tapSession{idA: noPointer, idB: noPointer}
}

// TwoFingerDoubleTap detects two consecutive short two-finger taps from a raw
// pointer stream. It is not safe for concurrent use.
type TwoFingerDoubleTap struct {
	cfg   TapConfig
	clock Clock

	// tracking is set by a fresh single-pointer down and cleared on every
	// terminal event. A session can only start while it is set.
	tracking bool
	session  tapSession

	// lastValidTapMs outlives sessions; 0 means no pending tap.
	lastValidTapMs int64
}

// NewTwoFingerDoubleTap creates a detector. Zero config fields take defaults.
func NewTwoFingerDoubleTap(cfg TapConfig, clock Clock) *TwoFingerDoubleTap {
	if clock == nil {
		clock = MonotonicClock()
	}
	d := &TwoFingerDoubleTap{cfg: cfg.withDefaults(), clock: clock}
	d.session.reset()
	return d
}

// Config returns the effective configuration.
func (d *TwoFingerDoubleTap) Config() TapConfig {
	return d.cfg
}

// ProcessEvent feeds one pointer event and reports whether it completed a
// two-finger double tap.
func (d *TwoFingerDoubleTap) ProcessEvent(ev PointerEvent) bool {
	switch ev.Action {
	case ActionDown:
		d.pointerDown(ev)
	case ActionMove:
		d.pointerMove(ev)
	case ActionUp:
		remaining := len(ev.Pointers) - 1
		if d.session.engaged && remaining < 2 {
			return d.finish()
		}
		if remaining <= 0 {
			d.resetAll()
		}
	case ActionCancel:
		if d.session.engaged {
			return d.finish()
		}
		d.resetAll()
	}
	return false
}

func (d *TwoFingerDoubleTap) pointerDown(ev PointerEvent) {
	switch {
	case len(ev.Pointers) <= 1:
		d.session.reset()
		d.tracking = true

	case d.session.engaged:
		if d.cfg.InvalidateOnExtraPointer && ev.ID != d.session.idA && ev.ID != d.session.idB {
			d.session.valid = false
		}

	case d.tracking && len(ev.Pointers) == 2:
		second, ok := ev.find(ev.ID)
		if !ok {
			return
		}
		var first Pointer
		for _, p := range ev.Pointers {
			if p.ID != ev.ID {
				first = p
			}
		}
		d.session = tapSession{
			idA:     first.ID,
			idB:     second.ID,
			startMs: d.clock.NowMs(),
			startA:  position{first.X, first.Y},
			startB:  position{second.X, second.Y},
			engaged: true,
			valid:   true,
		}
	}
}

func (d *TwoFingerDoubleTap) pointerMove(ev PointerEvent) {
	s := &d.session
	if !s.engaged || !s.valid {
		return
	}

	a, okA := ev.find(s.idA)
	b, okB := ev.find(s.idB)
	if !okA || !okB {
		s.valid = false
		return
	}

	s.maxDispA = math.Max(s.maxDispA, s.startA.distance(a.X, a.Y))
	s.maxDispB = math.Max(s.maxDispB, s.startB.distance(b.X, b.Y))
	if s.maxDispA > d.cfg.MovementTolerance || s.maxDispB > d.cfg.MovementTolerance {
		s.valid = false
	}
}

// finish evaluates the current session and resets it regardless of verdict.
func (d *TwoFingerDoubleTap) finish() bool {
	defer d.resetAll()

	s := d.session
	if !s.engaged || !s.valid {
		return false
	}

	now := d.clock.NowMs()
	if now-s.startMs > d.cfg.TapMaxDuration.Milliseconds() {
		return false
	}

	if d.lastValidTapMs != 0 && now-d.lastValidTapMs <= d.cfg.DoubleTapWindow.Milliseconds() {
		d.lastValidTapMs = 0
		log.Printf("gesture: two-finger double tap detected")
		return true
	}

	d.lastValidTapMs = now
	return false
}

func (d *TwoFingerDoubleTap) resetAll() {
	d.tracking = false
	d.session.reset()
}
