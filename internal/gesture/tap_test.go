package gesture_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
	"github.com/stigoleg/kiosk-guard/internal/gesture/gesturetest"
)

func newTapDetector(cfg gesture.TapConfig) (*gesture.TwoFingerDoubleTap, *gesturetest.Clock) {
	clock := gesturetest.NewClock()
	return gesture.NewTwoFingerDoubleTap(cfg, clock), clock
}

func down(id int, ptrs ...gesture.Pointer) gesture.PointerEvent {
	return gesture.PointerEvent{Action: gesture.ActionDown, ID: id, Pointers: ptrs}
}

func move(ptrs ...gesture.Pointer) gesture.PointerEvent {
	return gesture.PointerEvent{Action: gesture.ActionMove, Pointers: ptrs}
}

func up(id int, ptrs ...gesture.Pointer) gesture.PointerEvent {
	return gesture.PointerEvent{Action: gesture.ActionUp, ID: id, Pointers: ptrs}
}

func pt(id int, x, y float64) gesture.Pointer {
	return gesture.Pointer{ID: id, X: x, Y: y}
}

// twoFingerTap lands both fingers at startMs, moves finger B by moveB pixels
// halfway through, and lifts B then A after durMs. It returns true when any
// event reported a double tap.
func twoFingerTap(d *gesture.TwoFingerDoubleTap, clock *gesturetest.Clock, startMs, durMs int64, moveB float64) bool {
	a := pt(0, 100, 100)
	b := pt(1, 200, 100)
	bMoved := pt(1, 200+moveB, 100)

	detected := false
	feed := func(at int64, ev gesture.PointerEvent) {
		clock.Set(at)
		if d.ProcessEvent(ev) {
			detected = true
		}
	}

	feed(startMs, down(0, a))
	feed(startMs, down(1, a, b))
	feed(startMs+durMs/2, move(a, bMoved))
	feed(startMs+durMs, up(1, a, bMoved))
	feed(startMs+durMs+5, up(0, a))
	return detected
}

func TestTwoFingerDoubleTapTiming(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)

	assert.False(t, twoFingerTap(d, clock, base, 200, 10), "first tap only arms the detector")
	// Second tap lands 300ms after the first tap's lift; its own lift is
	// exactly 500ms after the first lift.
	assert.True(t, twoFingerTap(d, clock, base+200+300, 200, 10), "second tap inside the window completes the double tap")
}

func TestTwoFingerDoubleTapWindowExpiry(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)

	require.False(t, twoFingerTap(d, clock, base, 100, 0))
	// Lift at base+700: 600ms after the first lift, outside the window.
	require.False(t, twoFingerTap(d, clock, base+600, 100, 0), "taps 600ms apart do not pair")
	// The late tap becomes the new anchor. A stricter reading, where a tap
	// outside the window leaves nothing armed, is not what the algorithm does.
	require.True(t, twoFingerTap(d, clock, base+1000, 100, 0), "third tap pairs with the second")
	// A detection consumes the memory, so the next tap only re-arms.
	assert.False(t, twoFingerTap(d, clock, base+1300, 100, 0), "memory is cleared after a double tap")
	assert.True(t, twoFingerTap(d, clock, base+1600, 100, 0))
}

func TestTwoFingerDoubleTapMovementInvalidates(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)

	assert.False(t, twoFingerTap(d, clock, base, 150, 30), "30px exceeds the 24px tolerance")
	assert.False(t, twoFingerTap(d, clock, base+300, 150, 0), "invalid tap left nothing to pair with")
	assert.True(t, twoFingerTap(d, clock, base+600, 150, 0))
}

func TestTwoFingerDoubleTapTooSlow(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)

	assert.False(t, twoFingerTap(d, clock, base, 251, 0), "251ms is longer than a tap")
	assert.False(t, twoFingerTap(d, clock, base+400, 250, 0), "250ms is a tap but has nothing to pair with")
	assert.True(t, twoFingerTap(d, clock, base+800, 100, 0))
}

func TestSinglePointerTapsNeverRegister(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	for i := int64(0); i < 6; i++ {
		at := int64(gesturetest.BaseMs) + i*60
		clock.Set(at)
		require.False(t, d.ProcessEvent(down(0, pt(0, 10, 10))))
		clock.Set(at + 30)
		require.False(t, d.ProcessEvent(up(0, pt(0, 10, 10))))
	}
	// A two-finger tap right after still has nothing to pair with.
	assert.False(t, twoFingerTap(d, clock, int64(gesturetest.BaseMs)+400, 100, 0))
}

func TestMissingTrackedPointerInvalidates(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)
	a, b := pt(0, 0, 0), pt(1, 50, 0)

	clock.Set(base)
	d.ProcessEvent(down(0, a))
	d.ProcessEvent(down(1, a, b))
	clock.Set(base + 40)
	d.ProcessEvent(move(a, pt(7, 50, 0)))
	clock.Set(base + 80)
	assert.False(t, d.ProcessEvent(up(1, a, b)))
	d.ProcessEvent(up(0, a))

	// The broken tap was not recorded.
	assert.False(t, twoFingerTap(d, clock, base+200, 100, 0))
}

func TestThirdPointerIgnoredByDefault(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)
	a, b, c := pt(0, 0, 0), pt(1, 50, 0), pt(2, 500, 500)

	require.False(t, twoFingerTap(d, clock, base, 100, 0))

	clock.Set(base + 200)
	d.ProcessEvent(down(0, a))
	d.ProcessEvent(down(1, a, b))
	d.ProcessEvent(down(2, a, b, c))
	// The untracked finger wanders far; only A and B matter.
	d.ProcessEvent(move(a, b, pt(2, 900, 900)))
	clock.Set(base + 260)
	assert.False(t, d.ProcessEvent(up(2, a, b, pt(2, 900, 900))), "three fingers down to two is not the end of the tap")
	clock.Set(base + 280)
	assert.True(t, d.ProcessEvent(up(1, a, b)))
}

func TestThirdPointerInvalidatesWhenConfigured(t *testing.T) {
	cfg := gesture.DefaultTapConfig()
	cfg.InvalidateOnExtraPointer = true
	d, clock := newTapDetector(cfg)
	base := int64(gesturetest.BaseMs)
	a, b, c := pt(0, 0, 0), pt(1, 50, 0), pt(2, 500, 500)

	require.False(t, twoFingerTap(d, clock, base, 100, 0))

	clock.Set(base + 200)
	d.ProcessEvent(down(0, a))
	d.ProcessEvent(down(1, a, b))
	d.ProcessEvent(down(2, a, b, c))
	clock.Set(base + 260)
	d.ProcessEvent(up(2, a, b, c))
	assert.False(t, d.ProcessEvent(up(1, a, b)))
}

func TestCancelEndsGesture(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)
	a, b := pt(0, 0, 0), pt(1, 50, 0)

	require.False(t, twoFingerTap(d, clock, base, 100, 0))

	clock.Set(base + 200)
	d.ProcessEvent(down(0, a))
	d.ProcessEvent(down(1, a, b))
	clock.Set(base + 260)
	assert.True(t, d.ProcessEvent(gesture.PointerEvent{Action: gesture.ActionCancel}), "cancel ends and evaluates the tap")

	// After the cancel a fresh gesture is required.
	clock.Set(base + 300)
	assert.False(t, d.ProcessEvent(down(1, a, b)), "a second finger without a fresh first finger starts nothing")
	assert.False(t, d.ProcessEvent(up(1, a, b)))
}

func TestRestingFingerDoesNotStartSession(t *testing.T) {
	d, clock := newTapDetector(gesture.DefaultTapConfig())
	base := int64(gesturetest.BaseMs)
	a, b := pt(0, 0, 0), pt(1, 50, 0)

	clock.Set(base)
	d.ProcessEvent(down(0, a))
	d.ProcessEvent(down(1, a, b))
	clock.Set(base + 100)
	require.False(t, d.ProcessEvent(up(1, a, b)))

	// Finger A stays down and B taps again twice; none of it engages.
	for i := int64(1); i <= 2; i++ {
		clock.Set(base + 100 + i*80)
		assert.False(t, d.ProcessEvent(down(1, a, b)))
		clock.Set(base + 140 + i*80)
		assert.False(t, d.ProcessEvent(up(1, a, b)))
	}
}

func TestDefaultsFillZeroConfig(t *testing.T) {
	d := gesture.NewTwoFingerDoubleTap(gesture.TapConfig{}, gesturetest.NewClock())
	assert.Equal(t, gesture.DefaultTapConfig(), d.Config())
}

func TestJitteredTapsPair(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		gen := gesturetest.NewGenerator(rand.New(rand.NewSource(seed)))
		d, clock := newTapDetector(gesture.DefaultTapConfig())

		tap := gesturetest.DefaultTap()
		tap.Jitter = 20

		first := gen.TwoFingerTap(gesturetest.BaseMs, tap)
		second := gen.TwoFingerTap(gesturetest.End(first)+150, tap)

		require.Equal(t, 0, gesturetest.Play(d, clock, first), "seed %d", seed)
		require.Equal(t, 1, gesturetest.Play(d, clock, second), "seed %d", seed)
	}
}

func TestJitteredTapsBeyondToleranceNeverPair(t *testing.T) {
	gen := gesturetest.NewGenerator(rand.New(rand.NewSource(7)))
	d, clock := newTapDetector(gesture.DefaultTapConfig())

	tap := gesturetest.DefaultTap()
	tap.Jitter = 40
	tap.Moves = 12
	// Random walks can stay inside tolerance; only play taps that stray.
	start := int64(gesturetest.BaseMs)
	for i := 0; i < 5; i++ {
		steps := gen.TwoFingerTap(start, tap)
		if !straysBeyond(steps, tap, gesture.DefaultMovementTolerance) {
			start = gesturetest.End(steps) + 100
			continue
		}
		assert.Equal(t, 0, gesturetest.Play(d, clock, steps))
		start = gesturetest.End(steps) + 100
	}
}

func straysBeyond(steps []gesturetest.Step, tap gesturetest.Tap, tol float64) bool {
	for _, s := range steps {
		if s.Event.Action != gesture.ActionMove {
			continue
		}
		for _, p := range s.Event.Pointers {
			origin := tap.OriginA
			if p.ID == tap.OriginB.ID {
				origin = tap.OriginB
			}
			dx, dy := p.X-origin.X, p.Y-origin.Y
			if dx*dx+dy*dy > tol*tol {
				return true
			}
		}
	}
	return false
}

func TestClockNeverZero(t *testing.T) {
	c := gesture.MonotonicClock()
	first := c.NowMs()
	assert.Greater(t, first, int64(0))
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, c.NowMs(), first)
}
