// Package gesturetest generates scripted, human-like touch sequences and a
// controllable clock for exercising the gesture detectors.
package gesturetest

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
)

// Timing of the scripted fingers around the tap itself.
const (
	// SecondFingerLead is how long after the first finger the second lands.
	SecondFingerLead = 12 * time.Millisecond

	// LastFingerLag is how long the remaining finger stays after the first lift.
	LastFingerLag = 8 * time.Millisecond

	// BaseMs keeps scripted timestamps clear of the detectors' zero sentinel.
	BaseMs = 10_000
)

// Clock is a manually driven gesture.Clock. It is safe to read from another
// goroutine while the test advances it.
type Clock struct {
	ms atomic.Int64
}

// NewClock returns a clock set to BaseMs.
func NewClock() *Clock {
	c := &Clock{}
	c.ms.Store(BaseMs)
	return c
}

// NowMs implements gesture.Clock.
func (c *Clock) NowMs() int64 { return c.ms.Load() }

// Set moves the clock to ms.
func (c *Clock) Set(ms int64) { c.ms.Store(ms) }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.ms.Add(d.Milliseconds()) }

// Step is one pointer event scheduled at an absolute clock reading.
type Step struct {
	AtMs  int64
	Event gesture.PointerEvent
}

// Tap describes a scripted two-finger tap.
type Tap struct {
	// Duration runs from the second finger landing to the first lift.
	Duration time.Duration

	// Jitter is the largest displacement either finger reaches while down.
	Jitter float64

	// Moves is the number of move frames between landing and lifting.
	Moves int

	// OriginA and OriginB are the landing positions.
	OriginA, OriginB gesture.Pointer
}

// DefaultTap is a comfortable 120ms tap with a few pixels of tremor.
func DefaultTap() Tap {
	return Tap{
		Duration: 120 * time.Millisecond,
		Jitter:   6,
		Moves:    6,
		OriginA:  gesture.Pointer{ID: 0, X: 400, Y: 600},
		OriginB:  gesture.Pointer{ID: 1, X: 520, Y: 610},
	}
}

// Generator produces jittered tap scripts from a seeded random source.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a generator with the given random source.
func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// TwoFingerTap scripts a tap whose first finger lands at startMs. The
// session start (second finger down) is startMs+SecondFingerLead and the
// evaluating lift happens tap.Duration later.
func (g *Generator) TwoFingerTap(startMs int64, tap Tap) []Step {
	oa, ob := tap.OriginA, tap.OriginB
	a, b := oa, ob
	landMs := startMs + SecondFingerLead.Milliseconds()
	liftMs := landMs + tap.Duration.Milliseconds()

	steps := []Step{
		{AtMs: startMs, Event: gesture.PointerEvent{
			Action: gesture.ActionDown, ID: a.ID, Pointers: []gesture.Pointer{a},
		}},
		{AtMs: landMs, Event: gesture.PointerEvent{
			Action: gesture.ActionDown, ID: b.ID, Pointers: []gesture.Pointer{a, b},
		}},
	}

	pathA := g.Jitter(tap.Moves, tap.Jitter)
	pathB := g.Jitter(tap.Moves, tap.Jitter)
	for i := 0; i < tap.Moves; i++ {
		at := landMs + tap.Duration.Milliseconds()*int64(i+1)/int64(tap.Moves+1)
		pa := gesture.Pointer{ID: oa.ID, X: oa.X + pathA[i].X, Y: oa.Y + pathA[i].Y}
		pb := gesture.Pointer{ID: ob.ID, X: ob.X + pathB[i].X, Y: ob.Y + pathB[i].Y}
		steps = append(steps, Step{AtMs: at, Event: gesture.PointerEvent{
			Action: gesture.ActionMove, Pointers: []gesture.Pointer{pa, pb},
		}})
		a, b = pa, pb
	}

	steps = append(steps,
		Step{AtMs: liftMs, Event: gesture.PointerEvent{
			Action: gesture.ActionUp, ID: b.ID, Pointers: []gesture.Pointer{a, b},
		}},
		Step{AtMs: liftMs + LastFingerLag.Milliseconds(), Event: gesture.PointerEvent{
			Action: gesture.ActionUp, ID: a.ID, Pointers: []gesture.Pointer{a},
		}},
	)
	return steps
}

// Point is an offset from a finger's landing position.
type Point struct {
	X, Y float64
}

// Jitter returns n offsets that never stray further than radius from the
// origin. The shape is picked at random: circle, zigzag or random walk.
func (g *Generator) Jitter(n int, radius float64) []Point {
	if n <= 0 {
		return nil
	}
	var pts []Point
	switch g.rnd.Intn(3) {
	case 0:
		pts = circle(n, radius)
	case 1:
		pts = zigzag(n, radius)
	default:
		pts = g.randomWalk(n, radius)
	}
	return clamp(pts, radius)
}

func circle(n int, r float64) []Point {
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts = append(pts, Point{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
	}
	return pts
}

func zigzag(n int, r float64) []Point {
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		y := r * 0.5
		if i%2 == 0 {
			y = -y
		}
		x := 0.0
		if n > 1 {
			x = r*float64(i)/float64(n-1) - r/2
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}

func (g *Generator) randomWalk(n int, r float64) []Point {
	pts := make([]Point, 0, n)
	x, y := 0.0, 0.0
	step := r / 3
	for i := 0; i < n; i++ {
		angle := g.rnd.Float64() * 2 * math.Pi
		x += step * math.Cos(angle)
		y += step * math.Sin(angle)
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}

func clamp(pts []Point, r float64) []Point {
	for i, p := range pts {
		d := math.Hypot(p.X, p.Y)
		if d > r && d > 0 {
			pts[i] = Point{X: p.X * r / d, Y: p.Y * r / d}
		}
	}
	return pts
}

// Processor is anything that consumes pointer events, normally
// *gesture.TwoFingerDoubleTap.
type Processor interface {
	ProcessEvent(gesture.PointerEvent) bool
}

// Play feeds steps to p, moving clock to each step's time first. It returns
// the number of events that reported a detection.
func Play(p Processor, clock *Clock, steps []Step) int {
	detections := 0
	for _, s := range steps {
		clock.Set(s.AtMs)
		if p.ProcessEvent(s.Event) {
			detections++
		}
	}
	return detections
}

// End returns the time of the last step, or 0 for an empty script.
func End(steps []Step) int64 {
	if len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].AtMs
}
