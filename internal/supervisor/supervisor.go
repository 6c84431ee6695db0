// Package supervisor hosts the kiosk core: it routes input to the gesture
// detectors, turns detections into kiosk toggles and keeps the display
// immersive while locked.
package supervisor

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
	"github.com/stigoleg/kiosk-guard/internal/immersion"
	"github.com/stigoleg/kiosk-guard/internal/input"
	"github.com/stigoleg/kiosk-guard/internal/kiosk"
	"github.com/stigoleg/kiosk-guard/internal/metrics"
)

const queueSize = 16

// errStillLocked is returned from shutdown when the lock could not be released.
var errStillLocked = errors.New("kiosk lock still held")

// Command is an operator request.
type Command int

const (
	CommandEnter Command = iota
	CommandExit
	CommandToggle
)

func (c Command) String() string {
	switch c {
	case CommandEnter:
		return "enter"
	case CommandExit:
		return "exit"
	case CommandToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Lifecycle is a host application lifecycle or focus event.
type Lifecycle int

const (
	Foreground Lifecycle = iota
	Background
	FocusGained
	FocusLost
)

func (l Lifecycle) String() string {
	switch l {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	case FocusGained:
		return "focus-gained"
	case FocusLost:
		return "focus-lost"
	default:
		return "unknown"
	}
}

// Notifier receives user-facing feedback.
type Notifier interface {
	kiosk.Listener
	GestureDetected(gesture string)
}

// LogNotifier writes feedback to the log, for headless runs.
type LogNotifier struct{}

func (LogNotifier) KioskStateChanged(locked bool) {
	if locked {
		log.Printf("supervisor: kiosk mode on")
		return
	}
	log.Printf("supervisor: kiosk mode off")
}

func (LogNotifier) KioskError(msg string) {
	log.Printf("supervisor: %s", msg)
}

func (LogNotifier) GestureDetected(gesture string) {
	log.Printf("supervisor: override gesture %s", gesture)
}

// Settings are the tunables that may change at runtime.
type Settings struct {
	Tap   gesture.TapConfig
	Combo gesture.ComboConfig

	// AutoEnter locks on start and on every return to the foreground.
	AutoEnter bool

	// ReassertInterval re-issues the immersive request while locked. Zero
	// disables it.
	ReassertInterval time.Duration
}

// Options wires a Supervisor to its collaborators.
type Options struct {
	Settings   Settings
	Capability kiosk.Capability
	Surface    immersion.Surface
	Input      <-chan input.Event

	// Optional.
	Clock          gesture.Clock
	Recorder       metrics.Recorder
	Notifier       Notifier
	CleanupTimeout time.Duration
}

// Supervisor owns the detectors and controllers. Everything they touch runs
// on the goroutine executing Run; other goroutines talk to it through the
// exported request methods.
type Supervisor struct {
	settings  Settings
	clock     gesture.Clock
	tap       *gesture.TwoFingerDoubleTap
	combo     *gesture.KeyCombo
	kiosk     *kiosk.Controller
	immersion *immersion.Controller
	recorder  metrics.Recorder
	notifier  Notifier
	cleanup   *cleanup

	input     <-chan input.Event
	commands  chan Command
	lifecycle chan Lifecycle
	reconfig  chan Settings
	done      chan struct{}
	locked    atomic.Bool
}

// New creates a supervisor. Run must be called to start processing.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		settings:  opts.Settings,
		clock:     opts.Clock,
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
		input:     opts.Input,
		commands:  make(chan Command, queueSize),
		lifecycle: make(chan Lifecycle, queueSize),
		reconfig:  make(chan Settings, 1),
		done:      make(chan struct{}),
		immersion: immersion.NewController(opts.Surface),
		cleanup:   newCleanup(opts.CleanupTimeout),
	}
	if s.clock == nil {
		s.clock = gesture.MonotonicClock()
	}
	if s.recorder == nil {
		s.recorder = metrics.NewNoop()
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}

	s.kiosk = kiosk.NewController(instrument(opts.Capability, s.recorder), hostListener{s})
	s.kiosk.SetAutoEnter(s.settings.AutoEnter)
	s.buildDetectors()

	s.cleanup.add("kiosk lock", func() error {
		s.kiosk.Exit()
		if s.kiosk.IsActive() {
			return errStillLocked
		}
		return nil
	})
	s.cleanup.add("system chrome", func() error {
		s.immersion.ExitImmersive()
		return nil
	})
	return s
}

func (s *Supervisor) buildDetectors() {
	s.tap = gesture.NewTwoFingerDoubleTap(s.settings.Tap, s.clock)
	s.combo = gesture.NewKeyCombo(s.settings.Combo, s.clock)
}

// Locked reports the kiosk state. Safe from any goroutine.
func (s *Supervisor) Locked() bool {
	return s.locked.Load()
}

// Enter asks for kiosk mode.
func (s *Supervisor) Enter() { s.command(CommandEnter) }

// Exit asks to leave kiosk mode.
func (s *Supervisor) Exit() { s.command(CommandExit) }

// Toggle flips kiosk mode.
func (s *Supervisor) Toggle() { s.command(CommandToggle) }

// Notify delivers a lifecycle or focus event.
func (s *Supervisor) Notify(l Lifecycle) {
	select {
	case s.lifecycle <- l:
	case <-s.done:
	}
}

// Reconfigure replaces the settings. Gesture state in progress is dropped.
func (s *Supervisor) Reconfigure(st Settings) {
	for {
		select {
		case s.reconfig <- st:
			return
		case <-s.done:
			return
		default:
		}
		// Only the newest settings matter.
		select {
		case <-s.reconfig:
		default:
		}
	}
}

func (s *Supervisor) command(c Command) {
	select {
	case s.commands <- c:
	case <-s.done:
	}
}

// Run processes events until ctx is done, then releases the lock and shows
// the system chrome. The error reports cleanup failures only.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.done)

	var ticker *time.Ticker
	var reassert <-chan time.Time
	resetTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, reassert = nil, nil
		}
		if d := s.settings.ReassertInterval; d > 0 {
			ticker = time.NewTicker(d)
			reassert = ticker.C
		}
	}
	resetTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	if s.settings.AutoEnter {
		s.kiosk.Enter(true)
	}

	events := s.input
	for {
		select {
		case <-ctx.Done():
			log.Printf("supervisor: shutting down")
			return s.cleanup.run()

		case ev, ok := <-events:
			if !ok {
				log.Printf("supervisor: input closed, gestures disabled")
				events = nil
				continue
			}
			s.handleInput(ev)

		case c := <-s.commands:
			s.handleCommand(c)

		case l := <-s.lifecycle:
			s.handleLifecycle(l)

		case st := <-s.reconfig:
			s.apply(st)
			resetTicker()

		case <-reassert:
			s.handleLifecycle(FocusGained)
		}
	}
}

func (s *Supervisor) handleInput(ev input.Event) {
	switch ev.Kind {
	case input.KindPointer:
		if s.tap.ProcessEvent(ev.Pointer) {
			s.detected(metrics.GestureDoubleTap)
		}
	case input.KindKey:
		if !ev.Key.Pressed {
			s.combo.ProcessKeyUp(ev.Key.Role)
			return
		}
		if s.combo.ProcessKeyDown(ev.Key.Role) {
			s.detected(metrics.GestureKeyCombo)
		}
	}
}

func (s *Supervisor) detected(name string) {
	log.Printf("supervisor: %s detected", name)
	s.recorder.GestureDetected(name)
	s.notifier.GestureDetected(name)
	s.kiosk.Toggle()
}

func (s *Supervisor) handleCommand(c Command) {
	switch c {
	case CommandEnter:
		s.kiosk.Enter(false)
	case CommandExit:
		s.kiosk.Exit()
	case CommandToggle:
		s.kiosk.Toggle()
	}
}

func (s *Supervisor) handleLifecycle(l Lifecycle) {
	switch l {
	case Foreground:
		s.kiosk.OnForeground()
		s.reassertImmersion()
	case Background:
		s.kiosk.OnBackground()
	case FocusGained:
		s.reassertImmersion()
	case FocusLost:
		// The compositor restores chrome on its own; nothing to undo.
	}
}

// reassertImmersion hides the chrome again while locked. The platform may
// have restored it behind our back.
func (s *Supervisor) reassertImmersion() {
	if s.kiosk.IsActive() {
		s.immersion.EnterImmersive()
	}
}

func (s *Supervisor) apply(st Settings) {
	s.settings = st
	s.kiosk.SetAutoEnter(st.AutoEnter)
	s.buildDetectors()
	log.Printf("supervisor: settings applied (tap %v/%v, combo %v/%v, auto-enter %v)",
		st.Tap.TapMaxDuration, st.Tap.DoubleTapWindow, st.Combo.Window, st.Combo.Cooldown, st.AutoEnter)
}

// hostListener forwards kiosk transitions to the display and the notifier.
type hostListener struct {
	s *Supervisor
}

func (h hostListener) KioskStateChanged(locked bool) {
	h.s.locked.Store(locked)
	if locked {
		h.s.immersion.EnterImmersive()
	} else {
		h.s.immersion.ExitImmersive()
	}
	h.s.recorder.Transition(locked)
	h.s.notifier.KioskStateChanged(locked)
}

func (h hostListener) KioskError(msg string) {
	h.s.notifier.KioskError(msg)
}
