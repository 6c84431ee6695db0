// Package kiosk holds the locked/unlocked state machine that sits between the
// override gestures and the platform's exclusive-mode capability.
package kiosk

import (
	"errors"
	"fmt"
	"log"
)

// Capability is the platform mechanism that enforces kiosk mode once granted.
type Capability interface {
	AcquireExclusiveMode() error
	ReleaseExclusiveMode() error
}

// ErrNoCapability is reported when the controller has no capability to call.
var ErrNoCapability = errors.New("exclusive mode is not available on this device")

// CapabilityError is a refused acquire or release. The controller never
// returns it; it is only surfaced through Listener.KioskError and logs.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s exclusive mode: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Listener receives the controller's notifications.
type Listener interface {
	// KioskStateChanged fires only after a successful transition.
	KioskStateChanged(locked bool)

	// KioskError carries a short human-readable reason for a failed
	// transition.
	KioskError(message string)
}

// State is the kiosk lock state.
type State int

const (
	StateUnlocked State = iota
	StateLocked
)

func (s State) String() string {
	if s == StateLocked {
		return "locked"
	}
	return "unlocked"
}

const (
	opAcquire = "acquire"
	opRelease = "release"
)

// Controller owns the kiosk state. It is not safe for concurrent use; the
// supervisor drives it from a single goroutine.
type Controller struct {
	capability Capability
	listener   Listener
	state      State

	autoEnter     bool
	resumePending bool
}

// NewController creates an unlocked controller. A nil listener discards
// notifications.
func NewController(c Capability, l Listener) *Controller {
	return &Controller{capability: c, listener: l}
}

// IsActive reports whether kiosk mode is locked.
func (c *Controller) IsActive() bool {
	return c.state == StateLocked
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// SetAutoEnter makes OnForeground enter kiosk mode even when it was not
// locked before going to the background.
func (c *Controller) SetAutoEnter(enabled bool) {
	c.autoEnter = enabled
}

// Enter locks kiosk mode. It does nothing when already locked. When
// suppressUserFacingError is set a failure is only logged, which suits
// best-effort entry at startup on devices that were never provisioned.
func (c *Controller) Enter(suppressUserFacingError bool) {
	if c.state == StateLocked {
		return
	}

	if err := c.call(opAcquire); err != nil {
		log.Printf("kiosk: enter failed: %v", err)
		if !suppressUserFacingError {
			c.surface("Could not enter kiosk mode: " + reason(err))
		}
		return
	}

	c.state = StateLocked
	log.Printf("kiosk: locked")
	c.changed(true)
}

// Exit unlocks kiosk mode. It does nothing when already unlocked.
func (c *Controller) Exit() {
	if c.state == StateUnlocked {
		return
	}
	c.resumePending = false

	if err := c.call(opRelease); err != nil {
		log.Printf("kiosk: exit failed: %v", err)
		c.surface("Could not exit kiosk mode: " + reason(err))
		return
	}

	c.state = StateUnlocked
	log.Printf("kiosk: unlocked")
	c.changed(false)
}

// Toggle exits when locked and enters otherwise.
func (c *Controller) Toggle() {
	if c.state == StateLocked {
		c.Exit()
		return
	}
	c.Enter(false)
}

// OnBackground releases the lock while the hosted app is not in front and
// remembers to take it again on return.
func (c *Controller) OnBackground() {
	if c.state != StateLocked {
		return
	}

	if err := c.call(opRelease); err != nil {
		log.Printf("kiosk: background release failed, keeping lock: %v", err)
		return
	}

	c.state = StateUnlocked
	c.resumePending = true
	log.Printf("kiosk: paused for background")
	c.changed(false)
}

// OnForeground re-enters kiosk mode when a resume is pending or auto-entry is
// enabled. Failures are never shown to the user here.
func (c *Controller) OnForeground() {
	if c.state == StateLocked || (!c.resumePending && !c.autoEnter) {
		return
	}
	c.resumePending = false
	c.Enter(true)
}

// call runs one capability operation, converting errors and panics into a
// *CapabilityError.
func (c *Controller) call(op string) (err error) {
	if c.capability == nil {
		return &CapabilityError{Op: op, Err: ErrNoCapability}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("kiosk: panic during %s: %v", op, r)
			err = &CapabilityError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var callErr error
	switch op {
	case opAcquire:
		callErr = c.capability.AcquireExclusiveMode()
	default:
		callErr = c.capability.ReleaseExclusiveMode()
	}
	if callErr != nil {
		return &CapabilityError{Op: op, Err: callErr}
	}
	return nil
}

func (c *Controller) changed(locked bool) {
	if c.listener != nil {
		c.listener.KioskStateChanged(locked)
	}
}

func (c *Controller) surface(msg string) {
	if c.listener != nil {
		c.listener.KioskError(msg)
	}
}

func reason(err error) string {
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return ce.Err.Error()
	}
	return err.Error()
}
