// Package immersion hides and restores the system chrome around the kiosk
// application.
package immersion

import "log"

// Behavior controls how hidden chrome may be revealed again.
type Behavior int

const (
	// BehaviorDefault leaves chrome hidden until explicitly shown.
	BehaviorDefault Behavior = iota

	// BehaviorTransientBySwipe lets an edge swipe reveal chrome briefly before
	// it hides again on its own.
	BehaviorTransientBySwipe
)

func (b Behavior) String() string {
	switch b {
	case BehaviorTransientBySwipe:
		return "transient-by-swipe"
	default:
		return "default"
	}
}

// Surface is the platform window whose system bars are controlled.
type Surface interface {
	HideSystemBars(Behavior) error
	ShowSystemBars() error
}

// Controller issues hide and show requests. It keeps no state: every call is
// re-sent to the surface, since the platform may restore chrome on its own.
type Controller struct {
	surface Surface
}

// NewController wraps surface. A nil surface turns every call into a no-op.
func NewController(surface Surface) *Controller {
	return &Controller{surface: surface}
}

// EnterImmersive hides status, navigation and gesture chrome.
func (c *Controller) EnterImmersive() {
	if c.surface == nil {
		return
	}
	if err := c.surface.HideSystemBars(BehaviorTransientBySwipe); err != nil {
		log.Printf("immersion: hide system bars: %v", err)
	}
}

// ExitImmersive shows the chrome again.
func (c *Controller) ExitImmersive() {
	if c.surface == nil {
		return
	}
	if err := c.surface.ShowSystemBars(); err != nil {
		log.Printf("immersion: show system bars: %v", err)
	}
}
