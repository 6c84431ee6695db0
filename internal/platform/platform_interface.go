package platform

import (
	"context"

	"github.com/stigoleg/kiosk-guard/internal/immersion"
	"github.com/stigoleg/kiosk-guard/internal/input"
)

// ExclusiveMode is the platform lock capability behind kiosk mode.
type ExclusiveMode interface {
	AcquireExclusiveMode() error
	ReleaseExclusiveMode() error
}

// DisplaySurface controls the system chrome around the kiosk window.
type DisplaySurface interface {
	HideSystemBars(behavior immersion.Behavior) error
	ShowSystemBars() error
}

// Options configures the platform backends.
type Options struct {
	// AppName identifies kiosk-guard to inhibitor services.
	AppName string

	// WindowTitle selects the kiosk window; empty means the active window.
	WindowTitle string

	// Devices lists evdev nodes to read; empty means auto-discover.
	Devices []string

	Keys input.KeyMap
}

// Platform bundles the backends for the running OS.
type Platform struct {
	Exclusive ExclusiveMode
	Surface   DisplaySurface

	// Notice is a one-line startup warning for the console, "" when the
	// platform is fully usable.
	Notice string

	openInput func(ctx context.Context) (<-chan input.Event, error)
}

// OpenInput starts reading the configured input devices. The channel closes
// when ctx is done or every device has failed.
func (p *Platform) OpenInput(ctx context.Context) (<-chan input.Event, error) {
	return p.openInput(ctx)
}
