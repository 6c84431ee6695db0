//go:build linux

package platform

import (
	"context"
	"fmt"
	"log"

	"github.com/stigoleg/kiosk-guard/internal/immersion"
	"github.com/stigoleg/kiosk-guard/internal/input"
	"github.com/stigoleg/kiosk-guard/internal/platform/linux"
)

// linuxSurface adapts linux.WindowSurface to DisplaySurface.
type linuxSurface struct {
	w *linux.WindowSurface
}

func (s linuxSurface) HideSystemBars(b immersion.Behavior) error {
	return s.w.HideSystemBars(b == immersion.BehaviorTransientBySwipe)
}

func (s linuxSurface) ShowSystemBars() error {
	return s.w.ShowSystemBars()
}

// New creates the Linux backends and logs startup diagnostics.
func New(opts Options) (*Platform, error) {
	env := linux.ProbeEnvironment()
	log.Printf("linux: session desktop=%s display=%s", env.Desktop, env.Display)
	log.Printf("linux: tools wmctrl=%v xdotool=%v gsettings=%v input=%v",
		env.Has("wmctrl"), env.Has("xdotool"), env.Has("gsettings"), env.InputAccess)

	var notice string
	if report := linux.Report(linux.MissingRequirements(env, linux.DetectDistro())); report != "" {
		log.Printf("linux: %s", report)
		notice = "Some optional tools are missing, see the log for details."
	}

	return &Platform{
		Notice:    notice,
		Exclusive: linux.NewLockTask(opts.AppName),
		Surface:   linuxSurface{w: linux.NewWindowSurface(opts.WindowTitle)},
		openInput: func(ctx context.Context) (<-chan input.Event, error) {
			paths := opts.Devices
			if len(paths) == 0 {
				found, err := linux.Discover(opts.Keys)
				if err != nil {
					return nil, fmt.Errorf("discover input devices: %w", err)
				}
				for _, d := range found {
					paths = append(paths, d.EventNode())
				}
			}
			if len(paths) == 0 {
				return nil, fmt.Errorf("no touch screen or volume keys found")
			}
			return linux.StreamInput(ctx, paths, opts.Keys)
		},
	}, nil
}
