//go:build linux

package linux

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/stigoleg/kiosk-guard/internal/util"
)

// ErrNoWindowTool means neither wmctrl nor xdotool is installed.
var ErrNoWindowTool = errors.New("no window control tool (wmctrl/xdotool) available")

const activeWindow = ":ACTIVE:"

// WindowSurface controls fullscreen state of the kiosk window and the desktop
// edge gestures around it.
type WindowSurface struct {
	mu    sync.Mutex
	title string
	de    string
	run   func(name string, args ...string) (string, error)
	has   func(name string) bool

	hotCorners string // saved value; "" when not changed
}

// NewWindowSurface targets the window whose title contains title. An empty
// title targets the active window.
func NewWindowSurface(title string) *WindowSurface {
	return &WindowSurface{
		title: title,
		de:    DetectSession().Desktop,
		run:   util.Run,
		has:   util.HasCommand,
	}
}

// HideSystemBars makes the window fullscreen and above panels. Edge reveal is
// left to the compositor when transient is set; otherwise GNOME hot corners
// are switched off.
func (w *WindowSurface) HideSystemBars(transient bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.windowState(true); err != nil {
		return err
	}

	if isGnomeShell(w.de) {
		if transient {
			w.restoreHotCorners()
		} else {
			w.disableHotCorners()
		}
	}
	return nil
}

// ShowSystemBars leaves fullscreen and restores the desktop edge gestures.
func (w *WindowSurface) ShowSystemBars() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.restoreHotCorners()
	return w.windowState(false)
}

func (w *WindowSurface) windowState(fullscreen bool) error {
	switch {
	case w.has("wmctrl"):
		target := w.title
		if target == "" {
			target = activeWindow
		}
		op := "remove"
		if fullscreen {
			op = "add"
		}
		if out, err := w.run("wmctrl", "-r", target, "-b", op+",fullscreen,above"); err != nil {
			return fmt.Errorf("wmctrl: %w (output: %q)", err, out)
		}
		return nil

	case w.has("xdotool"):
		args := []string{"getactivewindow"}
		if w.title != "" {
			args = []string{"search", "--name", w.title}
		}
		op := "--remove"
		if fullscreen {
			op = "--add"
		}
		args = append(args, "windowstate", op, "FULLSCREEN")
		if out, err := w.run("xdotool", args...); err != nil {
			return fmt.Errorf("xdotool: %w (output: %q)", err, out)
		}
		return nil
	}
	return ErrNoWindowTool
}

func (w *WindowSurface) disableHotCorners() {
	if !w.has("gsettings") || w.hotCorners != "" {
		return
	}
	out, err := w.run("gsettings", "get", "org.gnome.desktop.interface", "enable-hot-corners")
	if err != nil {
		log.Printf("linux: reading hot corners: %v", err)
		return
	}
	if _, err := w.run("gsettings", "set", "org.gnome.desktop.interface", "enable-hot-corners", "false"); err != nil {
		log.Printf("linux: disabling hot corners: %v", err)
		return
	}
	w.hotCorners = strings.TrimSpace(out)
}

func (w *WindowSurface) restoreHotCorners() {
	if w.hotCorners == "" {
		return
	}
	if out, err := w.run("gsettings", "set", "org.gnome.desktop.interface", "enable-hot-corners", w.hotCorners); err != nil {
		log.Printf("linux: best-effort command gsettings failed: %v (output: %q)", err, out)
		return
	}
	w.hotCorners = ""
}
