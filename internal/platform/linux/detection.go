//go:build linux

// Package linux implements the kiosk lock, window control and evdev input on
// Linux desktops.
package linux

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/stigoleg/kiosk-guard/internal/util"
)

const (
	DisplayServerWayland = "wayland"
	DisplayServerX11     = "x11"
	DisplayServerUnknown = "unknown"
)

const (
	DesktopCosmic  = "cosmic"
	DesktopGNOME   = "gnome"
	DesktopKDE     = "kde"
	DesktopXFCE    = "xfce"
	DesktopMATE    = "mate"
	DesktopUnknown = "unknown"
)

// desktopMarkers is checked in order; Pop!_OS reports both pop and GNOME.
var desktopMarkers = []struct {
	desktop string
	markers []string
}{
	{DesktopCosmic, []string{"cosmic", "pop"}},
	{DesktopGNOME, []string{"gnome"}},
	{DesktopKDE, []string{"kde", "plasma"}},
	{DesktopXFCE, []string{"xfce"}},
	{DesktopMATE, []string{"mate"}},
}

// helperTools are the external commands the backends shell out to.
var helperTools = []string{"wmctrl", "xdotool", "gsettings"}

// Session describes the graphical session kiosk-guard runs in.
type Session struct {
	Desktop string
	Display string
}

// DetectSession reads the session from the environment.
func DetectSession() Session {
	return sessionFrom(os.Getenv)
}

func sessionFrom(getenv func(string) string) Session {
	return Session{
		Desktop: desktopFrom(getenv),
		Display: displayFrom(getenv),
	}
}

// GnomeShell reports whether the desktop is GNOME Shell or a derivative that
// honours the GNOME lockdown schemas.
func (s Session) GnomeShell() bool {
	return isGnomeShell(s.Desktop)
}

func isGnomeShell(desktop string) bool {
	return desktop == DesktopGNOME || desktop == DesktopCosmic
}

func desktopFrom(getenv func(string) string) string {
	hints := strings.ToLower(getenv("XDG_CURRENT_DESKTOP") + ":" + getenv("DESKTOP_SESSION"))
	for _, d := range desktopMarkers {
		for _, m := range d.markers {
			if strings.Contains(hints, m) {
				return d.desktop
			}
		}
	}
	return DesktopUnknown
}

// displayFrom prefers the live sockets over XDG_SESSION_TYPE, which is often
// stale inside nested sessions.
func displayFrom(getenv func(string) string) string {
	switch {
	case getenv("WAYLAND_DISPLAY") != "":
		return DisplayServerWayland
	case getenv("XDG_SESSION_TYPE") == DisplayServerWayland:
		return DisplayServerWayland
	case getenv("DISPLAY") != "":
		return DisplayServerX11
	case getenv("XDG_SESSION_TYPE") == DisplayServerX11:
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// Environment is everything the startup diagnostics report on.
type Environment struct {
	Session
	Tools        map[string]bool
	InputAccess  bool
	InputProblem string
}

// Has reports whether tool was found on PATH.
func (e Environment) Has(tool string) bool {
	return e.Tools[tool]
}

// ProbeEnvironment inspects the session, the helper tools and evdev access.
func ProbeEnvironment() Environment {
	env := Environment{
		Session: DetectSession(),
		Tools:   make(map[string]bool, len(helperTools)),
	}
	for _, t := range helperTools {
		env.Tools[t] = util.HasCommand(t)
	}
	env.InputProblem = inputProblem()
	env.InputAccess = env.InputProblem == ""
	return env
}

// Distro identifies the distribution for install hints.
type Distro struct {
	ID         string
	PkgManager string
}

var packageManagers = []struct {
	name     string
	families []string
}{
	{"apt", []string{"debian", "ubuntu", "pop"}},
	{"dnf", []string{"fedora", "rhel", "centos"}},
	{"pacman", []string{"arch", "manjaro"}},
	{"zypper", []string{"opensuse", "suse"}},
	{"apk", []string{"alpine"}},
}

// DetectDistro reads /etc/os-release.
func DetectDistro() Distro {
	var id, like string
	if f, err := os.Open("/etc/os-release"); err == nil {
		id, like = parseOSRelease(f)
		f.Close()
	}
	if id == "" {
		id = "unknown"
	}
	return Distro{ID: id, PkgManager: packageManagerFor(id, like, util.HasCommand)}
}

func parseOSRelease(r io.Reader) (id, like string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.Trim(value, `"'`))
		switch key {
		case "ID":
			id = value
		case "ID_LIKE":
			like = value
		}
	}
	return id, like
}

// packageManagerFor maps an os-release family to its package manager. When
// nothing matches it falls back to whatever manager is installed.
func packageManagerFor(id, like string, has func(string) bool) string {
	names := append([]string{id}, strings.Fields(like)...)
	for _, pm := range packageManagers {
		for _, fam := range pm.families {
			for _, n := range names {
				if n == fam || strings.HasPrefix(n, fam+"-") {
					if pm.name == "dnf" && !has("dnf") && has("yum") {
						return "yum"
					}
					return pm.name
				}
			}
		}
	}
	for _, pm := range packageManagers {
		if has(pm.name) {
			return pm.name
		}
	}
	if has("yum") {
		return "yum"
	}
	return "unknown"
}
