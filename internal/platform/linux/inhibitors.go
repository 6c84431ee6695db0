//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/stigoleg/kiosk-guard/internal/util"
)

// GNOME/MATE SessionManager inhibit flags.
const (
	sessionInhibitLogout     = 1
	sessionInhibitSwitchUser = 2
	sessionInhibitSuspend    = 4
	sessionInhibitIdle       = 8
	sessionInhibitKiosk      = sessionInhibitLogout | sessionInhibitSwitchUser | sessionInhibitSuspend | sessionInhibitIdle
)

// logind inhibit lock: every key and state that would take the user out of
// the kiosk application.
const logindWhat = "handle-power-key:handle-suspend-key:handle-hibernate-key:handle-lid-switch:idle:sleep"

var errNoCookie = errors.New("inhibitor returned no cookie")

// Inhibitor is one mechanism that contributes to the kiosk lock.
type Inhibitor interface {
	Name() string
	Activate(ctx context.Context) error
	Deactivate() error

	// Confines reports whether holding the inhibitor keeps the user from
	// leaving the session. The screen saver inhibitor does not.
	Confines() bool
}

// dbusCaller is the part of dbus.BusObject the inhibitors use.
type dbusCaller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

func systemObject(dest, path string) func() (dbusCaller, error) {
	return func() (dbusCaller, error) {
		conn, err := dbus.SystemBus()
		if err != nil {
			return nil, fmt.Errorf("connect system bus: %w", err)
		}
		return conn.Object(dest, dbus.ObjectPath(path)), nil
	}
}

func sessionObject(dest, path string) func() (dbusCaller, error) {
	return func() (dbusCaller, error) {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect session bus: %w", err)
		}
		return conn.Object(dest, dbus.ObjectPath(path)), nil
	}
}

// LogindInhibitor takes a blocking logind inhibitor lock. The lock lives as
// long as the returned file descriptor stays open.
type LogindInhibitor struct {
	who, why string
	connect  func() (dbusCaller, error)
	lock     *os.File
}

// NewLogindInhibitor creates an inhibitor on org.freedesktop.login1.
func NewLogindInhibitor(who, why string) *LogindInhibitor {
	return &LogindInhibitor{
		who:     who,
		why:     why,
		connect: systemObject("org.freedesktop.login1", "/org/freedesktop/login1"),
	}
}

func (l *LogindInhibitor) Name() string { return "logind" }

func (l *LogindInhibitor) Confines() bool { return true }

func (l *LogindInhibitor) Activate(ctx context.Context) error {
	if l.lock != nil {
		return nil
	}
	obj, err := l.connect()
	if err != nil {
		return err
	}

	var fd dbus.UnixFD
	call := obj.CallWithContext(ctx, "org.freedesktop.login1.Manager.Inhibit", 0, logindWhat, l.who, l.why, "block")
	if err := call.Store(&fd); err != nil {
		return fmt.Errorf("logind inhibit: %w", err)
	}
	l.lock = os.NewFile(uintptr(fd), "logind-inhibit")
	log.Printf("linux: logind inhibitor holding %s", logindWhat)
	return nil
}

func (l *LogindInhibitor) Deactivate() error {
	if l.lock == nil {
		return nil
	}
	err := l.lock.Close()
	l.lock = nil
	return err
}

// Held reports whether the inhibitor lock is open.
func (l *LogindInhibitor) Held() bool {
	return l.lock != nil
}

// CookieInhibitor is a session-bus inhibitor that returns a uint32 cookie,
// such as org.gnome.SessionManager or org.freedesktop.ScreenSaver.
type CookieInhibitor struct {
	name      string
	iface     string
	args      []interface{}
	uninhibit string
	confines  bool
	connect   func() (dbusCaller, error)
	cookie    uint32
}

func (c *CookieInhibitor) Name() string { return c.name }

func (c *CookieInhibitor) Confines() bool { return c.confines }

func (c *CookieInhibitor) Activate(ctx context.Context) error {
	if c.cookie != 0 {
		return nil
	}
	obj, err := c.connect()
	if err != nil {
		return err
	}

	var cookie uint32
	if err := obj.CallWithContext(ctx, c.iface+".Inhibit", 0, c.args...).Store(&cookie); err != nil {
		return fmt.Errorf("%s inhibit: %w", c.name, err)
	}
	if cookie == 0 {
		return fmt.Errorf("%s: %w", c.name, errNoCookie)
	}
	c.cookie = cookie
	log.Printf("linux: dbus inhibitor %s activated with cookie %d", c.name, cookie)
	return nil
}

func (c *CookieInhibitor) Deactivate() error {
	if c.cookie == 0 {
		return nil
	}
	obj, err := c.connect()
	if err != nil {
		return err
	}
	if call := obj.CallWithContext(context.Background(), c.iface+"."+c.uninhibit, 0, c.cookie); call.Err != nil {
		return fmt.Errorf("%s uninhibit: %w", c.name, call.Err)
	}
	c.cookie = 0
	return nil
}

// Cookie returns the inhibitor cookie, 0 when inactive.
func (c *CookieInhibitor) Cookie() uint32 {
	return c.cookie
}

// NewSessionManagerInhibitor blocks logout, user switching, suspend and idle
// through a GNOME-compatible SessionManager. dest is org.gnome.SessionManager
// or org.mate.SessionManager.
func NewSessionManagerInhibitor(name, dest, app, why string) *CookieInhibitor {
	path := "/" + strings.ReplaceAll(dest, ".", "/")
	return &CookieInhibitor{
		name:      name,
		iface:     dest,
		args:      []interface{}{app, uint32(0), why, uint32(sessionInhibitKiosk)},
		uninhibit: "Uninhibit",
		confines:  true,
		connect:   sessionObject(dest, path),
	}
}

// NewScreenSaverInhibitor keeps the screen from blanking or locking.
func NewScreenSaverInhibitor(app, why string) *CookieInhibitor {
	const dest = "org.freedesktop.ScreenSaver"
	return &CookieInhibitor{
		name:      "dbus-screensaver",
		iface:     dest,
		args:      []interface{}{app, why},
		uninhibit: "UnInhibit",
		connect:   sessionObject(dest, "/org/freedesktop/ScreenSaver"),
	}
}

// LockdownInhibitor flips GNOME lockdown keys that let the user leave the
// kiosk application and restores the previous values on deactivation.
type LockdownInhibitor struct {
	run          func(name string, args ...string) (string, error)
	has          func(name string) bool
	prevSettings map[string]string
}

// NewLockdownInhibitor creates a gsettings based inhibitor.
func NewLockdownInhibitor() *LockdownInhibitor {
	return &LockdownInhibitor{run: util.Run, has: util.HasCommand}
}

func (g *LockdownInhibitor) Name() string { return "gsettings-lockdown" }

func (g *LockdownInhibitor) Confines() bool { return true }

var lockdownSettings = []struct{ schema, key, value string }{
	{"org.gnome.desktop.lockdown", "disable-log-out", "true"},
	{"org.gnome.desktop.lockdown", "disable-user-switching", "true"},
	{"org.gnome.desktop.lockdown", "disable-lock-screen", "true"},
	{"org.gnome.mutter", "overlay-key", "''"},
}

func (g *LockdownInhibitor) Activate(ctx context.Context) error {
	if !g.has("gsettings") {
		return fmt.Errorf("gsettings command not found")
	}
	if g.prevSettings == nil {
		g.prevSettings = make(map[string]string)
	}

	var failedSettings []string
	for _, s := range lockdownSettings {
		id := s.schema + " " + s.key
		if _, saved := g.prevSettings[id]; !saved {
			if out, err := g.run("gsettings", "get", s.schema, s.key); err == nil {
				g.prevSettings[id] = out
			}
		}
		if out, err := g.run("gsettings", "set", s.schema, s.key, s.value); err != nil {
			failedSettings = append(failedSettings, fmt.Sprintf("%s.%s: %v", s.schema, s.key, err))
			log.Printf("linux: gsettings set failed for %s.%s: %v (out: %q)", s.schema, s.key, err, out)
		}
	}

	if len(failedSettings) == len(lockdownSettings) {
		return fmt.Errorf("all gsettings failed to apply: %v", failedSettings)
	}
	return nil
}

func (g *LockdownInhibitor) Deactivate() error {
	var errs []error
	for k, v := range g.prevSettings {
		parts := strings.SplitN(k, " ", 2)
		if out, err := g.run("gsettings", "set", parts[0], parts[1], v); err != nil {
			errs = append(errs, fmt.Errorf("restore %s.%s: %w (out: %q)", parts[0], parts[1], err, out))
			continue
		}
		delete(g.prevSettings, k)
	}
	return errors.Join(errs...)
}

// BuildInhibitors builds the inhibitors that make up the kiosk lock for the
// detected desktop environment.
func BuildInhibitors(app, why string) []Inhibitor {
	inhibitors := []Inhibitor{NewLogindInhibitor(app, why)}

	switch desktop := DetectSession().Desktop; {
	case isGnomeShell(desktop):
		inhibitors = append(inhibitors,
			NewSessionManagerInhibitor("dbus-gnome-session", "org.gnome.SessionManager", app, why),
			NewLockdownInhibitor(),
		)
	case desktop == DesktopMATE:
		inhibitors = append(inhibitors,
			NewSessionManagerInhibitor("dbus-mate-session", "org.mate.SessionManager", app, why))
	}

	return append(inhibitors, NewScreenSaverInhibitor(app, why))
}
