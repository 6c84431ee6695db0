package gesture

import (
	"log"
	"time"
)

// Combo detector defaults.
const (
	DefaultComboWindow   = 700 * time.Millisecond
	DefaultComboCooldown = 1000 * time.Millisecond
)

// ComboConfig configures KeyCombo.
type ComboConfig struct {
	// Window is the exclusive upper bound on the gap between the increase and
	// decrease presses.
	Window time.Duration

	// Cooldown is the minimum time after a detected combo before another can
	// fire.
	Cooldown time.Duration
}

// DefaultComboConfig returns the stock combo timings.
func DefaultComboConfig() ComboConfig {
	return ComboConfig{Window: DefaultComboWindow, Cooldown: DefaultComboCooldown}
}

func (c ComboConfig) withDefaults() ComboConfig {
	if c.Window <= 0 {
		c.Window = DefaultComboWindow
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultComboCooldown
	}
	return c
}

// KeyCombo detects the increase and decrease keys pressed close together.
// It is not safe for concurrent use.
type KeyCombo struct {
	cfg   ComboConfig
	clock Clock

	// indexed by KeyRole; 0 means unset
	lastDownMs   [2]int64
	lastUpMs     [2]int64
	lastToggleMs int64
}

// NewKeyCombo creates a detector. Zero config fields take defaults.
func NewKeyCombo(cfg ComboConfig, clock Clock) *KeyCombo {
	if clock == nil {
		clock = MonotonicClock()
	}
	return &KeyCombo{cfg: cfg.withDefaults(), clock: clock}
}

// Config returns the effective configuration.
func (k *KeyCombo) Config() ComboConfig {
	return k.cfg
}

// ProcessKeyDown records a press of role and reports whether it completed the
// combo.
func (k *KeyCombo) ProcessKeyDown(role KeyRole) bool {
	if !validRole(role) {
		return false
	}

	now := k.clock.NowMs()
	k.lastDownMs[role] = now

	inc, dec := k.lastDownMs[RoleIncrease], k.lastDownMs[RoleDecrease]
	if inc == 0 || dec == 0 {
		return false
	}

	diff := inc - dec
	if diff < 0 {
		diff = -diff
	}
	sinceToggle := now - k.lastToggleMs

	if diff < k.cfg.Window.Milliseconds() && sinceToggle > k.cfg.Cooldown.Milliseconds() {
		k.lastToggleMs = now
		k.lastDownMs = [2]int64{}
		log.Printf("gesture: key combo detected (gap=%dms)", diff)
		return true
	}
	return false
}

// ProcessKeyUp records a release of role. Releases never complete a combo.
func (k *KeyCombo) ProcessKeyUp(role KeyRole) {
	if !validRole(role) {
		return
	}
	k.lastUpMs[role] = k.clock.NowMs()
}

func validRole(role KeyRole) bool {
	return role == RoleIncrease || role == RoleDecrease
}
