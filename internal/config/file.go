package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
	"github.com/stigoleg/kiosk-guard/internal/input"
	"github.com/stigoleg/kiosk-guard/internal/util"
)

// Environment overrides.
const (
	EnvAutoEnter   = "KIOSKGUARD_AUTO_ENTER"
	EnvMetricsAddr = "KIOSKGUARD_METRICS_ADDR"
	EnvWindowTitle = "KIOSKGUARD_WINDOW_TITLE"
)

const (
	DefaultAppName          = "kioskguard"
	DefaultReassertInterval = 5 * time.Second
	minReassertInterval     = 100 * time.Millisecond
)

// Duration accepts "250ms"-style strings or bare integers in milliseconds.
type Duration struct {
	time.Duration
}

// Ms wraps a millisecond count.
func Ms(ms int64) Duration {
	return Duration{time.Duration(ms) * time.Millisecond}
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := util.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalTOML accepts both TOML strings and integers.
func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case string:
		return d.UnmarshalText([]byte(x))
	case int64:
		return d.UnmarshalText([]byte(strconv.FormatInt(x, 10)))
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
}

// UnmarshalYAML accepts both YAML strings and integers.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// GestureConfig tunes the two-finger double tap.
type GestureConfig struct {
	TapMaxDuration           Duration `toml:"tap_max_duration" yaml:"tap_max_duration"`
	DoubleTapWindow          Duration `toml:"double_tap_window" yaml:"double_tap_window"`
	MovementTolerance        float64  `toml:"movement_tolerance" yaml:"movement_tolerance"`
	InvalidateOnExtraPointer bool     `toml:"invalidate_on_extra_pointer" yaml:"invalidate_on_extra_pointer"`
}

// ComboConfig tunes the volume key combo.
type ComboConfig struct {
	Window   Duration `toml:"window" yaml:"window"`
	Cooldown Duration `toml:"cooldown" yaml:"cooldown"`
}

// KioskConfig controls the lock itself.
type KioskConfig struct {
	AppName          string   `toml:"app_name" yaml:"app_name"`
	AutoEnter        bool     `toml:"auto_enter" yaml:"auto_enter"`
	WindowTitle      string   `toml:"window_title" yaml:"window_title"`
	ReassertInterval Duration `toml:"reassert_interval" yaml:"reassert_interval"`
}

// InputConfig selects input devices and key codes.
type InputConfig struct {
	Devices     []string `toml:"devices" yaml:"devices"`
	IncreaseKey uint16   `toml:"increase_key" yaml:"increase_key"`
	DecreaseKey uint16   `toml:"decrease_key" yaml:"decrease_key"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Address   string `toml:"address" yaml:"address"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// Config is the complete kiosk-guard configuration.
type Config struct {
	Gesture GestureConfig `toml:"gesture" yaml:"gesture"`
	Combo   ComboConfig   `toml:"combo" yaml:"combo"`
	Kiosk   KioskConfig   `toml:"kiosk" yaml:"kiosk"`
	Input   InputConfig   `toml:"input" yaml:"input"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	LogFile string        `toml:"log_file" yaml:"log_file"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	tap := gesture.DefaultTapConfig()
	combo := gesture.DefaultComboConfig()
	keys := input.DefaultKeyMap()
	return &Config{
		Gesture: GestureConfig{
			TapMaxDuration:    Duration{tap.TapMaxDuration},
			DoubleTapWindow:   Duration{tap.DoubleTapWindow},
			MovementTolerance: tap.MovementTolerance,
		},
		Combo: ComboConfig{
			Window:   Duration{combo.Window},
			Cooldown: Duration{combo.Cooldown},
		},
		Kiosk: KioskConfig{
			AppName:          DefaultAppName,
			ReassertInterval: Duration{DefaultReassertInterval},
		},
		Input: InputConfig{
			IncreaseKey: keys.Increase,
			DecreaseKey: keys.Decrease,
		},
	}
}

// TapConfig converts to the detector configuration.
func (c *Config) TapConfig() gesture.TapConfig {
	return gesture.TapConfig{
		TapMaxDuration:           c.Gesture.TapMaxDuration.Duration,
		DoubleTapWindow:          c.Gesture.DoubleTapWindow.Duration,
		MovementTolerance:        c.Gesture.MovementTolerance,
		InvalidateOnExtraPointer: c.Gesture.InvalidateOnExtraPointer,
	}
}

// ComboDetectorConfig converts to the detector configuration.
func (c *Config) ComboDetectorConfig() gesture.ComboConfig {
	return gesture.ComboConfig{Window: c.Combo.Window.Duration, Cooldown: c.Combo.Cooldown.Duration}
}

// KeyMap returns the configured combo key codes.
func (c *Config) KeyMap() input.KeyMap {
	return input.KeyMap{Increase: c.Input.IncreaseKey, Decrease: c.Input.DecreaseKey}
}

// Load reads path, applies environment overrides and validates. An empty or
// missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func loadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("config: %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file (tried TOML, YAML)")
		}
	}
	return cfg, nil
}

// ApplyEnvOverrides applies KIOSKGUARD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvAutoEnter); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("config: ignoring %s=%q: %v", EnvAutoEnter, v, err)
		} else {
			c.Kiosk.AutoEnter = b
		}
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Address = v
	}
	if v := os.Getenv(EnvWindowTitle); v != "" {
		c.Kiosk.WindowTitle = v
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	positive := []struct {
		field string
		d     Duration
	}{
		{"gesture.tap_max_duration", c.Gesture.TapMaxDuration},
		{"gesture.double_tap_window", c.Gesture.DoubleTapWindow},
		{"combo.window", c.Combo.Window},
		{"combo.cooldown", c.Combo.Cooldown},
	}
	for _, p := range positive {
		if p.d.Duration <= 0 {
			add(p.field, "must be positive, got %s", p.d)
		}
	}

	if c.Gesture.MovementTolerance <= 0 {
		add("gesture.movement_tolerance", "must be positive, got %g", c.Gesture.MovementTolerance)
	}
	if r := c.Kiosk.ReassertInterval.Duration; r != 0 && r < minReassertInterval {
		add("kiosk.reassert_interval", "must be 0 (off) or at least %s, got %s", minReassertInterval, r)
	}
	if c.Kiosk.AppName == "" {
		add("kiosk.app_name", "must not be empty")
	}
	if c.Input.IncreaseKey == 0 || c.Input.DecreaseKey == 0 {
		add("input", "increase_key and decrease_key must be set")
	} else if c.Input.IncreaseKey == c.Input.DecreaseKey {
		add("input", "increase_key and decrease_key must differ")
	}
	if c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			add("metrics.address", "%v", err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
