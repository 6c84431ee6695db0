package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/kiosk-guard/internal/ui"
)

// Flags are the command line options. They override the config file.
type Flags struct {
	ConfigPath  string
	AutoEnter   bool
	Headless    bool
	Devices     []string
	MetricsAddr string
	LogFile     string
	ShowVersion bool
	ShowHelp    bool

	set map[string]bool
}

// DefaultConfigPath is $XDG_CONFIG_HOME/kioskguard/config.toml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, DefaultAppName, "config.toml")
}

func formatError(err error) string {
	msg := err.Error()
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		errorBox := ui.Current.Help.Copy().
			BorderForeground(lipgloss.Color("#FF4040"))

		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4040")).
			Render("Invalid configuration")

		lines := make([]string, 0, len(verrs))
		for _, v := range verrs {
			lines = append(lines, "• "+v.Field+": "+v.Message)
		}
		details := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Render(strings.Join(lines, "\n"))

		return errorBox.Render(fmt.Sprintf("%s\n\n%s", header, details))
	}
	return ui.Current.Error.Render(msg)
}

// FormatError renders err for the terminal.
func FormatError(err error) string {
	return formatError(err)
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: make(map[string]bool)}

	flags := flag.NewFlagSet(DefaultAppName, flag.ContinueOnError)
	var defaults bytes.Buffer
	flags.SetOutput(&defaults)
	flags.Usage = func() {}

	var devices string
	flags.StringVar(&f.ConfigPath, "config", DefaultConfigPath(), "Path to a TOML or YAML config file")
	flags.StringVar(&f.ConfigPath, "c", DefaultConfigPath(), "Path to a TOML or YAML config file")
	flags.BoolVar(&f.AutoEnter, "auto-enter", false, "Enter kiosk mode on start and whenever the app returns to the foreground")
	flags.BoolVar(&f.Headless, "headless", false, "Run without the terminal console")
	flags.StringVar(&devices, "device", "", "Comma separated evdev nodes to read (default: auto-detect)")
	flags.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. \":9273\")")
	flags.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
	flags.BoolVar(&f.ShowVersion, "version", false, "Show version information")
	flags.BoolVar(&f.ShowVersion, "v", false, "Show version information")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.ShowHelp = true
			return f, nil
		}
		return nil, errors.New(strings.TrimSpace(defaults.String()))
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	flags.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if name == "c" {
			name = "config"
		}
		f.set[name] = true
	})

	for _, d := range strings.Split(devices, ",") {
		if d = strings.TrimSpace(d); d != "" {
			f.Devices = append(f.Devices, d)
		}
	}
	return f, nil
}

// Apply copies every explicitly set flag onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.set["auto-enter"] {
		cfg.Kiosk.AutoEnter = f.AutoEnter
	}
	if f.set["device"] {
		cfg.Input.Devices = f.Devices
	}
	if f.set["metrics-addr"] {
		cfg.Metrics.Address = f.MetricsAddr
	}
	if f.set["log-file"] {
		cfg.LogFile = f.LogFile
	}
}

// FlagDoc documents one command line flag. Names are given without dashes,
// short form first.
type FlagDoc struct {
	Names []string
	Arg   string
	Desc  string
}

// Synopsis renders the flag as "-c, -config PATH".
func (d FlagDoc) Synopsis() string {
	names := make([]string, len(d.Names))
	for i, n := range d.Names {
		names[i] = "-" + n
	}
	s := strings.Join(names, ", ")
	if d.Arg != "" {
		s += " " + d.Arg
	}
	return s
}

// FlagDocs lists the flags ParseFlags accepts, in help order.
var FlagDocs = []FlagDoc{
	{Names: []string{"c", "config"}, Arg: "PATH", Desc: "TOML or YAML config file"},
	{Names: []string{"auto-enter"}, Desc: "Lock on start and on every return to the foreground"},
	{Names: []string{"headless"}, Desc: "No console; control through gestures and signals"},
	{Names: []string{"device"}, Arg: "LIST", Desc: "Comma separated evdev nodes (default: auto-detect)"},
	{Names: []string{"metrics-addr"}, Arg: "ADDR", Desc: "Serve Prometheus metrics, e.g. :9273"},
	{Names: []string{"log-file"}, Arg: "PATH", Desc: "Write logs to PATH"},
	{Names: []string{"v", "version"}, Desc: "Show version information"},
	{Names: []string{"h", "help"}, Desc: "Show this help"},
}

// Usage returns the styled help text.
func Usage() string {
	var b strings.Builder
	b.WriteString(ui.Current.Title.Render(DefaultAppName) + "\n\n")
	b.WriteString("Usage: " + DefaultAppName + " [flags]\n\n")
	for _, d := range FlagDocs {
		fmt.Fprintf(&b, "  %-22s %s\n", d.Synopsis(), d.Desc)
	}
	if p := DefaultConfigPath(); p != "" {
		b.WriteString("\nDefault config file: " + p + "\n")
	}
	b.WriteString("\nExit kiosk mode with a two-finger double tap or Volume Up + Volume Down.")
	return ui.Current.Help.Render(b.String())
}

// Resolve parses args, loads the config file and applies flag overrides.
func Resolve(args []string) (*Flags, *Config, error) {
	f, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if f.ShowHelp || f.ShowVersion {
		return f, nil, nil
	}
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return f, cfg, nil
}
