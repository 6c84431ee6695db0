package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/kiosk-guard/internal/config"
	"github.com/stigoleg/kiosk-guard/internal/metrics"
	"github.com/stigoleg/kiosk-guard/internal/platform"
	"github.com/stigoleg/kiosk-guard/internal/supervisor"
	"github.com/stigoleg/kiosk-guard/internal/ui"
)

const appVersion = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, cfg, err := config.Resolve(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 2
	}
	if flags.ShowHelp {
		fmt.Println(config.Usage())
		return 0
	}
	if flags.ShowVersion {
		fmt.Printf("kiosk-guard version: %s\n", appVersion)
		return 0
	}

	closeLog, err := setupLogging(cfg.LogFile, flags.Headless)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	defer closeLog()
	log.Printf("main: kiosk-guard %s starting", appVersion)

	plat, err := platform.New(platform.Options{
		AppName:     cfg.Kiosk.AppName,
		WindowTitle: cfg.Kiosk.WindowTitle,
		Devices:     cfg.Input.Devices,
		Keys:        cfg.KeyMap(),
	})
	if err != nil {
		log.Printf("main: platform: %v", err)
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}

	rec := metrics.New(metrics.Config{Namespace: cfg.Metrics.Namespace, Address: cfg.Metrics.Address})
	if err := rec.Start(); err != nil {
		log.Printf("main: metrics disabled: %v", err)
	}
	defer rec.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := plat.OpenInput(ctx)
	if err != nil {
		log.Printf("main: no input devices, gestures disabled: %v", err)
	}

	var (
		p        *tea.Program
		notifier supervisor.Notifier = supervisor.LogNotifier{}
	)
	if !flags.Headless {
		notifier = ui.ProgramNotifier{Send: func(msg tea.Msg) { p.Send(msg) }}
	}

	sup := supervisor.New(supervisor.Options{
		Settings:   settingsFrom(cfg),
		Capability: plat.Exclusive,
		Surface:    plat.Surface,
		Input:      events,
		Recorder:   rec,
		Notifier:   notifier,
	})

	if stop := watchConfig(flags, cfg, sup, notifier); stop != nil {
		defer stop()
	}

	if !flags.Headless {
		model := ui.InitialModel(sup)
		model.Version = appVersion
		model.Notice = plat.Notice
		p = tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithoutSignalHandler(),
		)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- sup.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, getSignalsForPlatform()...)
	defer signal.Stop(sigChan)

	go func() {
		for sig := range sigChan {
			switch {
			case isSIGTSTPForPlatform(sig):
				log.Printf("main: %v, pausing kiosk mode", sig)
				sup.Notify(supervisor.Background)
			case isSIGCONTForPlatform(sig):
				log.Printf("main: %v, resuming kiosk mode", sig)
				sup.Notify(supervisor.Foreground)
			default:
				log.Printf("main: received signal %v", sig)
				cancel()
				if p != nil {
					p.Quit()
				}
				return
			}
		}
	}()

	if p != nil {
		if _, err := p.Run(); err != nil {
			log.Printf("main: console error: %v", err)
		}
		cancel()
	}

	if err := <-runDone; err != nil {
		log.Printf("main: shutdown incomplete: %v", err)
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	log.Printf("main: stopped")
	return 0
}

func settingsFrom(cfg *config.Config) supervisor.Settings {
	return supervisor.Settings{
		Tap:              cfg.TapConfig(),
		Combo:            cfg.ComboDetectorConfig(),
		AutoEnter:        cfg.Kiosk.AutoEnter,
		ReassertInterval: cfg.Kiosk.ReassertInterval.Duration,
	}
}

// watchConfig pushes valid config file edits into the supervisor. It returns
// nil when the file cannot be watched.
func watchConfig(flags *config.Flags, cfg *config.Config, sup *supervisor.Supervisor, n supervisor.Notifier) func() {
	if flags.ConfigPath == "" {
		return nil
	}
	w := config.NewWatcher(flags.ConfigPath, cfg)
	w.OnChange(func(c *config.Config) {
		flags.Apply(c)
		sup.Reconfigure(settingsFrom(c))
	})
	if err := w.Start(); err != nil {
		log.Printf("config: not watching %s: %v", flags.ConfigPath, err)
		return nil
	}
	go func() {
		for err := range w.Errors() {
			n.KioskError("Config reload failed: " + err.Error())
		}
	}()
	return func() { w.Close() }
}

// setupLogging keeps the log off the terminal while the console owns it.
func setupLogging(path string, headless bool) (func(), error) {
	if headless && path == "" {
		return func() {}, nil
	}
	if path == "" {
		path = filepath.Join(os.TempDir(), config.DefaultAppName+".log")
	}
	if headless {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		return func() { f.Close() }, nil
	}
	f, err := tea.LogToFile(path, config.DefaultAppName)
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}
