package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the config file when it changes on disk. Invalid files are
// reported on Errors and the previous configuration stays in effect.
type Watcher struct {
	path string

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)

	watcher *fsnotify.Watcher
	errChan chan error
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher seeded with the already loaded cfg.
func NewWatcher(path string, cfg *Config) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:    path,
		current: cfg,
		errChan: make(chan error, 10),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Config returns the configuration currently in effect.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers cb to run after every successful reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, cb)
}

// Errors delivers reload failures. Errors are dropped when nobody reads.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Start watches the directory holding the config file, so editors that
// replace the file by rename are still seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("config: reload of %s rejected: %v", w.path, err)
		w.report(err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := slices.Clone(w.onChange)
	w.mu.Unlock()

	log.Printf("config: reloaded %s", w.path)
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
