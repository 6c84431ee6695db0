//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const acquireTimeout = 5 * time.Second

// ErrNoLockMechanism means none of the inhibitors could be activated.
var ErrNoLockMechanism = errors.New("no kiosk lock mechanism could be activated")

// LockTask is the Linux exclusive-mode capability. It holds a set of
// inhibitors that together keep the session pinned to the kiosk application.
type LockTask struct {
	mu     sync.Mutex
	app    string
	build  func(app, why string) []Inhibitor
	active []Inhibitor
	lockID string
}

// NewLockTask creates a capability that builds its inhibitors for the
// detected desktop on every acquire.
func NewLockTask(app string) *LockTask {
	return &LockTask{app: app, build: BuildInhibitors}
}

// LockID returns the correlation id of the current lock, or "" when unlocked.
func (l *LockTask) LockID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lockID
}

// AcquireExclusiveMode activates every available inhibitor. It succeeds when
// at least one inhibitor that confines the session holds; otherwise whatever
// did activate is released again.
func (l *LockTask) AcquireExclusiveMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.active) > 0 {
		return nil
	}

	id := uuid.NewString()
	why := fmt.Sprintf("kiosk lock %s", id)

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	all := l.build(l.app, why)
	var failures []string
	for _, inh := range all {
		if err := inh.Activate(ctx); err != nil {
			log.Printf("linux: inhibitor %s failed: %v", inh.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", inh.Name(), err))
			continue
		}
		l.active = append(l.active, inh)
	}

	if !slices.ContainsFunc(l.active, Inhibitor.Confines) {
		for i := len(l.active) - 1; i >= 0; i-- {
			if err := l.active[i].Deactivate(); err != nil {
				log.Printf("linux: inhibitor %s failed to release: %v", l.active[i].Name(), err)
			}
		}
		l.active = nil
		if len(failures) > 0 {
			return fmt.Errorf("%w (%s)", ErrNoLockMechanism, strings.Join(failures, "; "))
		}
		return ErrNoLockMechanism
	}

	l.lockID = id
	log.Printf("linux: lock %s acquired with %d of %d inhibitor(s)", id, len(l.active), len(all))
	return nil
}

// ReleaseExclusiveMode deactivates the held inhibitors in reverse order.
// Inhibitors that fail to release stay held so a later call can retry them.
func (l *LockTask) ReleaseExclusiveMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		errs  []error
		still []Inhibitor
	)
	for i := len(l.active) - 1; i >= 0; i-- {
		inh := l.active[i]
		if err := inh.Deactivate(); err != nil {
			log.Printf("linux: inhibitor %s failed to release: %v", inh.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", inh.Name(), err))
			still = append([]Inhibitor{inh}, still...)
		}
	}
	l.active = still

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if l.lockID != "" {
		log.Printf("linux: lock %s released", l.lockID)
	}
	l.lockID = ""
	return nil
}

// Active returns the names of the inhibitors currently held.
func (l *LockTask) Active() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.active))
	for _, inh := range l.active {
		names = append(names, inh.Name())
	}
	return names
}
