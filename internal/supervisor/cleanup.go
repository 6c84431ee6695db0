package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const defaultCleanupTimeout = 5 * time.Second

// cleanupStep is one named shutdown action.
type cleanupStep struct {
	name string
	fn   func() error
}

// cleanup runs shutdown steps once, in registration order, bounded by a
// timeout. A panicking step is reported as an error and the rest still run.
type cleanup struct {
	mu      sync.Mutex
	steps   []cleanupStep
	timeout time.Duration
	once    sync.Once
	err     error
}

func newCleanup(timeout time.Duration) *cleanup {
	if timeout <= 0 {
		timeout = defaultCleanupTimeout
	}
	return &cleanup{timeout: timeout}
}

func (c *cleanup) add(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, cleanupStep{name: name, fn: fn})
}

// run executes the steps. Later calls return the first result.
func (c *cleanup) run() error {
	c.once.Do(func() {
		c.err = c.runWithTimeout()
	})
	return c.err
}

func (c *cleanup) runWithTimeout() error {
	c.mu.Lock()
	steps := append([]cleanupStep(nil), c.steps...)
	c.mu.Unlock()

	if len(steps) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for _, step := range steps {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("supervisor: panic during cleanup of %s: %v", step.name, r)
						mu.Lock()
						errs = append(errs, fmt.Errorf("%s: panic: %v", step.name, r))
						mu.Unlock()
					}
				}()

				if err := step.fn(); err != nil {
					log.Printf("supervisor: cleanup of %s failed: %v", step.name, err)
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
					mu.Unlock()
					return
				}
				log.Printf("supervisor: cleaned up %s", step.name)
			}()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("supervisor: cleanup timed out after %v", c.timeout)
		mu.Lock()
		errs = append(errs, errCleanupTimeout)
		mu.Unlock()
	}

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}

var errCleanupTimeout = errors.New("cleanup timeout exceeded")
