package supervisor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanupRunsInOrder(t *testing.T) {
	c := newCleanup(time.Second)
	var order []string
	c.add("first", func() error { order = append(order, "first"); return nil })
	c.add("second", func() error { order = append(order, "second"); return nil })

	assert.NoError(t, c.run())
	assert.Equal(t, []string{"first", "second"}, order)

	assert.NoError(t, c.run())
	assert.Len(t, order, 2, "steps run once")
}

func TestCleanupCollectsErrorsAndPanics(t *testing.T) {
	c := newCleanup(time.Second)
	boom := errors.New("boom")
	ran := false
	c.add("fails", func() error { return boom })
	c.add("panics", func() error { panic("oops") })
	c.add("last", func() error { ran = true; return nil })

	err := c.run()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panics: panic: oops")
	assert.True(t, ran)
}

func TestCleanupTimeout(t *testing.T) {
	c := newCleanup(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	c.add("stuck", func() error { <-release; return nil })

	assert.ErrorIs(t, c.run(), errCleanupTimeout)
}

func TestCleanupEmpty(t *testing.T) {
	assert.NoError(t, newCleanup(0).run())
}
