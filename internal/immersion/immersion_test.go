package immersion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSurface struct {
	calls []string
	err   error
}

func (f *fakeSurface) HideSystemBars(b Behavior) error {
	f.calls = append(f.calls, "hide:"+b.String())
	return f.err
}

func (f *fakeSurface) ShowSystemBars() error {
	f.calls = append(f.calls, "show")
	return f.err
}

func TestRedundantCallsReachSurface(t *testing.T) {
	s := &fakeSurface{}
	c := NewController(s)

	c.EnterImmersive()
	c.EnterImmersive()
	c.ExitImmersive()
	c.EnterImmersive()

	assert.Equal(t, []string{
		"hide:transient-by-swipe",
		"hide:transient-by-swipe",
		"show",
		"hide:transient-by-swipe",
	}, s.calls)
}

func TestSurfaceErrorsAreSwallowed(t *testing.T) {
	s := &fakeSurface{err: errors.New("no display")}
	c := NewController(s)

	assert.NotPanics(t, func() {
		c.EnterImmersive()
		c.ExitImmersive()
	})
	assert.Len(t, s.calls, 2)
}

func TestNilSurface(t *testing.T) {
	c := NewController(nil)
	assert.NotPanics(t, func() {
		c.EnterImmersive()
		c.ExitImmersive()
	})
}

func TestBehaviorString(t *testing.T) {
	assert.Equal(t, "default", BehaviorDefault.String())
	assert.Equal(t, "transient-by-swipe", BehaviorTransientBySwipe.String())
}
