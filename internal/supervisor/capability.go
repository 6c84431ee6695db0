package supervisor

import (
	"github.com/stigoleg/kiosk-guard/internal/kiosk"
	"github.com/stigoleg/kiosk-guard/internal/metrics"
)

// countingCapability counts refused capability calls.
type countingCapability struct {
	next     kiosk.Capability
	recorder metrics.Recorder
}

func instrument(c kiosk.Capability, r metrics.Recorder) kiosk.Capability {
	if c == nil {
		return nil
	}
	return countingCapability{next: c, recorder: r}
}

func (c countingCapability) AcquireExclusiveMode() error {
	err := c.next.AcquireExclusiveMode()
	if err != nil {
		c.recorder.CapabilityFailure("acquire")
	}
	return err
}

func (c countingCapability) ReleaseExclusiveMode() error {
	err := c.next.ReleaseExclusiveMode()
	if err != nil {
		c.recorder.CapabilityFailure("release")
	}
	return err
}
