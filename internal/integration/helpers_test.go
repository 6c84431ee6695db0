package integration

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/stigoleg/kiosk-guard/internal/input"
)

// fakeLock is an exclusive mode capability that records its calls, and
// optionally appends them to a file so a parent process can follow along.
type fakeLock struct {
	mu    sync.Mutex
	calls []string
	path  string
	fail  error
}

func (f *fakeLock) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.path != "" {
		file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			file.WriteString(call + "\n")
			file.Close()
		}
	}
	return f.fail
}

func (f *fakeLock) AcquireExclusiveMode() error { return f.record("acquire") }
func (f *fakeLock) ReleaseExclusiveMode() error { return f.record("release") }

func (f *fakeLock) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func readCalls(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Fields(string(data))
}

// frame is one batch of raw events ending in SYN_REPORT, delivered after
// wait.
type frame struct {
	wait   time.Duration
	events []input.RawEvent
}

func abs(code uint16, v int32) input.RawEvent {
	return input.RawEvent{Type: input.EvAbs, Code: code, Value: v}
}

func syn() input.RawEvent {
	return input.RawEvent{Type: input.EvSyn, Code: input.SynReport}
}

func keyEvent(code uint16, v int32) input.RawEvent {
	return input.RawEvent{Type: input.EvKey, Code: code, Value: v}
}

// twoFingerTap scripts a protocol B two-finger tap lasting hold, with a
// few pixels of drift on the second finger.
func twoFingerTap(trackingID int32, hold time.Duration) []frame {
	return []frame{
		{events: []input.RawEvent{
			abs(input.AbsMTSlot, 0), abs(input.AbsMTTrackingID, trackingID),
			abs(input.AbsMTPositionX, 400), abs(input.AbsMTPositionY, 600), syn(),
		}},
		{wait: 10 * time.Millisecond, events: []input.RawEvent{
			abs(input.AbsMTSlot, 1), abs(input.AbsMTTrackingID, trackingID+1),
			abs(input.AbsMTPositionX, 520), abs(input.AbsMTPositionY, 610), syn(),
		}},
		{wait: hold / 2, events: []input.RawEvent{
			abs(input.AbsMTPositionX, 524), syn(),
		}},
		{wait: hold / 2, events: []input.RawEvent{
			abs(input.AbsMTTrackingID, -1), syn(),
		}},
		{wait: 5 * time.Millisecond, events: []input.RawEvent{
			abs(input.AbsMTSlot, 0), abs(input.AbsMTTrackingID, -1), syn(),
		}},
	}
}

// play translates frames in real time into out.
func play(tr *input.Translator, out chan<- input.Event, frames []frame) {
	for _, f := range frames {
		time.Sleep(f.wait)
		for _, raw := range f.events {
			for _, ev := range tr.Feed(raw) {
				out <- ev
			}
		}
	}
}
