// Package input turns raw Linux input events into the pointer and key events
// the gesture detectors consume.
package input

import (
	"log"
	"sort"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
)

// Linux input event types and codes used by the translator.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvAbs = 0x03

	SynReport  = 0
	SynDropped = 3

	AbsMTSlot       = 0x2f
	AbsMTPositionX  = 0x35
	AbsMTPositionY  = 0x36
	AbsMTTrackingID = 0x39

	KeyVolumeDown = 114
	KeyVolumeUp   = 115
)

// Key values reported with EV_KEY.
const (
	keyReleased = 0
	keyPressed  = 1
	keyRepeat   = 2
)

// RawEvent is one struct input_event without its timestamp.
type RawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// KeyMap names the key codes that play the increase and decrease roles.
type KeyMap struct {
	Increase uint16
	Decrease uint16
}

// DefaultKeyMap uses the hardware volume keys.
func DefaultKeyMap() KeyMap {
	return KeyMap{Increase: KeyVolumeUp, Decrease: KeyVolumeDown}
}

// Kind tells which half of an Event is set.
type Kind int

const (
	KindPointer Kind = iota
	KindKey
)

// KeyEvent is a press or release of one of the combo keys.
type KeyEvent struct {
	Role    gesture.KeyRole
	Pressed bool
}

// Event is a translated input event.
type Event struct {
	Kind    Kind
	Pointer gesture.PointerEvent
	Key     KeyEvent
}

// SlotState is the kernel's view of one multitouch slot, as reported by
// EVIOCGMTSLOTS. TrackingID is -1 for an empty slot.
type SlotState struct {
	TrackingID int32
	X, Y       int32
}

type position struct {
	x, y float64
}

type contact struct {
	id      int
	x, y    float64
	active  bool // a down has been emitted
	landing bool // down pending for this frame
	lifting bool // up pending for this frame
	moved   bool
}

// Translator converts a multitouch protocol B stream into gesture events. It
// keeps per-slot state and is not safe for concurrent use.
type Translator struct {
	keys     KeyMap
	slot     int
	contacts map[int]*contact
	replaced []gesture.Pointer
	dropped  bool

	// last holds each slot's most recent position. The kernel keeps it
	// across tracking ids and omits axis values that did not change.
	last map[int]position

	// slotLost is set after a resync until the current slot is known again.
	slotLost bool
}

// NewTranslator creates a translator for the given key codes.
func NewTranslator(keys KeyMap) *Translator {
	return &Translator{keys: keys, contacts: make(map[int]*contact), last: make(map[int]position)}
}

// Feed consumes one raw event and returns the events it completes. Pointer
// events are only produced on SYN_REPORT; key events are produced at once.
func (t *Translator) Feed(ev RawEvent) []Event {
	if t.dropped && !(ev.Type == EvSyn && ev.Code == SynReport) {
		return nil
	}

	switch ev.Type {
	case EvKey:
		return t.key(ev)
	case EvAbs:
		t.abs(ev)
	case EvSyn:
		switch ev.Code {
		case SynReport:
			if t.dropped {
				return t.resync()
			}
			return t.flush()
		case SynDropped:
			log.Printf("input: events dropped, resynchronising")
			t.dropped = true
		}
	}
	return nil
}

func (t *Translator) key(ev RawEvent) []Event {
	var role gesture.KeyRole
	switch ev.Code {
	case t.keys.Increase:
		role = gesture.RoleIncrease
	case t.keys.Decrease:
		role = gesture.RoleDecrease
	default:
		return nil
	}

	switch ev.Value {
	case keyPressed, keyReleased:
		return []Event{{Kind: KindKey, Key: KeyEvent{Role: role, Pressed: ev.Value == keyPressed}}}
	case keyRepeat:
		return nil
	default:
		return nil
	}
}

func (t *Translator) abs(ev RawEvent) {
	if ev.Code == AbsMTSlot {
		t.slot = int(ev.Value)
		t.slotLost = false
		return
	}
	if t.slotLost {
		return
	}

	c := t.contacts[t.slot]
	switch ev.Code {
	case AbsMTTrackingID:
		if ev.Value < 0 {
			if c == nil {
				return
			}
			if c.active {
				c.lifting = true
			} else {
				delete(t.contacts, t.slot)
			}
			return
		}
		if c == nil {
			c = &contact{}
			t.contacts[t.slot] = c
		} else if c.active {
			// The slot was reused without a lift in between.
			t.replaced = append(t.replaced, gesture.Pointer{ID: c.id, X: c.x, Y: c.y})
		}
		at := t.last[t.slot]
		*c = contact{id: int(ev.Value), x: at.x, y: at.y, landing: true}

	case AbsMTPositionX, AbsMTPositionY:
		at := t.last[t.slot]
		if ev.Code == AbsMTPositionX {
			at.x = float64(ev.Value)
		} else {
			at.y = float64(ev.Value)
		}
		t.last[t.slot] = at
		if c == nil {
			return
		}
		c.x, c.y = at.x, at.y
		if c.active {
			c.moved = true
		}
	}
}

// flush emits the frame's changes in order: replaced contacts, downs, one
// move snapshot, then ups.
func (t *Translator) flush() []Event {
	var out []Event
	slots := t.slots()

	for _, p := range t.replaced {
		out = append(out, pointerEvent(gesture.ActionUp, p.ID, append(t.snapshot(slots), p)))
	}
	t.replaced = nil

	for _, s := range slots {
		c := t.contacts[s]
		if !c.landing {
			continue
		}
		c.landing = false
		c.active = true
		out = append(out, pointerEvent(gesture.ActionDown, c.id, t.snapshot(slots)))
	}

	moved := false
	for _, s := range slots {
		c := t.contacts[s]
		if c.moved {
			moved = true
			c.moved = false
		}
	}
	if moved {
		out = append(out, pointerEvent(gesture.ActionMove, 0, t.snapshot(slots)))
	}

	for _, s := range slots {
		c := t.contacts[s]
		if !c.lifting {
			continue
		}
		out = append(out, pointerEvent(gesture.ActionUp, c.id, t.snapshot(slots)))
		delete(t.contacts, s)
	}
	return out
}

// resync drops all contacts after a SYN_DROPPED and cancels any gesture in
// progress. Slot positions are kept; the current slot is unknown until an
// ABS_MT_SLOT arrives or Restore is called.
func (t *Translator) resync() []Event {
	t.dropped = false
	t.replaced = nil
	t.slotLost = true

	hadActive := false
	for _, c := range t.contacts {
		if c.active {
			hadActive = true
		}
	}
	t.contacts = make(map[int]*contact)

	if !hadActive {
		return nil
	}
	return []Event{pointerEvent(gesture.ActionCancel, 0, nil)}
}

// AwaitingState reports whether the translator has resynchronised and would
// benefit from a Restore with the device's slot state.
func (t *Translator) AwaitingState() bool {
	return t.slotLost && !t.dropped
}

// Restore loads the device's current slot and per-slot state after a
// resync. Contacts already down are tracked silently: no down is emitted for
// them and their lift is dropped.
func (t *Translator) Restore(current int, slots []SlotState) {
	t.slot = current
	t.slotLost = false
	for i, st := range slots {
		t.last[i] = position{x: float64(st.X), y: float64(st.Y)}
		if st.TrackingID >= 0 {
			t.contacts[i] = &contact{id: int(st.TrackingID), x: float64(st.X), y: float64(st.Y)}
		}
	}
}

func (t *Translator) slots() []int {
	slots := make([]int, 0, len(t.contacts))
	for s := range t.contacts {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

// snapshot lists active contacts in slot order. Contacts deleted while
// flushing are skipped.
func (t *Translator) snapshot(slots []int) []gesture.Pointer {
	ptrs := make([]gesture.Pointer, 0, len(slots))
	for _, s := range slots {
		c, ok := t.contacts[s]
		if !ok || !c.active {
			continue
		}
		ptrs = append(ptrs, gesture.Pointer{ID: c.id, X: c.x, Y: c.y})
	}
	return ptrs
}

func pointerEvent(action gesture.Action, id int, ptrs []gesture.Pointer) Event {
	return Event{Kind: KindPointer, Pointer: gesture.PointerEvent{Action: action, ID: id, Pointers: ptrs}}
}
