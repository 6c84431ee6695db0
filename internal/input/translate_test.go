package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/kiosk-guard/internal/gesture"
)

func abs(code uint16, v int32) RawEvent { return RawEvent{Type: EvAbs, Code: code, Value: v} }
func syn() RawEvent                     { return RawEvent{Type: EvSyn, Code: SynReport} }
func key(code uint16, v int32) RawEvent { return RawEvent{Type: EvKey, Code: code, Value: v} }

func feedAll(t *Translator, evs ...RawEvent) []Event {
	var out []Event
	for _, ev := range evs {
		out = append(out, t.Feed(ev)...)
	}
	return out
}

func actions(evs []Event) []gesture.Action {
	var out []gesture.Action
	for _, ev := range evs {
		out = append(out, ev.Pointer.Action)
	}
	return out
}

func TestTwoFingerFrameSequence(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())

	// Both fingers land in one frame.
	out := feedAll(tr,
		abs(AbsMTSlot, 0), abs(AbsMTTrackingID, 40), abs(AbsMTPositionX, 100), abs(AbsMTPositionY, 200),
		abs(AbsMTSlot, 1), abs(AbsMTTrackingID, 41), abs(AbsMTPositionX, 300), abs(AbsMTPositionY, 200),
		syn(),
	)
	require.Equal(t, []gesture.Action{gesture.ActionDown, gesture.ActionDown}, actions(out))
	assert.Equal(t, 40, out[0].Pointer.ID)
	assert.Len(t, out[0].Pointer.Pointers, 1)
	assert.Equal(t, 41, out[1].Pointer.ID)
	assert.Equal(t, []gesture.Pointer{{ID: 40, X: 100, Y: 200}, {ID: 41, X: 300, Y: 200}}, out[1].Pointer.Pointers)

	// Slot 1 is still selected; move it.
	out = feedAll(tr, abs(AbsMTPositionX, 305), syn())
	require.Equal(t, []gesture.Action{gesture.ActionMove}, actions(out))
	assert.Equal(t, 305.0, out[0].Pointer.Pointers[1].X)

	// Lift slot 1, then slot 0.
	out = feedAll(tr, abs(AbsMTTrackingID, -1), syn())
	require.Equal(t, []gesture.Action{gesture.ActionUp}, actions(out))
	assert.Equal(t, 41, out[0].Pointer.ID)
	assert.Len(t, out[0].Pointer.Pointers, 2, "up snapshot includes the lifting pointer")

	out = feedAll(tr, abs(AbsMTSlot, 0), abs(AbsMTTrackingID, -1), syn())
	require.Equal(t, []gesture.Action{gesture.ActionUp}, actions(out))
	assert.Len(t, out[0].Pointer.Pointers, 1)

	assert.Empty(t, feedAll(tr, syn()))
}

func TestTranslatedStreamDrivesTapDetector(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	now := int64(10_000)
	d := gesture.NewTwoFingerDoubleTap(gesture.DefaultTapConfig(), gesture.ClockFunc(func() int64 { return now }))

	tap := func() bool {
		detected := false
		frames := [][]RawEvent{
			{abs(AbsMTSlot, 0), abs(AbsMTTrackingID, 1), abs(AbsMTPositionX, 10), abs(AbsMTPositionY, 10), syn()},
			{abs(AbsMTSlot, 1), abs(AbsMTTrackingID, 2), abs(AbsMTPositionX, 90), abs(AbsMTPositionY, 10), syn()},
			{abs(AbsMTPositionY, 14), syn()},
			{abs(AbsMTTrackingID, -1), abs(AbsMTSlot, 0), abs(AbsMTTrackingID, -1), syn()},
		}
		for _, f := range frames {
			now += 20
			for _, ev := range feedAll(tr, f...) {
				if ev.Kind == KindPointer && d.ProcessEvent(ev.Pointer) {
					detected = true
				}
			}
		}
		return detected
	}

	assert.False(t, tap())
	now += 100
	assert.True(t, tap())
}

func TestSecondTapAtUnchangedAxis(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	now := int64(10_000)
	d := gesture.NewTwoFingerDoubleTap(gesture.DefaultTapConfig(), gesture.ClockFunc(func() int64 { return now }))

	run := func(frames ...[]RawEvent) (detected bool, last []Event) {
		for _, f := range frames {
			now += 20
			last = feedAll(tr, f...)
			for _, ev := range last {
				if ev.Kind == KindPointer && d.ProcessEvent(ev.Pointer) {
					detected = true
				}
			}
		}
		return detected, last
	}
	lift := []RawEvent{abs(AbsMTSlot, 0), abs(AbsMTTrackingID, -1), abs(AbsMTSlot, 1), abs(AbsMTTrackingID, -1), syn()}

	hit, _ := run(
		[]RawEvent{abs(AbsMTSlot, 0), abs(AbsMTTrackingID, 1), abs(AbsMTPositionX, 1000), abs(AbsMTPositionY, 800), syn()},
		[]RawEvent{abs(AbsMTSlot, 1), abs(AbsMTTrackingID, 2), abs(AbsMTPositionX, 1400), abs(AbsMTPositionY, 800), syn()},
		lift,
	)
	require.False(t, hit)

	// The kernel leaves out ABS_MT_POSITION_X because it did not change.
	_, downs := run(
		[]RawEvent{abs(AbsMTSlot, 0), abs(AbsMTTrackingID, 3), abs(AbsMTPositionY, 802),
			abs(AbsMTSlot, 1), abs(AbsMTTrackingID, 4), abs(AbsMTPositionY, 802), syn()},
	)
	require.Len(t, downs, 2)
	assert.Equal(t, []gesture.Pointer{{ID: 3, X: 1000, Y: 802}, {ID: 4, X: 1400, Y: 802}}, downs[1].Pointer.Pointers)

	hit, _ = run(
		[]RawEvent{abs(AbsMTPositionX, 1403), syn()},
		lift,
	)
	assert.True(t, hit)
}

func TestLandAndLiftInSameFrameIsInvisible(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	out := feedAll(tr, abs(AbsMTTrackingID, 5), abs(AbsMTTrackingID, -1), syn())
	assert.Empty(t, out)
}

func TestSlotReuseWithoutLift(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	feedAll(tr, abs(AbsMTTrackingID, 5), abs(AbsMTPositionX, 1), syn())

	out := feedAll(tr, abs(AbsMTTrackingID, 6), syn())
	require.Equal(t, []gesture.Action{gesture.ActionUp, gesture.ActionDown}, actions(out))
	assert.Equal(t, 5, out[0].Pointer.ID)
	assert.Equal(t, 6, out[1].Pointer.ID)
	assert.Len(t, out[1].Pointer.Pointers, 1)
}

func TestDroppedEventsCancel(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	feedAll(tr, abs(AbsMTTrackingID, 5), syn())

	out := feedAll(tr,
		RawEvent{Type: EvSyn, Code: SynDropped},
		abs(AbsMTPositionX, 999),
		key(KeyVolumeUp, 1),
		syn(),
	)
	require.Len(t, out, 1)
	assert.Equal(t, gesture.ActionCancel, out[0].Pointer.Action)

	// The finger that was down is forgotten; its lift is ignored.
	assert.Empty(t, feedAll(tr, abs(AbsMTTrackingID, -1), syn()))
	assert.Empty(t, feedAll(tr, RawEvent{Type: EvSyn, Code: SynDropped}, syn()), "nothing to cancel")
}

func TestSlotUnknownAfterDrop(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	feedAll(tr, abs(AbsMTSlot, 1), abs(AbsMTTrackingID, 5), abs(AbsMTPositionX, 50), syn())
	feedAll(tr, RawEvent{Type: EvSyn, Code: SynDropped}, syn())
	assert.True(t, tr.AwaitingState())

	// Without ABS_MT_SLOT the events cannot be placed.
	assert.Empty(t, feedAll(tr, abs(AbsMTTrackingID, 7), abs(AbsMTPositionX, 10), syn()))

	out := feedAll(tr, abs(AbsMTSlot, 0), abs(AbsMTTrackingID, 8), abs(AbsMTPositionY, 20), syn())
	require.Equal(t, []gesture.Action{gesture.ActionDown}, actions(out))
	assert.False(t, tr.AwaitingState())
	assert.Equal(t, []gesture.Pointer{{ID: 8, X: 0, Y: 20}}, out[0].Pointer.Pointers)
}

func TestRestoreAfterDrop(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())
	feedAll(tr, abs(AbsMTTrackingID, 5), abs(AbsMTPositionX, 50), syn())
	feedAll(tr, RawEvent{Type: EvSyn, Code: SynDropped}, syn())

	tr.Restore(1, []SlotState{
		{TrackingID: 5, X: 60, Y: 70},
		{TrackingID: -1, X: 300, Y: 400},
	})
	assert.False(t, tr.AwaitingState())

	// Slot 1 is current and lands at its remembered position.
	out := feedAll(tr, abs(AbsMTTrackingID, 9), syn())
	require.Equal(t, []gesture.Action{gesture.ActionDown}, actions(out))
	assert.Equal(t, []gesture.Pointer{{ID: 9, X: 300, Y: 400}}, out[0].Pointer.Pointers,
		"the restored contact in slot 0 is tracked but not reported")

	// Its lift is silent too.
	assert.Empty(t, feedAll(tr, abs(AbsMTSlot, 0), abs(AbsMTTrackingID, -1), syn()))
}

func TestKeyTranslation(t *testing.T) {
	tr := NewTranslator(DefaultKeyMap())

	tests := []struct {
		name string
		ev   RawEvent
		want []Event
	}{
		{"volume up press", key(KeyVolumeUp, 1), []Event{{Kind: KindKey, Key: KeyEvent{Role: gesture.RoleIncrease, Pressed: true}}}},
		{"volume down release", key(KeyVolumeDown, 0), []Event{{Kind: KindKey, Key: KeyEvent{Role: gesture.RoleDecrease}}}},
		{"auto repeat", key(KeyVolumeUp, 2), nil},
		{"other key", key(30, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Feed(tt.ev))
		})
	}
}

func TestCustomKeyMap(t *testing.T) {
	tr := NewTranslator(KeyMap{Increase: 103, Decrease: 108})
	out := tr.Feed(key(108, 1))
	require.Len(t, out, 1)
	assert.Equal(t, gesture.RoleDecrease, out[0].Key.Role)
	assert.Nil(t, tr.Feed(key(KeyVolumeUp, 1)))
}
