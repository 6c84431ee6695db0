package gesture

import "fmt"

// Action is the kind of change a PointerEvent reports.
type Action int

const (
	ActionDown Action = iota
	ActionMove
	ActionUp
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionMove:
		return "move"
	case ActionUp:
		return "up"
	case ActionCancel:
		return "cancel"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Pointer is one active contact point in device pixels.
type Pointer struct {
	ID int
	X  float64
	Y  float64
}

// PointerEvent is a single frame of the raw pointer stream.
//
// Pointers is a snapshot of every active contact. For ActionUp the snapshot
// still contains the lifting pointer, so the count after the event is
// len(Pointers)-1. ID names the pointer that went down or up; it is ignored for
// moves and cancels.
type PointerEvent struct {
	Action   Action
	ID       int
	Pointers []Pointer
}

func (e PointerEvent) find(id int) (Pointer, bool) {
	for _, p := range e.Pointers {
		if p.ID == id {
			return p, true
		}
	}
	return Pointer{}, false
}

// KeyRole is the logical role of one of the two combo keys.
type KeyRole int

const (
	RoleIncrease KeyRole = iota
	RoleDecrease
)

func (r KeyRole) String() string {
	switch r {
	case RoleIncrease:
		return "increase"
	case RoleDecrease:
		return "decrease"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}
