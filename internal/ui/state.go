package ui

// state is the screen the console shows.
type state int

const (
	stateMenu state = iota
	stateHelp
)

func (s state) String() string {
	switch s {
	case stateMenu:
		return "Menu"
	case stateHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
