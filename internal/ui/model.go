package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
)

const toastDuration = 4 * time.Second

// Commander is what the console drives. *supervisor.Supervisor satisfies it.
type Commander interface {
	Enter()
	Exit()
	Toggle()
}

// StateMsg reports a kiosk state change.
type StateMsg struct {
	Locked bool
}

// ErrorMsg is a user-facing failure shown as a toast.
type ErrorMsg struct {
	Text string
}

// GestureMsg reports a detected override gesture.
type GestureMsg struct {
	Name string
}

type toastExpiredMsg struct {
	id int
}

// menu entries
const (
	itemEnter = iota
	itemExit
	itemQuit
	itemCount
)

// Model holds the console state.
type Model struct {
	State    state
	Selected int
	Locked   bool

	Toast   string
	toastID int

	LastGesture   string
	LastGestureAt time.Time

	// Notice is shown under the status, e.g. missing optional tools.
	Notice  string
	Version string

	ShowHelp bool

	commander Commander
	keys      keyMap
	help      help.Model
	now       func() time.Time
}

// InitialModel returns the console model driving c.
func InitialModel(c Commander) Model {
	return Model{
		State:     stateMenu,
		commander: c,
		keys:      defaultKeys(),
		help:      newHelp(),
		now:       time.Now,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := Update(msg, m)
	return newModel, cmd
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// itemEnabled reports whether menu entry i does anything in the current state.
func (m Model) itemEnabled(i int) bool {
	switch i {
	case itemEnter:
		return !m.Locked
	case itemExit:
		return m.Locked
	default:
		return true
	}
}
