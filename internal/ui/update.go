package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.Locked = msg.Locked
		if m.Locked && m.Selected == itemEnter {
			m.Selected = itemExit
		} else if !m.Locked && m.Selected == itemExit {
			m.Selected = itemEnter
		}
		return m, nil

	case ErrorMsg:
		return m.showToast(msg.Text)

	case GestureMsg:
		m.LastGesture = msg.Name
		m.LastGestureAt = m.now()
		return m, nil

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.Toast = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.State == stateHelp {
			if key.Matches(msg, m.keys.Back, m.keys.ToggleHelp) {
				m.State = stateMenu
				m.ShowHelp = false
			}
			return m, nil
		}
		return updateMenu(msg, m)
	}

	return m, nil
}

func updateMenu(msg tea.KeyMsg, m Model) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.Selected > 0 {
			m.Selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Selected < itemCount-1 {
			m.Selected++
		}
	case key.Matches(msg, m.keys.ToggleHelp):
		m.State = stateHelp
		m.ShowHelp = true
	case key.Matches(msg, m.keys.Toggle):
		if m.commander != nil {
			m.commander.Toggle()
		}
	case key.Matches(msg, m.keys.Select):
		return selectItem(m)
	}
	return m, nil
}

func selectItem(m Model) (Model, tea.Cmd) {
	if !m.itemEnabled(m.Selected) {
		if m.Locked {
			return m.showToast("Kiosk mode is already on")
		}
		return m.showToast("Kiosk mode is already off")
	}

	switch m.Selected {
	case itemEnter:
		if m.commander != nil {
			m.commander.Enter()
		}
	case itemExit:
		if m.commander != nil {
			m.commander.Exit()
		}
	case itemQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) showToast(text string) (Model, tea.Cmd) {
	m.toastID++
	m.Toast = text
	return m, toastExpiry(m.toastID)
}

func toastExpiry(id int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
