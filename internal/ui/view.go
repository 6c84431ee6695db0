package ui

import (
	"fmt"
	"strings"
)

var menuItems = [itemCount]string{
	itemEnter: "Enter kiosk mode",
	itemExit:  "Exit kiosk mode",
	itemQuit:  "Quit kiosk-guard",
}

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.ShowHelp || m.State == stateHelp {
		return helpView(m)
	}
	return menuView(m)
}

func menuView(m Model) string {
	var b strings.Builder

	title := "Kiosk Guard"
	if m.Version != "" {
		title += " " + m.Version
	}
	b.WriteString(Current.Title.Render(title))
	b.WriteString("\n\n")

	if m.Locked {
		b.WriteString(Current.ActiveStatus.Render("● Kiosk mode is ON"))
	} else {
		b.WriteString(Current.InactiveStatus.Render("○ Kiosk mode is off"))
	}
	b.WriteString("\n")

	if m.LastGesture != "" {
		line := fmt.Sprintf("Last override: %s at %s", gestureLabel(m.LastGesture), m.LastGestureAt.Format("15:04:05"))
		b.WriteString(Current.Detail.Render(line))
		b.WriteString("\n")
	}
	if m.Notice != "" {
		b.WriteString(Current.Detail.Render(m.Notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, opt := range menuItems {
		switch {
		case i == m.Selected:
			b.WriteString(Current.SelectedItem.Render("> " + opt))
		case !m.itemEnabled(i):
			b.WriteString(Current.DisabledItem.Render("  " + opt))
		default:
			b.WriteString(Current.Menu.Render("  " + opt))
		}
		b.WriteString("\n")
	}

	if m.Toast != "" {
		b.WriteString("\n" + Current.Toast.Render(m.Toast) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys.helpFor(stateMenu)))
	return b.String()
}

func gestureLabel(name string) string {
	switch name {
	case "two_finger_double_tap":
		return "two-finger double tap"
	case "key_combo":
		return "volume up + volume down"
	default:
		return name
	}
}

func helpView(m Model) string {
	text := `Kiosk Guard Help

Kiosk mode pins this session to the kiosk application: logout,
user switching, suspend and the screen saver are blocked and the
kiosk window is kept fullscreen.

Hidden overrides (toggle kiosk mode):
  • Two-finger double tap anywhere on the touch screen
  • Volume Up and Volume Down pressed together

Console:
  ↑/k, ↓/j  : Navigate menu
  Enter      : Select option
  t          : Toggle kiosk mode
  h/?        : Show this help
  q          : Quit (kiosk mode is released)

Press 'esc' or 'h' to close help`

	return Current.Help.Render(text) + "\n\n" + m.help.View(m.keys.helpFor(stateHelp))
}
