package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit       key.Binding
	ToggleHelp key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Toggle     key.Binding // flips kiosk mode without the menu
	Back       key.Binding
}

func bind(desc, label string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:       bind("quit", "q", "q", "ctrl+c"),
		ToggleHelp: bind("help", "h/?", "h", "?"),
		Up:         bind("up", "↑/k", "up", "k"),
		Down:       bind("down", "↓/j", "down", "j"),
		Select:     bind("select", "enter", "enter", " "),
		Toggle:     bind("toggle kiosk", "t", "t"),
		Back:       bind("back", "esc", "esc"),
	}
}

// bindingGroups implements help.KeyMap over fixed groups; the short view
// flattens them.
type bindingGroups [][]key.Binding

func (g bindingGroups) ShortHelp() []key.Binding {
	var all []key.Binding
	for _, grp := range g {
		all = append(all, grp...)
	}
	return all
}

func (g bindingGroups) FullHelp() [][]key.Binding { return g }

func (k keyMap) helpFor(s state) help.KeyMap {
	if s == stateMenu {
		return bindingGroups{{k.Up, k.Down, k.Select}, {k.Toggle, k.ToggleHelp, k.Quit}}
	}
	return bindingGroups{{k.Back, k.Quit}}
}

func newHelp() help.Model {
	h := help.New()
	h.ShortSeparator = " · "
	return h
}
