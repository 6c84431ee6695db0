// Package ui provides the operator console for kiosk-guard.
package ui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	muted  lipgloss.AdaptiveColor
	accent lipgloss.AdaptiveColor
	locked lipgloss.AdaptiveColor
	alert  lipgloss.AdaptiveColor
}

var kioskPalette = palette{
	muted:  lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#9E9E9E"},
	accent: lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"},
	locked: lipgloss.AdaptiveColor{Light: "#2DA44E", Dark: "#56D364"},
	alert:  lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF7B72"},
}

// Style holds the console styles.
type Style struct {
	Title          lipgloss.Style
	ActiveStatus   lipgloss.Style
	InactiveStatus lipgloss.Style
	DisabledItem   lipgloss.Style
	SelectedItem   lipgloss.Style
	Menu           lipgloss.Style
	Toast          lipgloss.Style
	Help           lipgloss.Style
	Error          lipgloss.Style
	Detail         lipgloss.Style
}

func newStyle(p palette) Style {
	pad := lipgloss.NewStyle().Padding(0, 1)
	text := func(c lipgloss.AdaptiveColor) lipgloss.Style { return pad.Foreground(c) }

	return Style{
		Title:          text(p.accent).Bold(true).Underline(true),
		ActiveStatus:   text(p.locked).Bold(true),
		InactiveStatus: text(p.muted),
		DisabledItem:   text(p.muted).Strikethrough(true),
		SelectedItem:   text(p.accent).Bold(true),
		Menu:           pad,
		Toast: text(p.alert).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.alert),
		Help:   text(p.muted),
		Error:  text(p.alert),
		Detail: text(p.muted).Italic(true),
	}
}

// Current is the style set used by every view.
var Current = newStyle(kioskPalette)
