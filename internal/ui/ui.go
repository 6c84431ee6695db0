package ui

import tea "github.com/charmbracelet/bubbletea"

// ProgramNotifier forwards kiosk notifications into a running console.
// Send is normally (*tea.Program).Send.
type ProgramNotifier struct {
	Send func(tea.Msg)
}

func (n ProgramNotifier) KioskStateChanged(locked bool) {
	n.Send(StateMsg{Locked: locked})
}

func (n ProgramNotifier) KioskError(msg string) {
	n.Send(ErrorMsg{Text: msg})
}

func (n ProgramNotifier) GestureDetected(gesture string) {
	n.Send(GestureMsg{Name: gesture})
}
