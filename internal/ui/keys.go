package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextStep   key.Binding
	PrevStep   key.Binding

	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Step actions
	Toggle       key.Binding
	Add          key.Binding
	Edit         key.Binding
	Delete       key.Binding
	Refresh      key.Binding
	DismissError key.Binding
	CycleFilter  key.Binding

	// Dialogs
	Submit      key.Binding
	Cancel      key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	AddEntry    key.Binding
	RemoveEntry key.Binding
	Confirm     key.Binding
	Acknowledge key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextStep: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next step"),
		),
		PrevStep: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous step"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Previous option"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Next option"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "Edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "Reload from Home Assistant"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss error"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle category"),
		),

		Submit: key.NewBinding(
			key.WithKeys("ctrl+s", "enter"),
			key.WithHelp("enter/ctrl+s", "Save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		AddEntry: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Add entry"),
		),
		RemoveEntry: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Remove last entry"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Confirm"),
		),
		Acknowledge: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Acknowledge warning"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextStep, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextStep, k.PrevStep},
		{k.Up, k.Down, k.Left, k.Right, k.Toggle},
		{k.Add, k.Edit, k.Delete, k.Refresh, k.DismissError},
		{k.Submit, k.Cancel, k.NextField, k.AddEntry, k.RemoveEntry},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

// isTyping reports whether msg would insert text into a focused input.
// Printable keys then belong to the input, not to letter shortcuts.
func isTyping(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace
}
