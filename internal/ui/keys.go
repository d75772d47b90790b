package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	// Log control
	TogglePause  key.Binding
	ClearDisplay key.Binding
	ClearAll     key.Binding
	Export       key.Binding
	ChangePort   key.Binding

	// Filters
	ToggleFilterBar key.Binding
	FocusFilters    key.Binding
	NextField       key.Binding
	PrevField       key.Binding
	Apply           key.Binding
	Cancel          key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
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

		// Log control
		TogglePause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("Space", "Pause/resume"),
		),
		ClearDisplay: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear log"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear log and filters"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export to file"),
		),
		ChangePort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Change port"),
		),

		// Filters
		ToggleFilterBar: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Show/hide filters"),
		),
		FocusFilters: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit filters"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Leave input"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom and follow"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePause, k.FocusFilters, k.ToggleFilterBar, k.ClearDisplay, k.Export, k.ChangePort, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, one group per section.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePause, k.ClearDisplay, k.ClearAll, k.Export, k.ChangePort},
		{k.FocusFilters, k.ToggleFilterBar, k.NextField, k.Apply, k.Cancel},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
