package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the application-level bindings. Component-local keys
// (list navigation, text input) live with their components.
type KeyMap struct {
	Quit       key.Binding
	Settings   key.Binding
	Refresh    key.Binding
	Scan       key.Binding
	ScanFile   key.Binding
	Resolve    key.Binding
	Open       key.Binding
	Filter     key.Binding
	Dismiss    key.Binding
	CancelJob  key.Binding
	SearchJump key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Settings: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "settings"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan library"),
		),
		ScanFile: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "scan file"),
		),
		Resolve: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "mark resolved"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "trim"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		CancelJob: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel job"),
		),
		SearchJump: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "jump to match"),
		),
	}
}
