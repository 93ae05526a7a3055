package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	next      key.Binding
	prev      key.Binding
	switchTo  key.Binding
	favorites key.Binding
	del       key.Binding
	status    key.Binding
	refresh   key.Binding
	copy      key.Binding
	open      key.Binding
	logout    key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		switchTo:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "login/register")),
		favorites: key.NewBinding(key.WithKeys("f", "enter"), key.WithHelp("f", "favorites")),
		del:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		status:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle status")),
		refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy poster url")),
		open:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "open poster")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.del, k.status, k.refresh, k.copy, k.open},
		{k.favorites, k.logout, k.quit},
	}
}
