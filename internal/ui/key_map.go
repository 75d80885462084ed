package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	apps    key.Binding
	nextTab key.Binding
	prevTab key.Binding
	next    key.Binding
	prev    key.Binding
	search  key.Binding
	enter   key.Binding
	back    key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		apps:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "app")),
		nextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.apps, k.nextTab, k.next, k.prev, k.search, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.apps, k.nextTab, k.prevTab},
		{k.next, k.prev, k.search, k.enter},
		{k.back, k.refresh, k.quit},
	}
}
