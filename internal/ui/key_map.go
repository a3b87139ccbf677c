package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	forward  key.Binding
	rewind   key.Binding
	cue      key.Binding
	louder   key.Binding
	quieter  key.Binding
	env      key.Binding
	enter    key.Binding
	enqueue  key.Binding
	remove   key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	switchTo key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5s")),
		rewind:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5s")),
		cue:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next cue")),
		louder:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		quieter:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		env:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "environment")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		enqueue:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "enqueue")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		moveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		moveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		switchTo: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "library/queue")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.switchTo, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.prev, k.forward, k.rewind, k.cue},
		{k.louder, k.quieter, k.env},
		{k.enter, k.enqueue, k.remove, k.moveUp, k.moveDown},
		{k.switchTo, k.quit},
	}
}
