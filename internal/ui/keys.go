package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the list and overlay bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Open     key.Binding
	Close    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Search   key.Binding
	Goto     key.Binding
	Platform key.Binding
	View     key.Binding
	Home     key.Binding
	Clear    key.Binding
	Retry    key.Binding
	Back     key.Binding
	Debug    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Next:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next")),
		Prev:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Goto:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "go to path")),
		Platform: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "platform")),
		View:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "next view")),
		Home:     key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "all items")),
		Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Back:     key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
		Debug:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Search, k.Platform, k.View, k.Retry, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Open, k.Close, k.Prev, k.Next},
		{k.Search, k.Platform, k.Clear, k.View, k.Home},
		{k.Goto, k.Retry, k.Back, k.Debug, k.Help, k.Quit},
	}
}
