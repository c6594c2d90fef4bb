package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the browser window
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	SwitchPane  key.Binding
	Escape      key.Binding
	HelpKey     key.Binding
	FocusQuery  key.Binding
	Back        key.Binding
	Forward     key.Binding
	BackMenu    key.Binding
	ForwardMenu key.Binding
	Find        key.Binding
	Pager       key.Binding
	NewTab      key.Binding
	CloseTab    key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	Keys        key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "ctrl+up"), key.WithHelp("↑", "previous entry")),
		Down:        key.NewBinding(key.WithKeys("down", "ctrl+down"), key.WithHelp("↓", "next entry")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open entry")),
		SwitchPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear query")),
		HelpKey:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "edit query")),
		FocusQuery:  key.NewBinding(key.WithKeys("ctrl+k", "ctrl+l"), key.WithHelp("ctrl+k", "focus query")),
		Back:        key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "back")),
		Forward:     key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "forward")),
		BackMenu:    key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "back menu")),
		ForwardMenu: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "forward menu")),
		Find:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "find in page")),
		Pager:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open in pager")),
		NewTab:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "new tab")),
		CloseTab:    key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close tab")),
		NextTab:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next tab")),
		PrevTab:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "previous tab")),
		Keys:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "key reference")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.SwitchPane, k.Escape, k.Back, k.Forward, k.NewTab, k.Keys, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.SwitchPane},
		{k.Escape, k.HelpKey, k.FocusQuery, k.Find},
		{k.Back, k.Forward, k.BackMenu, k.ForwardMenu},
		{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab},
		{k.Pager, k.Keys, k.Quit},
	}
}
