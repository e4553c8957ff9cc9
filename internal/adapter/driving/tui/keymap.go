package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the browsing key bindings.
type keyMap struct {
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
	CycleView  key.Binding
	ToggleDay  key.Binding
	CycleSort  key.Binding
	ToggleRnd  key.Binding
	Filters    key.Binding
	Billable   key.Binding
	ClearFilt  key.Binding
	Project    key.Binding
	Rename     key.Binding
	Track      key.Binding
	Copy       key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	PickerUp   key.Binding
	PickerDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:       key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
		End:        key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
		CycleView:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "group")),
		ToggleDay:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "by day")),
		CycleSort:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		ToggleRnd:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rounding")),
		Filters:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		Billable:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "billable only")),
		ClearFilt:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Project:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "project")),
		Rename:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Track:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "start/stop")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Refresh:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "sync")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		PickerUp:   key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		PickerDown: key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.CycleView, k.CycleSort, k.ToggleRnd, k.Project, k.Track, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.CycleView, k.ToggleDay, k.CycleSort, k.ToggleRnd},
		{k.Filters, k.Billable, k.ClearFilt},
		{k.Project, k.Rename, k.Track, k.Copy, k.Refresh},
		{k.Help, k.Quit},
	}
}
