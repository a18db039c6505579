package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser's keyboard shortcuts.
type KeyMap struct {
	PrevPage key.Binding
	NextPage key.Binding

	SortDate        key.Binding
	SortAmount      key.Binding
	SortDescription key.Binding
	SortBalance     key.Binding

	CycleType key.Binding
	Reset     key.Binding
	Refresh   key.Binding

	ExportPDF   key.Binding
	ExportExcel key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		SortDate: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "sort date"),
		),
		SortAmount: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "sort amount"),
		),
		SortDescription: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "sort description"),
		),
		SortBalance: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "sort balance"),
		),
		CycleType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "type filter"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		ExportPDF: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "export pdf"),
		),
		ExportExcel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export excel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevPage, k.NextPage, k.CycleType, k.Reset, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevPage, k.NextPage},
		{k.SortDate, k.SortAmount, k.SortDescription, k.SortBalance},
		{k.CycleType, k.Reset, k.Refresh},
		{k.ExportPDF, k.ExportExcel, k.Quit},
	}
}
