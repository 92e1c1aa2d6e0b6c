package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editor key bindings.
//
// Language and Public bindings only fire while their field is focused, so
// left/right and space keep their text-editing meaning everywhere else.
type KeyMap struct {
	NextField, PrevField key.Binding

	Copy, Save, New key.Binding

	NextLanguage, PrevLanguage key.Binding
	TogglePublic               key.Binding

	Quit key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),

		Copy: key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy code")),
		Save: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		New:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new snippet")),

		NextLanguage: key.NewBinding(key.WithKeys("right", "ctrl+l"), key.WithHelp("→", "next language")),
		PrevLanguage: key.NewBinding(key.WithKeys("left", "ctrl+h"), key.WithHelp("←", "prev language")),
		TogglePublic: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle public")),

		Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp and FullHelp implement help.KeyMap for the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Copy, k.Save, k.New, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField},
		{k.Copy, k.Save, k.New},
		{k.NextLanguage, k.PrevLanguage, k.TogglePublic},
		{k.Quit},
	}
}
