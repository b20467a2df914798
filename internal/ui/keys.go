package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the bindings shared by the shell and its screens.
type keyMap struct {
	Quit     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Pause    key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Record   key.Binding
	Style    key.Binding
	Sleep    key.Binding
	Favorite key.Binding
	Add      key.Binding
	Import   key.Binding
	Remove   key.Binding
	SeekBack key.Binding
	SeekFwd  key.Binding
	NextRec  key.Binding
	PrevRec  key.Binding
	Shuffle  key.Binding
	Rescan   key.Binding
	Select   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		VolUp:    key.NewBinding(key.WithKeys("up", "k", "+", "="), key.WithHelp("↑/+", "vol up")),
		VolDown:  key.NewBinding(key.WithKeys("down", "j", "-"), key.WithHelp("↓/-", "vol down")),
		Record:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record")),
		Style:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "viz")),
		Sleep:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "sleep")),
		Favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Import:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		SeekBack: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "seek 5s")),
		SeekFwd:  key.NewBinding(key.WithKeys("right", "l")),
		NextRec:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n/p", "track")),
		PrevRec:  key.NewBinding(key.WithKeys("p")),
		Shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Rescan:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rescan")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
	}
}

// helpFor builds the footer help line for a tab from the bindings that apply
// there.
func helpFor(keys keyMap, tab Tab, canRecord bool) string {
	var bindings []key.Binding
	switch tab {
	case TabStations:
		bindings = []key.Binding{keys.Select, keys.Favorite, keys.Add, keys.Import, keys.Remove}
	case TabNowPlaying:
		bindings = []key.Binding{keys.Pause, keys.VolUp, keys.Style, keys.Sleep}
		if canRecord {
			bindings = append(bindings, keys.Record)
		}
	case TabLibrary:
		bindings = []key.Binding{keys.Select, keys.Pause, keys.SeekBack, keys.NextRec, keys.Shuffle, keys.Rescan}
	case TabTV:
		bindings = []key.Binding{keys.Pause, keys.VolUp}
	case TabSettings:
		bindings = []key.Binding{keys.Select}
	}
	bindings = append(bindings, keys.NextTab, keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
