package ui

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/history"
	"github.com/olivier-w/clira/internal/station"
)

const statusTTL = 5 * time.Second

type stationItem struct {
	st       station.Station
	favorite bool
	user     bool
	lastPlay time.Time
}

func (i stationItem) Title() string {
	title := i.st.Name
	if i.favorite {
		title = "★ " + title
	}
	if i.st.Video {
		title += " [tv]"
	}
	return title
}

func (i stationItem) Description() string {
	desc := i.st.Genre
	if desc == "" {
		desc = hostOf(i.st.URL)
	}
	if !i.lastPlay.IsZero() {
		desc += "  ·  played " + i.lastPlay.Format("Jan 2 15:04")
	}
	return desc
}

func (i stationItem) FilterValue() string { return i.st.Name + " " + i.st.Genre }

type inputMode int

const (
	inputNone inputMode = iota
	inputAddURL
	inputImportPath
)

// stationsModel is the station directory screen. Selecting an entry emits a
// tuneRequestMsg; edits to the directory emit persistStationsMsg so the app
// can write them through to the config file.
type stationsModel struct {
	keys      keyMap
	directory *station.Directory
	list      list.Model
	input     textinput.Model
	mode      inputMode
	resolving bool
	spin      spinner.Model
	status    string
	statusAt  time.Time
	lastPlays map[string]time.Time
}

func newStationsModel(keys keyMap, dir *station.Directory) stationsModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(nil, delegate, 80, 20)
	l.Title = "stations"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.CharLimit = 2048
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	m := stationsModel{
		keys:      keys,
		directory: dir,
		list:      l,
		input:     ti,
		spin:      s,
		lastPlays: make(map[string]time.Time),
	}
	m.rebuildItems()
	return m
}

func (m *stationsModel) setSize(w, h int) {
	m.list.SetWidth(w)
	if h > 2 {
		m.list.SetHeight(h - 2)
	}
}

// rebuildItems regenerates the list: favorites first, then by most recent
// play, preserving directory order for the rest.
func (m *stationsModel) rebuildItems() {
	all := m.directory.All()
	entries := make([]stationItem, 0, len(all))
	for _, st := range all {
		entries = append(entries, stationItem{
			st:       st,
			favorite: m.directory.IsFavorite(st.ID),
			user:     m.directory.IsUser(st.ID),
			lastPlay: m.lastPlays[st.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.favorite != b.favorite {
			return a.favorite
		}
		return a.lastPlay.After(b.lastPlay)
	})
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	m.list.SetItems(items)
}

func (m *stationsModel) setLastPlays(plays []history.Play) {
	m.lastPlays = make(map[string]time.Time, len(plays))
	for _, p := range plays {
		m.lastPlays[p.StationID] = p.Started()
	}
	m.rebuildItems()
}

// selectStation moves the cursor to the station with the given ID.
func (m *stationsModel) selectStation(id string) {
	if id == "" {
		return
	}
	for i, item := range m.list.Items() {
		if si, ok := item.(stationItem); ok && si.st.ID == id {
			m.list.Select(i)
			return
		}
	}
}

func (m *stationsModel) setStatus(s string) {
	m.status = s
	m.statusAt = time.Now()
}

// wantsKeys reports whether the screen is in a text-entry state that must
// see every key, including ones bound globally.
func (m stationsModel) wantsKeys() bool {
	return m.mode != inputNone || m.list.FilterState() == list.Filtering
}

func (m stationsModel) update(msg tea.Msg) (stationsModel, tea.Cmd) {
	if m.mode != inputNone {
		return m.updateInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(stationItem)
			if !ok {
				return m, nil
			}
			st := item.st
			return m, func() tea.Msg { return tuneRequestMsg{st: st} }

		case key.Matches(msg, m.keys.Favorite):
			item, ok := m.list.SelectedItem().(stationItem)
			if !ok {
				return m, nil
			}
			if m.directory.ToggleFavorite(item.st.ID) {
				m.setStatus("Added " + item.st.Name + " to favorites")
			} else {
				m.setStatus("Removed " + item.st.Name + " from favorites")
			}
			m.rebuildItems()
			return m, persistStations()

		case key.Matches(msg, m.keys.Add):
			m.mode = inputAddURL
			m.input.Placeholder = "https://..."
			m.input.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Import):
			m.mode = inputImportPath
			m.input.Placeholder = "/path/to/stations.m3u"
			m.input.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Remove):
			item, ok := m.list.SelectedItem().(stationItem)
			if !ok {
				return m, nil
			}
			if !item.user {
				m.setStatus("Built-in stations cannot be removed")
				return m, nil
			}
			m.directory.Remove(item.st.ID)
			m.rebuildItems()
			m.setStatus("Removed " + item.st.Name)
			return m, persistStations()
		}

	case tickMsg:
		if m.status != "" && time.Since(m.statusAt) > statusTTL {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.resolving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case stationResolvedMsg:
		m.resolving = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Cannot add station: %v", msg.err))
			return m, nil
		}
		name := msg.res.Name
		if name == "" {
			name = hostOf(msg.url)
		}
		added := m.directory.Add(station.Station{Name: name, Genre: msg.res.Genre, URL: msg.url})
		m.rebuildItems()
		m.setStatus("Added " + added.Name)
		return m, persistStations()

	case importDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Import failed: %v", msg.err))
			return m, nil
		}
		for _, st := range msg.stations {
			m.directory.Add(st)
		}
		m.rebuildItems()
		m.setStatus(fmt.Sprintf("Imported %d stations from %s", len(msg.stations), filepath.Base(msg.path)))
		return m, persistStations()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m stationsModel) updateInput(msg tea.Msg) (stationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			mode := m.mode
			m.mode = inputNone
			m.input.Reset()
			m.input.Blur()
			if mode == inputImportPath {
				return m, importStationsCmd(value)
			}
			normalized, err := station.NormalizeURL(value)
			if err != nil {
				m.setStatus(fmt.Sprintf("Cannot add station: %v", err))
				return m, nil
			}
			m.resolving = true
			return m, tea.Batch(m.spin.Tick, resolveStationCmd(normalized))
		case "esc":
			m.mode = inputNone
			m.input.Reset()
			m.input.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m stationsModel) view() string {
	if m.mode != inputNone {
		prompt := "Add station URL:"
		if m.mode == inputImportPath {
			prompt = "Import playlist path (.m3u / .pls):"
		}
		s := "\n"
		s += "  " + statusStyle.Render(prompt) + "\n"
		s += "  " + m.input.View() + "\n"
		s += "\n"
		s += "  " + helpStyle.Render("enter confirm  esc back") + "\n"
		return s
	}

	s := m.list.View() + "\n"
	switch {
	case m.resolving:
		s += "  " + m.spin.View() + " " + statusStyle.Render("Checking stream...")
	case m.status != "":
		s += "  " + statusStyle.Render(m.status)
	}
	return s
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
