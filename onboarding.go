package main

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/clira/internal/ui"
)

const onboardFPS = 60

type onboardPage struct {
	title string
	body  []string
}

var onboardPages = []onboardPage{
	{
		title: "welcome to clira",
		body: []string{
			"Internet radio for your terminal.",
			"",
			"A handful of stations is built in. Add your own with a stream",
			"URL or import an .m3u / .pls playlist, and mark favorites so",
			"they stay on top.",
		},
	},
	{
		title: "listening",
		body: []string{
			"enter   tune the selected station",
			"space   pause and resume",
			"↑/↓     volume",
			"v       cycle the visualizer",
			"z       sleep timer",
			"tab     switch screens",
		},
	},
	{
		title: "recording and tv",
		body: []string{
			"Press r while listening to record the stream straight to disk.",
			"Recordings land on the library screen for later playback.",
			"",
			"Stations marked [tv] play video right in the terminal",
			"(ffmpeg required).",
		},
	},
}

// onboardFrameMsg drives the page slide animation.
type onboardFrameMsg struct{ gen int }

// onboardingModel is the first-run pager. Pages slide in on a spring; the
// last enter hands the program off to the main app model.
type onboardingModel struct {
	opts  ui.Options
	page  int
	meter progress.Model

	// Slide animation state. offset is the rendered page's horizontal
	// displacement, sprung toward zero after each page change.
	spring harmonica.Spring
	offset float64
	vel    float64
	gen    int

	width  int
	height int
}

func newOnboarding(opts ui.Options) onboardingModel {
	meter := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)
	meter.Width = 24

	return onboardingModel{
		opts:   opts,
		meter:  meter,
		spring: harmonica.NewSpring(harmonica.FPS(onboardFPS), 7.0, 0.8),
	}
}

func (m onboardingModel) Init() tea.Cmd {
	return tea.SetWindowTitle("clira")
}

func (m onboardingModel) frameCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second/onboardFPS, func(time.Time) tea.Msg {
		return onboardFrameMsg{gen: gen}
	})
}

// slideFrom restarts the slide with the page entering from the given edge.
func (m *onboardingModel) slideFrom(offset float64) tea.Cmd {
	m.offset = offset
	m.vel = 0
	m.gen++
	return m.frameCmd()
}

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case onboardFrameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.offset, m.vel = m.spring.Update(m.offset, m.vel, 0)
		if math.Abs(m.offset) < 0.5 && math.Abs(m.vel) < 0.5 {
			m.offset = 0
			m.vel = 0
			return m, nil
		}
		return m, m.frameCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		case "q", "esc":
			return m.finish()
		case "enter", "right", "l", " ":
			if m.page >= len(onboardPages)-1 {
				return m.finish()
			}
			m.page++
			return m, m.slideFrom(float64(m.contentWidth()))
		case "left", "h":
			if m.page == 0 {
				return m, nil
			}
			m.page--
			return m, m.slideFrom(-float64(m.contentWidth()))
		}
	}

	return m, nil
}

// finish marks onboarding done, persists it and swaps in the app model,
// replaying the window size so it lays out immediately.
func (m onboardingModel) finish() (tea.Model, tea.Cmd) {
	m.opts.Prefs.Onboarded = true
	_ = m.opts.Prefs.Save(m.opts.PrefsPath)

	app := ui.New(m.opts)
	cmds := []tea.Cmd{app.Init()}
	if m.width > 0 || m.height > 0 {
		w, h := m.width, m.height
		cmds = append(cmds, func() tea.Msg {
			return tea.WindowSizeMsg{Width: w, Height: h}
		})
	}
	return app, tea.Batch(cmds...)
}

func (m onboardingModel) contentWidth() int {
	w := m.width
	if w < 30 {
		w = 64
	}
	return w
}

func (m onboardingModel) View() string {
	page := onboardPages[m.page]
	indent := 4 + int(math.Round(m.offset))
	if indent < 0 {
		indent = 0
	}
	pad := strings.Repeat(" ", indent)

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(pad)
	b.WriteString(onboardTitleStyle.Render(page.title))
	b.WriteString("\n\n")
	for _, line := range page.body {
		b.WriteString(pad)
		b.WriteString(onboardBodyStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("    ")
	b.WriteString(m.meter.ViewAs(float64(m.page+1) / float64(len(onboardPages))))
	b.WriteString("\n\n")

	dots := make([]string, len(onboardPages))
	for i := range onboardPages {
		if i == m.page {
			dots[i] = "●"
		} else {
			dots[i] = "○"
		}
	}
	b.WriteString("    ")
	b.WriteString(onboardHelpStyle.Render(strings.Join(dots, " ")))
	b.WriteString("\n\n")

	next := "enter next"
	if m.page == len(onboardPages)-1 {
		next = "enter start listening"
	}
	b.WriteString("    ")
	b.WriteString(onboardHelpStyle.Render(next + "  esc skip"))
	b.WriteString("\n")
	return b.String()
}

var (
	onboardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	onboardBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	onboardHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)
