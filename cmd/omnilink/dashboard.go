package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/ui"
)

// maxEventLines is how many recent events the dashboard keeps
const maxEventLines = 8

// readyMsg reports the end of connection and discovery
type readyMsg struct {
	format      message.TemperatureFormat
	discoverErr error
	err         error
}

type refreshedMsg struct{ err error }

type eventMsg struct{ event panel.Event }

type eventsClosedMsg struct{}

// waitForEvent delivers the next client event to the program
func waitForEvent(events <-chan panel.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

// dashboardKeyMap defines key bindings for the monitor dashboard
type dashboardKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Refresh, k.Quit}}
}

type eventLine struct {
	at    time.Time
	text  string
	level ui.Level
}

// dashboardModel shows a live status table per object type and the most
// recent events
type dashboardModel struct {
	client     *panel.Client
	controller string
	events     <-chan panel.Event

	// start connects and discovers; refresh resynchronizes every status
	start   func() readyMsg
	refresh func() error

	ready     bool
	connected bool
	format    message.TemperatureFormat
	err       error
	tab       int
	recent    []eventLine

	spinner spinner.Model
	help    help.Model
	keys    dashboardKeyMap
}

func newDashboardModel(c *panel.Client, controller string, events <-chan panel.Event, start func() readyMsg, refresh func() error) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	keys := dashboardKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next type"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "previous type"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return dashboardModel{
		client:     c,
		controller: controller,
		events:     events,
		start:      start,
		refresh:    refresh,
		format:     message.FormatFahrenheit,
		spinner:    s,
		help:       help.New(),
		keys:       keys,
	}
}

// Init starts the spinner, the event pump and the connection
func (m dashboardModel) Init() tea.Cmd {
	start := m.start
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
		func() tea.Msg { return start() },
	)
}

// Update handles messages and updates the model
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.tab = (m.tab + 1) % len(statusOrder)
		case key.Matches(msg, m.keys.Prev):
			m.tab = (m.tab + len(statusOrder) - 1) % len(statusOrder)
		case key.Matches(msg, m.keys.Refresh):
			if m.ready {
				refresh := m.refresh
				return m, func() tea.Msg { return refreshedMsg{err: refresh()} }
			}
		}
		return m, nil

	case readyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.ready = true
		m.connected = true
		m.format = msg.format
		if msg.discoverErr != nil {
			m.addEvent("Discovery failed: "+panel.ShortMessage(msg.discoverErr), ui.LevelAlert)
		}
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			logging.Debug("Dashboard refresh failed", zap.Error(msg.err))
			m.addEvent("Refresh failed: "+panel.ShortMessage(msg.err), ui.LevelAlert)
		}
		return m, nil

	case eventMsg:
		if cc, ok := msg.event.(panel.ConnectionChanged); ok {
			m.connected = cc.Connected
		}
		line, level := describeEvent(msg.event, m.client.Inventory(), m.format)
		m.addEvent(line, level)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *dashboardModel) addEvent(text string, level ui.Level) {
	m.recent = append(m.recent, eventLine{at: time.Now(), text: text, level: level})
	if len(m.recent) > maxEventLines {
		m.recent = m.recent[len(m.recent)-maxEventLines:]
	}
}

// View renders the dashboard
func (m dashboardModel) View() string {
	var b strings.Builder

	switch {
	case !m.ready:
		b.WriteString(fmt.Sprintf("%s Connecting to %s...\n", m.spinner.View(), m.controller))
	case !m.connected:
		b.WriteString(fmt.Sprintf("%s Reconnecting to %s...\n", m.spinner.View(), m.controller))
	default:
		b.WriteString(ui.StateStyle(ui.LevelNormal).Render(ui.EventMarker) + " Connected to " + m.controller + "\n")
	}
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.renderTabs())
		b.WriteString("\n\n")
		o := statusTypes[statusOrder[m.tab]]
		table := &ui.Table{Rows: statusRows(m.client, o, m.format)}
		b.WriteString(table.Render())
		b.WriteString("\n")
	}

	b.WriteString(ui.TableHeadStyle.Render("RECENT EVENTS"))
	b.WriteString("\n")
	if len(m.recent) == 0 {
		b.WriteString(ui.StateStyle(ui.LevelInactive).Render("(none)"))
		b.WriteString("\n")
	}
	for _, e := range m.recent {
		stamp := ui.StateStyle(ui.LevelInactive).Render(e.at.Format("15:04:05"))
		b.WriteString(fmt.Sprintf("%s %s %s\n", stamp, ui.StateStyle(e.level).Render(ui.EventMarker), e.text))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m dashboardModel) renderTabs() string {
	active := lipgloss.NewStyle().Foreground(ui.PrimaryColor).Bold(true).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(ui.MutedColor)

	tabs := make([]string, len(statusOrder))
	for i, name := range statusOrder {
		if i == m.tab {
			tabs[i] = active.Render(name)
		} else {
			tabs[i] = inactive.Render(name)
		}
	}
	return strings.Join(tabs, "  ")
}

// runDashboard runs the interactive monitor until the user quits or ctx is
// cancelled. A connection failure is returned once the screen is restored.
func runDashboard(ctx context.Context, c *panel.Client, controller string, events <-chan panel.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newDashboardModel(c, controller, events,
		func() readyMsg { return startMonitor(ctx, c) },
		func() error { return c.RefreshAll(ctx) },
	)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}
	if m, ok := final.(dashboardModel); ok && m.err != nil && ctx.Err() == nil {
		return m.err
	}
	return nil
}
