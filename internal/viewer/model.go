// Package viewer is the terminal counterpart of the dashboard web page: a
// Bubble Tea program that subscribes to the dashboard stream and shows
// live CPU and memory meters with short sparklines.
package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/ui"
)

const (
	meterWidth    = 30
	minSparkWidth = 10
	labelWidth    = 8
)

// Model is the Bubble Tea model for hoststats watch.
type Model struct {
	endpoint  string
	events    <-chan tea.Msg
	history   *History
	spinner   spinner.Model
	last      *metrics.Sample
	lastAt    time.Time
	connected bool
	lastErr   error
	width     int
	quitting  bool
}

// NewModel creates a model fed by events, usually the result of Subscribe.
func NewModel(endpoint string, events <-chan tea.Msg) Model {
	return Model{
		endpoint: endpoint,
		events:   events,
		history:  NewHistory(DefaultHistorySize),
		spinner:  ui.NewSpinner(),
	}
}

// streamClosedMsg is delivered once the event channel is exhausted.
type streamClosedMsg struct{}

// Init starts the spinner and waits for the first stream event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return msg
	}
}

// Update handles key presses, resizes and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SampleMsg:
		s := msg.Sample
		m.last = &s
		m.lastAt = msg.At
		m.connected = true
		m.history.Push(s)
		return m, m.waitForEvent()

	case ConnMsg:
		m.connected = msg.Connected
		m.lastErr = msg.Err
		return m, m.waitForEvent()

	case streamClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Render("hoststats")
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	var b strings.Builder
	b.WriteString(title + " " + muted.Render(m.endpoint) + "\n\n")

	switch {
	case m.connected:
		b.WriteString(lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolRunning) + " live\n\n")
	case m.lastErr != nil:
		b.WriteString(m.spinner.View() + " reconnecting " + muted.Render("("+m.lastErr.Error()+")") + "\n\n")
	default:
		b.WriteString(m.spinner.View() + " connecting\n\n")
	}

	if m.last == nil {
		b.WriteString(muted.Render("waiting for samples") + "\n")
	} else {
		spark := m.sparkWidth()
		b.WriteString(m.row("CPU", m.last.CPU, m.history.CPU(spark), spark))
		b.WriteString(m.row("Memory", m.last.Memory, m.history.Memory(spark), spark))
		b.WriteString("\n" + muted.Render("updated "+m.lastAt.Format("15:04:05")) + "\n")
	}

	b.WriteString("\n" + muted.Render("q quit") + "\n")
	return b.String()
}

func (m Model) row(label string, value float64, hist []float64, sparkWidth int) string {
	return fmt.Sprintf("%-*s %s  %s\n", labelWidth, label,
		ui.RenderMeter(value, meterWidth), ui.RenderSparkline(hist, sparkWidth))
}

// sparkWidth fits the sparkline into whatever the meter leaves over.
func (m Model) sparkWidth() int {
	if m.width == 0 {
		return DefaultHistorySize
	}
	w := m.width - labelWidth - meterWidth - 12
	if w < minSparkWidth {
		return minSparkWidth
	}
	if w > DefaultHistorySize {
		return DefaultHistorySize
	}
	return w
}
