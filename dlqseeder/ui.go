package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxRecentLogs = 12
	maxErrors     = 5
)

type model struct {
	spinner    spinner.Model
	progress   progress.Model
	cfg        SeederConfig
	sent       int
	failed     int
	byKind     map[FixtureKind]int
	recentLogs []logEntry
	errors     []string
	startTime  time.Time
	isComplete bool
	width      int
}

type logEntry struct {
	message string
	kind    FixtureKind
	success bool
}

type resultMsg Result
type completeMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("111"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	malformedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2).
			MarginBottom(1)
)

func initialModel(cfg SeederConfig) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		spinner:    s,
		progress:   progress.New(progress.WithDefaultGradient()),
		cfg:        cfg,
		byKind:     make(map[FixtureKind]int),
		recentLogs: make([]logEntry, 0, maxRecentLogs),
		startTime:  time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case resultMsg:
		entry := logEntry{kind: msg.Kind, success: msg.Success}
		if msg.Success {
			m.sent++
			m.byKind[msg.Kind]++
			entry.message = fmt.Sprintf("Fixture %d sent as %s (%v)", msg.Index, msg.Kind, msg.Duration.Round(time.Millisecond))
		} else {
			m.failed++
			entry.message = fmt.Sprintf("Fixture %d failed: %s", msg.Index, msg.Error)
			m.errors = append([]string{fmt.Sprintf("[%s] %s", msg.Kind, msg.Error)}, m.errors...)
			if len(m.errors) > maxErrors {
				m.errors = m.errors[:maxErrors]
			}
		}

		m.recentLogs = append([]logEntry{entry}, m.recentLogs...)
		if len(m.recentLogs) > maxRecentLogs {
			m.recentLogs = m.recentLogs[:maxRecentLogs]
		}
		return m, nil

	case completeMsg:
		m.isComplete = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("DLQ Seeder") + "\n")

	done := m.sent + m.failed
	percent := float64(done) / float64(m.cfg.Messages)
	progressText := fmt.Sprintf("Progress: %d/%d fixtures (%.1f%%)", done, m.cfg.Messages, percent*100)
	if m.isComplete {
		progressText = "✓ " + progressText
	} else {
		progressText = m.spinner.View() + " " + progressText
	}
	b.WriteString(progressText + "\n")
	b.WriteString(m.progress.ViewAs(percent) + "\n\n")

	b.WriteString(m.renderStatsPanel() + "\n")
	b.WriteString(m.renderLogPanel() + "\n")

	if len(m.errors) > 0 {
		b.WriteString(m.renderErrorPanel() + "\n")
	}

	if m.isComplete {
		b.WriteString(successStyle.Render("\n✓ Seeding complete! Press 'q' to quit"))
	} else {
		b.WriteString(labelStyle.Render("\nPress 'q' to quit"))
	}
	return b.String()
}

func (m model) renderStatsPanel() string {
	elapsed := time.Since(m.startTime).Round(time.Second)

	rows := []string{
		labelStyle.Render("Queue: ") + valueStyle.Render(m.cfg.QueueURL),
		labelStyle.Render("Event type: ") + valueStyle.Render(m.cfg.EventType),
		labelStyle.Render("Elapsed: ") + valueStyle.Render(elapsed.String()),
		"",
	}
	for _, kind := range []FixtureKind{FixtureValid, FixtureMissingID, FixtureMalformedBody, FixtureMalformedInner} {
		rows = append(rows, labelStyle.Render(fmt.Sprintf("%-16s", string(kind)+":"))+valueStyle.Render(fmt.Sprintf("%d", m.byKind[kind])))
	}
	rows = append(rows, labelStyle.Render(fmt.Sprintf("%-16s", "send failures:"))+errorStyle.Render(fmt.Sprintf("%d", m.failed)))

	return boxStyle.Render(strings.Join(rows, "\n"))
}

func (m model) renderLogPanel() string {
	if len(m.recentLogs) == 0 {
		return boxStyle.Render(labelStyle.Render("Waiting for first fixture..."))
	}

	lines := make([]string, 0, len(m.recentLogs))
	for _, entry := range m.recentLogs {
		var style lipgloss.Style
		switch {
		case !entry.success:
			style = errorStyle
		case entry.kind == FixtureValid:
			style = successStyle
		default:
			style = malformedStyle
		}
		lines = append(lines, style.Render(entry.message))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m model) renderErrorPanel() string {
	lines := make([]string, 0, len(m.errors)+1)
	lines = append(lines, errorStyle.Render("Recent errors:"))
	for _, e := range m.errors {
		lines = append(lines, errorStyle.Render("  "+e))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
