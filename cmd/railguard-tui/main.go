// Command railguard-tui is a terminal dashboard for the railguard
// daemon's run trace.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Config
const (
	pollRate       = time.Second
	maxEvents      = 40
	viewportHeight = 20
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	eventTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(20)
	eventRunStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Red
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // Green
	phaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue
)

// API types (mirrored from pkg/trace and pkg/api to avoid CGO deps)

type RunEvent struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type tickMsg time.Time

type dataMsg struct {
	events []RunEvent
	health Health
	err    error
}

type model struct {
	daemonURL string
	spinner   spinner.Model
	viewport  viewport.Model
	events    []RunEvent
	health    Health
	err       error
	ready     bool
}

func initialModel(daemonURL string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(100, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)

	return model{
		daemonURL: daemonURL,
		spinner:   s,
		viewport:  vp,
		events:    []RunEvent{},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.daemonURL),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.daemonURL), tick())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.events = msg.events
			m.health = msg.health
			m.updateViewportContent()
		}
		if !m.ready {
			m.ready = true
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingRight(2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder

	for _, e := range m.events {
		ts := e.At.Local().Format("15:04:05")

		var typeStr string
		switch {
		case strings.Contains(e.Type, "failed") || strings.Contains(e.Type, "degraded"):
			typeStr = failStyle.Render(e.Type)
		case strings.Contains(e.Type, "completed"):
			typeStr = doneStyle.Render(e.Type)
		default:
			typeStr = phaseStyle.Render(e.Type)
		}

		detail := eventDetail(e)
		line := fmt.Sprintf("%s %s %s %s\n",
			eventTimeStyle.Render(ts),
			typeStr,
			eventRunStyle.Render(shortRun(e.RunID)),
			subtleStyle.Render(detail),
		)
		sb.WriteString(line)
	}

	m.viewport.SetContent(sb.String())
}

// eventDetail extracts the most useful payload field per event type.
func eventDetail(e RunEvent) string {
	if len(e.Payload) == 0 {
		return ""
	}
	var p map[string]any
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return ""
	}
	switch {
	case p["phase"] != nil:
		return fmt.Sprintf("phase=%v", p["phase"])
	case p["source"] != nil:
		return fmt.Sprintf("source=%v", p["source"])
	case p["score"] != nil:
		return fmt.Sprintf("score=%v", p["score"])
	case p["count"] != nil:
		return fmt.Sprintf("conflicts=%v", p["count"])
	case p["error"] != nil:
		return fmt.Sprintf("error=%v", p["error"])
	}
	return ""
}

func shortRun(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	var info strings.Builder
	info.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Railguard Daemon") + "\n\n")
	if m.err != nil {
		info.WriteString(subtleStyle.Render(m.daemonURL))
	} else {
		info.WriteString(fmt.Sprintf("• %s (version %s)\n", m.daemonURL, m.health.Version))
	}
	topPane := paneStyle.Render(info.String())

	header := headerStyle.Render(fmt.Sprintf("%s Run Trace", m.spinner.View()))
	bottomPane := m.viewport.View()

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d Events", len(m.events)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", statusStyle.Render(status)))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, bottomPane, footer)
}

// Commands

func fetchData(daemonURL string) tea.Cmd {
	return func() tea.Msg {
		health, err := getHealth(daemonURL)
		if err != nil {
			return dataMsg{err: err}
		}
		events, err := getRunEvents(daemonURL)
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{events: events, health: health}
	}
}

func getRunEvents(daemonURL string) ([]RunEvent, error) {
	c := &http.Client{Timeout: 500 * time.Millisecond}
	resp, err := c.Get(fmt.Sprintf("%s/v1/runs?limit=%d", daemonURL, maxEvents))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("runs status %d", resp.StatusCode)
	}

	var events []RunEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

func getHealth(daemonURL string) (Health, error) {
	c := &http.Client{Timeout: 500 * time.Millisecond}
	resp, err := c.Get(daemonURL + "/v1/health")
	if err != nil {
		return Health{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("health status %d", resp.StatusCode)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, err
	}
	return h, nil
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	daemonURL := os.Getenv("RAILGUARD_API_URL")
	if daemonURL == "" {
		daemonURL = "http://127.0.0.1:8790"
	}

	p := tea.NewProgram(initialModel(daemonURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
