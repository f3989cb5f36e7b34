package main

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"limbo/dictation"
	"limbo/hotkey"
)

// TUI message types
type StateMsg struct{ State dictation.State }
type LogMsg struct{ Text string }
type ModeLineMsg struct{ Text string }   // provider and timeout
type DeviceLineMsg struct{ Text string } // microphone device name
type tickMsg time.Time

const (
	cardWidth   = 44
	maxLogLines = 4
	pulseFrames = 10
)

type tuiModel struct {
	state         dictation.State
	frame         int
	width, height int
	modeLine      string
	deviceLine    string
	logs          []string
	sessions      int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(dictation.ColorHint)).
			Background(lipgloss.Color(dictation.ColorBackground)).
			Padding(1, 2).
			Width(cardWidth)
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(dictation.ColorText))
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(dictation.ColorHint))
)

func NewTUIProgram() *tea.Program {
	return tea.NewProgram(tuiModel{}, tea.WithAltScreen())
}

func setTUIProgram(p *tea.Program) {
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...any) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

// tuiView forwards controller state to the running program.
type tuiView struct{}

func (tuiView) Render(s dictation.State) { tuiSend(StateMsg{State: s}) }

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StateMsg:
		if msg.State.Phase == dictation.Listening && m.state.Phase != dictation.Listening {
			m.sessions++
			m.frame = 0
		}
		m.state = msg.State

	case LogMsg:
		m.logs = append(m.logs, msg.Text)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	look := m.state.Look()
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(look.Accent)).Bold(true)

	dot := "●"
	if look.Pulse && m.frame%pulseFrames >= pulseFrames/2 {
		dot = "○"
	}

	var lines []string
	lines = append(lines, accent.Render(dot+" "+look.Label), "")

	body := textStyle
	if m.state.Phase == dictation.Idle {
		body = hintStyle
	}
	for _, l := range wrapText(look.Message, cardWidth-4) {
		lines = append(lines, body.Render(l))
	}

	var info []string
	if m.deviceLine != "" {
		info = append(info, "mic: "+m.deviceLine)
	}
	if m.modeLine != "" {
		info = append(info, m.modeLine)
	}
	if m.sessions > 0 {
		info = append(info, fmt.Sprintf("sessions: %d", m.sessions))
	}
	if len(info) > 0 {
		lines = append(lines, "")
		for _, l := range info {
			lines = append(lines, hintStyle.Render(l))
		}
	}

	card := cardStyle.BorderForeground(lipgloss.Color(look.Accent)).Render(strings.Join(lines, "\n"))

	var footer []string
	for _, l := range m.logs {
		footer = append(footer, hintStyle.Render(l))
	}
	footer = append(footer, hintStyle.Render(hotkey.Combo+" toggle · q quit"))

	content := lipgloss.JoinVertical(lipgloss.Center, card, "", strings.Join(footer, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// wrapText breaks text on spaces so no line exceeds width runes. Words
// longer than width are split.
func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for utf8.RuneCountInString(text) > width {
		runes := []rune(text)
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		text = strings.TrimLeft(string(runes[splitAt:]), " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
