package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ahmed11551/tasbix09-sub001/session"
	"github.com/ahmed11551/tasbix09-sub001/tally"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

const refresh = 50 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	countStyle    = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	pulseStyle    = countStyle.BorderForeground(lipgloss.Color("#04B575"))
	completeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

type tickMsg time.Time

type switchedMsg struct {
	item session.Item
	err  error
}

type model struct {
	session *session.Session
	user    string
	item    int
	err     error
}

func newModel(s *session.Session, user string, item int) model {
	return model{session: s, user: user, item: item}
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case switchedMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		counter := m.session.Counter()

		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "enter":
			counter.Tap(1)
		case "u":
			counter.Undo()
		case "r":
			counter.ResetCount()
		case "R":
			counter.ResetAll()
		case "g":
			m.session.SetGoal(nextGoal(counter.Snapshot().Target))
		case "s":
			if counter.Snapshot().Speaking {
				counter.StopSpeaking()
			} else {
				counter.Speak()
			}
		case "n":
			m.item = (m.item + 1) % len(items)
			return m, m.switchTo(items[m.item])
		}
	}

	return m, nil
}

func (m model) switchTo(item session.Item) tea.Cmd {
	s, user := m.session, m.user
	return func() tea.Msg {
		err := s.Switch(context.Background(), tally.StreamID(user, item.ID), item)
		return switchedMsg{item: item, err: err}
	}
}

func (m model) View() string {
	snapshot := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(title(snapshot)) + "\n\n")

	style := countStyle
	if snapshot.Pulsing {
		style = pulseStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("%d", snapshot.Display)) + "\n\n")
	b.WriteString(status(snapshot) + "\n")

	if snapshot.Complete {
		b.WriteString(completeStyle.Render("goal complete") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + hintStyle.Render(hints(snapshot)) + "\n")
	return b.String()
}

func title(snapshot tasbih.Snapshot) string {
	if snapshot.Text != "" {
		return snapshot.Text
	}

	return snapshot.Identity
}

func status(snapshot tasbih.Snapshot) string {
	line := fmt.Sprintf("count %d  rounds %d  %s %.0f%%", snapshot.Count, snapshot.Rounds, bar(snapshot.Percent, 20), snapshot.Percent)
	if snapshot.Target > 0 {
		line += fmt.Sprintf("  goal %d", snapshot.Target)
	}

	return line
}

func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))

	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func hints(snapshot tasbih.Snapshot) string {
	parts := []string{"space tap"}
	if snapshot.UndoAvailable {
		parts = append(parts, fmt.Sprintf("u undo %+d", snapshot.UndoDelta))
	}
	parts = append(parts, "r reset", "R reset all", "g goal", "n next")
	if snapshot.Speaking {
		parts = append(parts, "s stop")
	} else {
		parts = append(parts, "s speak")
	}

	return strings.Join(append(parts, "q quit"), " • ")
}
