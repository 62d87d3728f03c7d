package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/timer"
)

// adjustStep is how far +/- move the remaining time.
const adjustStep = 60

// tickMsg is sent periodically to redraw the clock.
type tickMsg time.Time

// syncMsg carries the engine's coarse run state.
type syncMsg timer.SyncSignal

// completeMsg reports a ticked phase completion.
type completeMsg timer.Phase

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the terminal timer.
type Model struct {
	rt     *ops.Runtime
	theme  Theme
	styles Styles
	bell   io.Writer

	view   *ops.TimerView
	signal timer.SyncSignal
	notice string
	err    string
	width  int
}

// NewModel creates a model around rt. Phase completions ring bell (nil for
// silence).
func NewModel(rt *ops.Runtime, bell io.Writer) *Model {
	m := &Model{
		rt:     rt,
		theme:  DefaultTheme,
		styles: NewStyles(DefaultTheme),
		bell:   bell,
		signal: timer.SyncPaused,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case syncMsg:
		m.signal = timer.SyncSignal(msg)
		return m, nil

	case completeMsg:
		m.refresh()
		m.notice = fmt.Sprintf("%s finished at %s", timer.Phase(msg).Label(), time.Now().Format("15:04"))
		return m, m.ring()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	m.err = ""

	var err error
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "s":
		if m.rt.Engine.Snapshot().IsRunning {
			_, err = ops.Pause(ctx, m.rt)
		} else {
			_, err = ops.Start(ctx, m.rt)
		}

	case "r":
		_, err = ops.Reset(ctx, m.rt, ops.ResetInput{})

	case "R":
		_, err = ops.Reset(ctx, m.rt, ops.ResetInput{All: true})

	case "1", "2", "3":
		phase := timer.Phases[msg.String()[0]-'1']
		_, err = ops.Switch(ctx, m.rt, ops.SwitchInput{Phase: string(phase)})

	case "+", "=", "-":
		seconds := m.rt.Engine.Snapshot().SecondsRemaining
		if msg.String() == "-" {
			seconds -= adjustStep
		} else {
			seconds += adjustStep
		}
		_, err = ops.Set(ctx, m.rt, ops.SetInput{Seconds: &seconds})

	case "c", "C":
		var out *ops.CatchupOutput
		out, err = ops.Catchup(ctx, m.rt, ops.CatchupInput{Force: msg.String() == "C"})
		if err == nil {
			m.notice = fmt.Sprintf("Caught up %s across %d transitions",
				timer.FormatSeconds(out.ElapsedSeconds), out.Transitions)
		}

	default:
		return m, nil
	}

	if err != nil {
		m.err = err.Error()
	}
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	m.view = m.rt.View()
}

// ring writes a terminal bell.
func (m *Model) ring() tea.Cmd {
	if m.bell == nil {
		return nil
	}
	out := m.bell
	return func() tea.Msg {
		_, _ = io.WriteString(out, "\a")
		return nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	v := m.view
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("pomo · " + v.Timer))
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(timer.Phases))
	for i, phase := range timer.Phases {
		label := fmt.Sprintf("%d %s", i+1, phase.Label())
		if phase == v.Phase {
			tabs = append(tabs, m.styles.activeTab(m.theme, phase).Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	b.WriteString(clockBox(m.theme, v.Phase).Render(v.Clock))
	b.WriteString("\n")

	state := "paused"
	if v.IsRunning {
		state = "running"
	}
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf("%s · %d studies completed · %s",
		state, v.CompletedStudyCount, m.signal)))
	b.WriteString("\n")

	if offer := v.Catchup; offer != nil {
		b.WriteString("\n")
		if offer.Offered {
			b.WriteString(m.styles.Warning.Render(fmt.Sprintf(
				"Running when last saved, %s ago. Press c to catch up.", timer.FormatSeconds(offer.ElapsedSeconds))))
		} else {
			b.WriteString(m.styles.Warning.Render(fmt.Sprintf(
				"Running when last saved, %s ago (outside the catch-up window). Press C to force.", timer.FormatSeconds(offer.ElapsedSeconds))))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	if m.err != "" {
		b.WriteString("\n" + m.styles.Error.Render(m.err) + "\n")
	}

	b.WriteString(m.styles.Help.Render("space start/pause · 1-3 phase · r reset · R new cycle · +/- minute · c catch up · q quit"))
	b.WriteString("\n")
	return b.String()
}
