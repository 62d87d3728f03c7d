package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/timer"
)

// Run shows the terminal timer until the user quits. The caller closes rt
// afterwards so the last state is written.
func Run(rt *ops.Runtime) error {
	model := NewModel(rt, os.Stdout)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Engine callbacks can fire from inside Update (a key press that starts
	// the timer), so messages are sent without blocking the event loop.
	rt.Engine.OnPhaseComplete(func(phase timer.Phase) {
		go program.Send(completeMsg(phase))
	})
	rt.Engine.SetSyncCallback(func(signal timer.SyncSignal) {
		go program.Send(syncMsg(signal))
	})
	defer rt.Engine.SetSyncCallback(nil)

	_, err := program.Run()
	return err
}
