package ops

import (
	"context"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/settings"
	"github.com/hpungsan/pomo/internal/timer"
)

// SettingsOutput contains the result of the settings operations.
type SettingsOutput struct {
	Durations timer.Durations `json:"durations"`
	Saved     bool            `json:"saved"`
	Timer     *TimerView      `json:"timer"`
}

// GetSettings returns the active phase lengths.
func GetSettings(_ context.Context, r *Runtime) (*SettingsOutput, error) {
	return &SettingsOutput{
		Durations: r.Engine.Durations(),
		Timer:     r.View(),
	}, nil
}

// UpdateSettings applies new phase lengths to the running engine and saves
// them to settings.yaml when the runtime has a base directory. The remaining
// time only moves if the current phase was untouched and its length changed.
func UpdateSettings(ctx context.Context, r *Runtime, patch settings.Patch) (*SettingsOutput, error) {
	if patch.Empty() {
		return GetSettings(ctx, r)
	}
	if err := patch.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	r.ctl.Lock()
	defer r.ctl.Unlock()

	durations := patch.Apply(r.Engine.Durations())
	saved := false
	if r.baseDir != "" {
		if err := settings.Save(r.baseDir, durations); err != nil {
			return nil, errors.NewInternal(err)
		}
		saved = true
	}

	r.Engine.SetDurations(durations)
	return &SettingsOutput{
		Durations: r.Engine.Durations(),
		Saved:     saved,
		Timer:     r.View(),
	}, nil
}
