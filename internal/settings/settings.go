// Package settings stores the user's phase lengths in settings.yaml.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/pomo/internal/timer"
)

// FileName is the settings file inside the pomo base directory.
const FileName = "settings.yaml"

type yamlSettings struct {
	StudySeconds      int `yaml:"study_seconds"`
	ShortBreakSeconds int `yaml:"short_break_seconds"`
	LongBreakSeconds  int `yaml:"long_break_seconds"`
	LongBreakInterval int `yaml:"long_break_interval"`
}

// Path returns the settings file location under baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, FileName)
}

// Load reads phase lengths from baseDir/settings.yaml.
// If the file does not exist, default durations are returned. Missing or
// non-positive fields keep their defaults.
func Load(baseDir string) (timer.Durations, error) {
	durations := timer.DefaultDurations()

	rawData, err := os.ReadFile(Path(baseDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return durations, nil
		}
		return durations, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return durations, fmt.Errorf("parse settings yaml: %w", err)
	}

	return timer.Durations{
		Study:             fileData.StudySeconds,
		ShortBreak:        fileData.ShortBreakSeconds,
		LongBreak:         fileData.LongBreakSeconds,
		LongBreakInterval: fileData.LongBreakInterval,
	}.Normalize(), nil
}

// Save writes phase lengths to baseDir/settings.yaml after normalizing them.
func Save(baseDir string, durations timer.Durations) error {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	durations = durations.Normalize()
	serialized, err := yaml.Marshal(yamlSettings{
		StudySeconds:      durations.Study,
		ShortBreakSeconds: durations.ShortBreak,
		LongBreakSeconds:  durations.LongBreak,
		LongBreakInterval: durations.LongBreakInterval,
	})
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(Path(baseDir), serialized, 0o600); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Patch holds optional overrides for a partial settings update.
type Patch struct {
	StudySeconds      *int `json:"study_seconds,omitempty"`
	ShortBreakSeconds *int `json:"short_break_seconds,omitempty"`
	LongBreakSeconds  *int `json:"long_break_seconds,omitempty"`
	LongBreakInterval *int `json:"long_break_interval,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.StudySeconds == nil && p.ShortBreakSeconds == nil &&
		p.LongBreakSeconds == nil && p.LongBreakInterval == nil
}

// Validate rejects values the timer cannot represent.
func (p Patch) Validate() error {
	fields := []struct {
		name  string
		value *int
		max   int
	}{
		{"study_seconds", p.StudySeconds, timer.MaxTimerSeconds},
		{"short_break_seconds", p.ShortBreakSeconds, timer.MaxTimerSeconds},
		{"long_break_seconds", p.LongBreakSeconds, timer.MaxTimerSeconds},
		{"long_break_interval", p.LongBreakInterval, 100},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 1 || *f.value > f.max {
			return fmt.Errorf("%s must be between 1 and %d", f.name, f.max)
		}
	}
	return nil
}

// Apply returns d with the patch's fields overridden.
func (p Patch) Apply(d timer.Durations) timer.Durations {
	if p.StudySeconds != nil {
		d.Study = *p.StudySeconds
	}
	if p.ShortBreakSeconds != nil {
		d.ShortBreak = *p.ShortBreakSeconds
	}
	if p.LongBreakSeconds != nil {
		d.LongBreak = *p.LongBreakSeconds
	}
	if p.LongBreakInterval != nil {
		d.LongBreakInterval = *p.LongBreakInterval
	}
	return d.Normalize()
}
