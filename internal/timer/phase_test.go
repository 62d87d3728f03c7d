package timer

import "testing"

func TestPhaseTokens(t *testing.T) {
	for _, phase := range Phases {
		got, ok := PhaseFromToken(phase.Token())
		if !ok || got != phase {
			t.Errorf("PhaseFromToken(%q) = %q, %v; want %q", phase.Token(), got, ok, phase)
		}
	}

	for _, token := range []string{"", "Study", "shortBreak", "long_break", "nap"} {
		if _, ok := PhaseFromToken(token); ok {
			t.Errorf("PhaseFromToken(%q) accepted, want rejected", token)
		}
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		input string
		want  Phase
		ok    bool
	}{
		{"study", PhaseStudy, true},
		{" Focus ", PhaseStudy, true},
		{"short", PhaseShortBreak, true},
		{"short_break", PhaseShortBreak, true},
		{"shortBreak", PhaseShortBreak, true},
		{"long-break", PhaseLongBreak, true},
		{"LONG", PhaseLongBreak, true},
		{"nap", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePhase(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParsePhase(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDurationsNormalize(t *testing.T) {
	got := Durations{Study: -1, ShortBreak: 0, LongBreak: 99999, LongBreakInterval: 0}.Normalize()
	want := Durations{Study: 1500, ShortBreak: 300, LongBreak: MaxTimerSeconds, LongBreakInterval: 4}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[int]string{
		0:     "00:00",
		59:    "00:59",
		1500:  "25:00",
		3600:  "1:00:00",
		35999: "9:59:59",
		-4:    "00:00",
	}
	for input, want := range tests {
		if got := FormatSeconds(input); got != want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", input, got, want)
		}
	}
}
