package ops

import (
	"context"
	"strconv"
	"strings"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/timer"
)

// Status returns the current timer state and any pending catch-up offer.
func Status(_ context.Context, r *Runtime) (*TimerView, error) {
	return r.View(), nil
}

// Start resumes the countdown. A pending catch-up offer is declined.
func Start(_ context.Context, r *Runtime) (*TimerView, error) {
	r.control(r.Engine.Start)
	return r.View(), nil
}

// Pause stops the countdown. A pending catch-up offer is declined.
func Pause(_ context.Context, r *Runtime) (*TimerView, error) {
	r.control(r.Engine.Pause)
	return r.View(), nil
}

// ResetInput contains parameters for the Reset operation.
type ResetInput struct {
	// All returns to a fresh cycle (study, full, no completions) instead of
	// refilling only the current phase.
	All bool
}

// Reset pauses and refills the current phase, or clears the whole cycle.
func Reset(_ context.Context, r *Runtime, input ResetInput) (*TimerView, error) {
	if input.All {
		r.control(r.Engine.Clear)
	} else {
		r.control(r.Engine.Reset)
	}
	return r.View(), nil
}

// SwitchInput contains parameters for the Switch operation.
type SwitchInput struct {
	Phase string // required: study, short, long (aliases accepted)
}

// Switch pauses and moves to a full phase.
func Switch(_ context.Context, r *Runtime, input SwitchInput) (*TimerView, error) {
	if strings.TrimSpace(input.Phase) == "" {
		return nil, errors.NewInvalidRequest("phase is required")
	}
	phase, ok := timer.ParsePhase(input.Phase)
	if !ok {
		return nil, errors.NewInvalidPhase(input.Phase)
	}
	var err error
	r.control(func() { err = r.Engine.SwitchTab(phase) })
	if err != nil {
		return nil, errors.NewInvalidPhase(input.Phase)
	}
	return r.View(), nil
}

// SetInput contains parameters for the Set operation.
// Exactly one of Seconds or Clock must be given.
type SetInput struct {
	Seconds *int
	Clock   string // "90", "25:00" or "1:30:00"
}

// Set pauses and sets the remaining time, clamped to [0, MaxTimerSeconds].
func Set(_ context.Context, r *Runtime, input SetInput) (*TimerView, error) {
	hasClock := strings.TrimSpace(input.Clock) != ""
	if input.Seconds == nil && !hasClock {
		return nil, errors.NewInvalidRequest("seconds is required")
	}
	if input.Seconds != nil && hasClock {
		return nil, errors.NewInvalidRequest("cannot specify both seconds and clock")
	}

	seconds := 0
	if input.Seconds != nil {
		seconds = *input.Seconds
	} else {
		parsed, err := ParseClock(input.Clock)
		if err != nil {
			return nil, err
		}
		seconds = parsed
	}

	r.control(func() { r.Engine.SetSeconds(seconds) })
	return r.View(), nil
}

// ParseClock parses whole seconds ("90"), "mm:ss" or "h:mm:ss". Minute and
// second fields after the first must be below 60.
func ParseClock(input string) (int, error) {
	input = strings.TrimSpace(input)
	parts := strings.Split(input, ":")
	if input == "" || len(parts) > 3 {
		return 0, errors.NewInvalidRequest("time must be seconds, mm:ss or h:mm:ss")
	}

	total := 0
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, errors.NewInvalidRequest("time must be seconds, mm:ss or h:mm:ss")
		}
		if i > 0 && value >= 60 {
			return 0, errors.NewInvalidRequest("minutes and seconds must be below 60")
		}
		total = total*60 + value
	}
	return total, nil
}
