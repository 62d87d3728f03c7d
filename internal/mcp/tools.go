package mcp

import "github.com/mark3labs/mcp-go/mcp"

var statusToolDef = mcp.NewTool("timer_status",
	mcp.WithDescription("Show the Pomodoro timer: phase, time left, running state, completed study sessions and any pending catch-up offer."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var startToolDef = mcp.NewTool("timer_start",
	mcp.WithDescription("Start or resume the countdown. Declines a pending catch-up offer."),
	mcp.WithIdempotentHintAnnotation(true),
)

var pauseToolDef = mcp.NewTool("timer_pause",
	mcp.WithDescription("Pause the countdown. Declines a pending catch-up offer."),
	mcp.WithIdempotentHintAnnotation(true),
)

var resetToolDef = mcp.NewTool("timer_reset",
	mcp.WithDescription("Pause and refill the current phase. With all=true, return to a fresh study cycle with zero completions."),
	mcp.WithBoolean("all", mcp.Description("Reset the whole cycle instead of the current phase")),
)

var switchToolDef = mcp.NewTool("timer_switch",
	mcp.WithDescription("Pause and switch to a phase at its full length."),
	mcp.WithString("phase",
		mcp.Required(),
		mcp.Description("Phase to switch to"),
		mcp.Enum("study", "short", "long"),
	),
)

var setToolDef = mcp.NewTool("timer_set",
	mcp.WithDescription("Pause and set the time left. Out-of-range values are clamped to 0..35999 seconds. Give either seconds or clock."),
	mcp.WithNumber("seconds", mcp.Description("Time left in seconds")),
	mcp.WithString("clock", mcp.Description("Time left as mm:ss or h:mm:ss")),
)

var catchupToolDef = mcp.NewTool("timer_catchup",
	mcp.WithDescription("Fast-forward a timer that was running when it was last saved by the time since then, crossing phases as needed."),
	mcp.WithBoolean("force", mcp.Description("Apply even when the time away is outside the catch-up window")),
)

var historyToolDef = mcp.NewTool("timer_history",
	mcp.WithDescription("List completed phases, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("phase", mcp.Description("Only this phase (study, short, long)")),
	mcp.WithBoolean("today", mcp.Description("Only entries since local midnight")),
	mcp.WithNumber("limit", mcp.Description("Max entries (default from config, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Entries to skip")),
)

var reportToolDef = mcp.NewTool("timer_report",
	mcp.WithDescription("Markdown summary of today's study sessions and breaks."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsToolDef = mcp.NewTool("timer_settings",
	mcp.WithDescription("Show phase lengths, or change them when any field is given. Changes are saved to settings.yaml."),
	mcp.WithNumber("study_seconds", mcp.Description("Study phase length in seconds")),
	mcp.WithNumber("short_break_seconds", mcp.Description("Short break length in seconds")),
	mcp.WithNumber("long_break_seconds", mcp.Description("Long break length in seconds")),
	mcp.WithNumber("long_break_interval", mcp.Description("Study sessions per long break")),
)
