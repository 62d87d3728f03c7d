package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/pomo/internal/config"
	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/mcp"
	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/persist"
	"github.com/hpungsan/pomo/internal/settings"
	"github.com/hpungsan/pomo/internal/tui"
	"github.com/hpungsan/pomo/internal/web"
)

// env carries what every command needs to open the timer.
type env struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, baseDir string) *cli.App {
	e := env{db: db, cfg: cfg, baseDir: baseDir}
	app := &cli.App{
		Name:    "pomo",
		Usage:   "Pomodoro timer that survives restarts",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timer", Aliases: []string{"t"}, Usage: "Timer name (overrides timer_name in config)"},
			&cli.StringFlag{Name: "state-file", Usage: "Keep the timer record in this JSON file instead of the database"},
			&cli.BoolFlag{Name: "ephemeral", Usage: "Do not read or write the timer record"},
		},
		Commands: []*cli.Command{
			statusCmd(e),
			startCmd(e),
			pauseCmd(e),
			resetCmd(e),
			switchCmd(e),
			setCmd(e),
			catchupCmd(e),
			settingsCmd(e),
			historyCmd(e),
			reportCmd(e),
			forgetCmd(e),
			timersCmd(e),
			runCmd(e),
			uiCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// statusCmd creates the status command.
func statusCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the timer and any pending catch-up",
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Status(c.Context, rt)
			})
		},
	}
}

// startCmd creates the start command.
func startCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the countdown (declines a pending catch-up)",
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Start(c.Context, rt)
			})
		},
	}
}

// pauseCmd creates the pause command.
func pauseCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "pause",
		Usage: "Pause the countdown",
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Pause(c.Context, rt)
			})
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Refill the current phase",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Start a fresh cycle: study, full, no completions"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Reset(c.Context, rt, ops.ResetInput{All: c.Bool("all")})
			})
		},
	}
}

// switchCmd creates the switch command.
func switchCmd(e env) *cli.Command {
	return &cli.Command{
		Name:      "switch",
		Usage:     "Switch to a full phase and pause",
		ArgsUsage: "<study|short|long>",
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Switch(c.Context, rt, ops.SwitchInput{Phase: c.Args().First()})
			})
		},
	}
}

// setCmd creates the set command.
func setCmd(e env) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the remaining time and pause",
		ArgsUsage: "<seconds|mm:ss|h:mm:ss>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("time argument is required"))
			}
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Set(c.Context, rt, ops.SetInput{Clock: c.Args().First()})
			})
		},
	}
}

// catchupCmd creates the catchup command.
func catchupCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "catchup",
		Usage: "Apply the time spent away to a timer that was running",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Apply even outside the catch-up window"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Catchup(c.Context, rt, ops.CatchupInput{Force: c.Bool("force")})
			})
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change phase lengths (seconds or mm:ss)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "study", Usage: "Study length"},
			&cli.StringFlag{Name: "short", Usage: "Short break length"},
			&cli.StringFlag{Name: "long", Usage: "Long break length"},
			&cli.IntFlag{Name: "interval", Usage: "Studies between long breaks"},
		},
		Action: func(c *cli.Context) error {
			patch, err := parseSettingsFlags(c)
			if err != nil {
				return outputError(err)
			}
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.UpdateSettings(c.Context, rt, patch)
			})
		},
	}
}

// historyCmd creates the history command.
func historyCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List completed phases, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phase", Aliases: []string{"p"}, Usage: "Filter by phase"},
			&cli.BoolFlag{Name: "today", Usage: "Only since local midnight"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.History(c.Context, rt, ops.HistoryInput{
					Phase:  c.String("phase"),
					Today:  c.Bool("today"),
					Limit:  c.Int("limit"),
					Offset: c.Int("offset"),
				})
			})
		},
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write this timer's history to a JSONL file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Output file (default: <base>/exports/<timer>-<timestamp>.jsonl)"},
				},
				Action: func(c *cli.Context) error {
					return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
						return ops.ExportHistory(c.Context, rt, ops.ExportInput{Path: c.String("path")})
					})
				},
			},
			{
				Name:  "import",
				Usage: "Load history from a JSONL export into this timer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Required: true, Usage: "Export file to read"},
					&cli.StringFlag{Name: "mode", Value: "error", Usage: "On problems: error (import nothing) or skip"},
				},
				Action: func(c *cli.Context) error {
					return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
						return ops.ImportHistory(c.Context, rt, ops.ImportInput{
							Path: c.String("path"),
							Mode: ops.ImportMode(c.String("mode")),
						})
					})
				},
			},
		},
	}
}

// reportCmd creates the report command.
func reportCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Summarize today's completions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the markdown report instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("markdown") {
				return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
					return ops.Report(c.Context, rt)
				})
			}

			rt, err := openRuntime(c, e)
			if err != nil {
				return outputError(err)
			}
			out, err := ops.Report(c.Context, rt)
			closeErr := rt.Close(c.Context)
			if err != nil {
				return outputError(err)
			}
			if closeErr != nil {
				return outputError(errors.NewInternal(closeErr))
			}
			_, err = fmt.Fprint(os.Stdout, out.Markdown)
			return err
		},
	}
}

// forgetCmd creates the forget command.
func forgetCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "forget",
		Usage: "Reset the timer to a fresh cycle and drop any pending catch-up",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "history", Usage: "Also delete this timer's phase history"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, e, func(rt *ops.Runtime) (any, error) {
				return ops.Forget(c.Context, rt, ops.ForgetInput{History: c.Bool("history")})
			})
		},
	}
}

// timersCmd creates the timers command.
func timersCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "timers",
		Usage: "List stored timers",
		Action: func(c *cli.Context) error {
			output, err := ops.Timers(c.Context, e.db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
		Subcommands: []*cli.Command{
			{
				Name:      "rm",
				Usage:     "Delete a stored timer and its history",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					output, err := ops.RemoveTimer(c.Context, e.db, ops.RemoveTimerInput{Name: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// runCmd creates the run command (terminal timer).
func runCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the timer in the terminal",
		Action: func(c *cli.Context) error {
			return serve(c, e, func(rt *ops.Runtime) error {
				return tui.Run(rt)
			})
		},
	}
}

// uiCmd creates the ui command (web UI).
func uiCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the timer over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 7878, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			return serve(c, e, func(rt *ops.Runtime) error {
				return web.Run(web.NewServer(rt, Version, c.String("bind"), c.Int("port")))
			})
		},
	}
}

// mcpCmd creates the mcp command (stdio MCP server).
func mcpCmd(e env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve timer tools over MCP stdio (default when stdin is piped)",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
				log.Printf("config: unknown disabled_tools %v", unknown)
			}
			return serve(c, e, func(rt *ops.Runtime) error {
				return mcp.Run(rt, Version)
			})
		},
	}
}

// Helper functions

// openRuntime hydrates the timer selected by the global flags.
func openRuntime(c *cli.Context, e env) (*ops.Runtime, error) {
	if e.db == nil {
		return nil, errors.NewInvalidRequest("database is not initialized")
	}

	cfg := e.cfg
	if name := c.String("timer"); name != "" {
		overlay := *cfg
		overlay.TimerName = name
		cfg = &overlay
	}

	opts := ops.Options{BaseDir: e.baseDir}
	switch {
	case c.Bool("ephemeral"):
		opts.Store = persist.NewMemoryStore(nil)
	case c.String("state-file") != "":
		opts.Store = persist.FileStore{Path: c.String("state-file")}
	}
	return ops.Open(c.Context, e.db, cfg, opts)
}

// withRuntime runs a one-shot command: hydrate, apply, write back if
// anything changed, print the result.
func withRuntime(c *cli.Context, e env, fn func(rt *ops.Runtime) (any, error)) error {
	rt, err := openRuntime(c, e)
	if err != nil {
		return outputError(err)
	}

	output, err := fn(rt)
	closeErr := rt.Close(c.Context)
	if err != nil {
		return outputError(err)
	}
	if closeErr != nil {
		return outputError(errors.NewInternal(closeErr))
	}
	return outputJSON(output)
}

// serve runs a long-lived surface. SIGHUP and friends force a write while it
// runs; the final state is written when it returns.
func serve(c *cli.Context, e env, fn func(rt *ops.Runtime) error) error {
	rt, err := openRuntime(c, e)
	if err != nil {
		return outputError(err)
	}
	stop := persist.FlushOnSignal(rt.Persister(), nil)
	defer stop()

	runErr := fn(rt)
	if err := rt.Close(c.Context); err != nil {
		log.Printf("persist: final write: %v", err)
	}
	return runErr
}

// parseSettingsFlags builds a settings patch from the set flags only.
func parseSettingsFlags(c *cli.Context) (settings.Patch, error) {
	var patch settings.Patch
	lengths := []struct {
		flag  string
		value **int
	}{
		{"study", &patch.StudySeconds},
		{"short", &patch.ShortBreakSeconds},
		{"long", &patch.LongBreakSeconds},
	}
	for _, l := range lengths {
		if !c.IsSet(l.flag) {
			continue
		}
		seconds, err := ops.ParseClock(c.String(l.flag))
		if err != nil {
			return settings.Patch{}, err
		}
		*l.value = &seconds
	}
	if c.IsSet("interval") {
		interval := c.Int("interval")
		patch.LongBreakInterval = &interval
	}
	return patch, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pomoErr *errors.PomoError
	if stderrors.As(err, &pomoErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pomoErr.Code, pomoErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
