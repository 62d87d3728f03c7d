package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/pomo/internal/config"
	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/history"
	"github.com/hpungsan/pomo/internal/ops"
	"github.com/hpungsan/pomo/internal/timer"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, tmpDir
}

// runCLI runs one command like a separate process invocation and returns
// what it printed to stdout.
func runCLI(t *testing.T, database *sql.DB, baseDir string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, config.DefaultConfig(), baseDir)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"pomo"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func mustRunCLI(t *testing.T, database *sql.DB, baseDir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, database, baseDir, args...)
	if err != nil {
		t.Fatalf("pomo %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func parseView(t *testing.T, out string) ops.TimerView {
	t.Helper()
	var view ops.TimerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, out)
	}
	return view
}

func TestCLIStatus(t *testing.T) {
	database, dir := setupTestDB(t)

	view := parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.Phase != "study" || view.SecondsRemaining != 1500 || view.IsRunning {
		t.Errorf("status = %+v, want fresh paused study", view)
	}
	if view.Catchup != nil {
		t.Errorf("catchup = %+v, want none", view.Catchup)
	}

	// Read-only commands write nothing.
	record, err := db.GetState(context.Background(), database, "default")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if record != nil {
		t.Errorf("record = %s, want none after status", record)
	}
}

func TestCLIStartKeepsRunningAcrossProcesses(t *testing.T) {
	database, dir := setupTestDB(t)

	view := parseView(t, mustRunCLI(t, database, dir, "start"))
	if !view.IsRunning {
		t.Fatal("expected running after start")
	}

	record, _ := db.GetState(context.Background(), database, "default")
	if !strings.Contains(string(record), `"running":true`) {
		t.Errorf("record = %s, want running", record)
	}

	// The next process sees a running record and offers catch-up.
	view = parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.IsRunning {
		t.Error("hydrated timer should start paused")
	}
	if view.Catchup == nil {
		t.Fatal("expected a catch-up offer")
	}
	if view.Catchup.Offered {
		t.Error("a gap under the minimum should not be offered")
	}

	// Status left the record alone.
	record, _ = db.GetState(context.Background(), database, "default")
	if !strings.Contains(string(record), `"running":true`) {
		t.Errorf("record = %s, want still running", record)
	}

	if _, err := runCLI(t, database, dir, "catchup"); err == nil || !strings.Contains(err.Error(), "[CATCHUP_NOT_OFFERED]") {
		t.Errorf("catchup error = %v, want CATCHUP_NOT_OFFERED", err)
	}

	var caught ops.CatchupOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "catchup", "--force")), &caught); err != nil {
		t.Fatalf("failed to parse catchup output: %v", err)
	}
	if !caught.Timer.IsRunning {
		t.Error("expected running after forced catch-up")
	}
	if caught.Transitions != 0 {
		t.Errorf("transitions = %d, want 0", caught.Transitions)
	}
}

func TestCLIPauseDeclinesCatchup(t *testing.T) {
	database, dir := setupTestDB(t)
	mustRunCLI(t, database, dir, "start")

	view := parseView(t, mustRunCLI(t, database, dir, "pause"))
	if view.IsRunning || view.Catchup != nil {
		t.Errorf("pause = %+v, want paused with no offer", view)
	}

	view = parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.Catchup != nil {
		t.Error("a paused record should not offer catch-up")
	}
}

func TestCLISwitchAndSet(t *testing.T) {
	database, dir := setupTestDB(t)

	view := parseView(t, mustRunCLI(t, database, dir, "switch", "short"))
	if view.Phase != "shortBreak" || view.SecondsRemaining != 300 {
		t.Errorf("switch = %+v, want short break at 300", view)
	}

	view = parseView(t, mustRunCLI(t, database, dir, "set", "2:30"))
	if view.SecondsRemaining != 150 {
		t.Errorf("seconds = %d, want 150", view.SecondsRemaining)
	}

	view = parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.Phase != "shortBreak" || view.SecondsRemaining != 150 {
		t.Errorf("status = %+v, want the switched and set state", view)
	}

	view = parseView(t, mustRunCLI(t, database, dir, "reset", "--all"))
	if view.Phase != "study" || view.SecondsRemaining != 1500 {
		t.Errorf("reset --all = %+v, want fresh study", view)
	}
}

func TestCLIErrors(t *testing.T) {
	database, dir := setupTestDB(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown phase", []string{"switch", "nap"}, "[INVALID_PHASE]"},
		{"missing phase", []string{"switch"}, "[INVALID_REQUEST]"},
		{"missing time", []string{"set"}, "[INVALID_REQUEST]"},
		{"bad time", []string{"set", "soon"}, "[INVALID_REQUEST]"},
		{"bad setting", []string{"settings", "--study", "0"}, "[INVALID_REQUEST]"},
		{"bad phase filter", []string{"history", "--phase", "nap"}, "[INVALID_PHASE]"},
		{"remove unknown timer", []string{"timers", "rm", "ghost"}, "[NOT_FOUND]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, database, dir, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %s", err.Error(), tt.want)
			}
		})
	}
}

func TestCLISettings(t *testing.T) {
	database, dir := setupTestDB(t)

	var out ops.SettingsOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "settings", "--study", "50:00", "--interval", "2")), &out); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if out.Durations.Study != 3000 || out.Durations.LongBreakInterval != 2 {
		t.Errorf("durations = %+v, want study 3000 and interval 2", out.Durations)
	}
	if !out.Saved {
		t.Error("expected settings to be saved")
	}

	// A later process picks the new lengths up from settings.yaml.
	view := parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.SecondsRemaining != 3000 {
		t.Errorf("seconds = %d, want 3000", view.SecondsRemaining)
	}
}

func TestCLIHistoryAndReport(t *testing.T) {
	database, dir := setupTestDB(t)

	var history ops.HistoryOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "history", "--today")), &history); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(history.Items) != 0 || history.Pagination.Total != 0 {
		t.Errorf("history = %+v, want empty", history)
	}

	md := mustRunCLI(t, database, dir, "report", "--markdown")
	if !strings.HasPrefix(md, "# default:") {
		t.Errorf("report = %q, want markdown heading", md)
	}
	if !strings.Contains(md, "Nothing completed yet today") {
		t.Errorf("report = %q, want empty-day note", md)
	}
}

func TestCLIHistoryExportImport(t *testing.T) {
	database, dir := setupTestDB(t)
	entry := history.FromTick("default", timer.PhaseStudy, timer.DefaultDurations(), time.Now())
	if err := db.InsertEntries(context.Background(), database, []history.Entry{entry}); err != nil {
		t.Fatalf("InsertEntries() error = %v", err)
	}

	var exported ops.ExportOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "history", "export")), &exported); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if exported.Count != 1 || filepath.Dir(exported.Path) != filepath.Join(dir, "exports") {
		t.Fatalf("export = %+v, want one entry under exports", exported)
	}

	var imported ops.ImportOutput
	out := mustRunCLI(t, database, dir, "--timer", "archive", "history", "import", "--path", exported.Path)
	if err := json.Unmarshal([]byte(out), &imported); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if imported.Imported != 1 || imported.Timer != "archive" {
		t.Errorf("import = %+v, want one entry into archive", imported)
	}

	_, err := runCLI(t, database, dir, "history", "import", "--path", "/tmp/elsewhere.jsonl")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("import outside exports error = %v, want INVALID_REQUEST", err)
	}
}

func TestCLIForget(t *testing.T) {
	database, dir := setupTestDB(t)
	mustRunCLI(t, database, dir, "switch", "long")
	mustRunCLI(t, database, dir, "start")

	var out ops.ForgetOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "forget", "--history")), &out); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if out.Timer.Phase != "study" || out.Timer.Catchup != nil {
		t.Errorf("forget = %+v, want fresh study without offer", out.Timer)
	}

	record, _ := db.GetState(context.Background(), database, "default")
	if !strings.Contains(string(record), `"tab":"study"`) || strings.Contains(string(record), `"running":true`) {
		t.Errorf("record = %s, want fresh paused study", record)
	}
}

func TestCLITimerNames(t *testing.T) {
	database, dir := setupTestDB(t)
	mustRunCLI(t, database, dir, "--timer", "work", "switch", "long")
	mustRunCLI(t, database, dir, "switch", "short")

	view := parseView(t, mustRunCLI(t, database, dir, "--timer", "work", "status"))
	if view.Timer != "work" || view.Phase != "longBreak" {
		t.Errorf("work = %+v, want long break", view)
	}

	var timers ops.TimersOutput
	if err := json.Unmarshal([]byte(mustRunCLI(t, database, dir, "timers")), &timers); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(timers.Timers) != 2 {
		t.Errorf("timers = %+v, want 2", timers.Timers)
	}

	mustRunCLI(t, database, dir, "timers", "rm", "work")
	view = parseView(t, mustRunCLI(t, database, dir, "--timer", "work", "status"))
	if view.Phase != "study" {
		t.Errorf("removed timer phase = %s, want fresh study", view.Phase)
	}
}

func TestCLIStateFile(t *testing.T) {
	database, dir := setupTestDB(t)
	statePath := filepath.Join(dir, "state.json")

	mustRunCLI(t, database, dir, "--state-file", statePath, "switch", "short")

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}
	if !strings.Contains(string(data), `"tab":"short"`) {
		t.Errorf("state file = %s, want short tab", data)
	}

	record, _ := db.GetState(context.Background(), database, "default")
	if record != nil {
		t.Errorf("database record = %s, want none", record)
	}

	view := parseView(t, mustRunCLI(t, database, dir, "--state-file", statePath, "status"))
	if view.Phase != "shortBreak" {
		t.Errorf("phase = %s, want shortBreak", view.Phase)
	}
}

func TestCLIEphemeral(t *testing.T) {
	database, dir := setupTestDB(t)

	mustRunCLI(t, database, dir, "--ephemeral", "start")

	view := parseView(t, mustRunCLI(t, database, dir, "status"))
	if view.Catchup != nil || view.IsRunning {
		t.Errorf("status = %+v, want untouched default", view)
	}
}

func TestCLIModeDetection(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"pomo"}, false},
		{[]string{"pomo", "status"}, true},
		{[]string{"pomo", "--timer", "work", "start"}, true},
		{[]string{"pomo", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
