package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// TimerName selects the persisted timer. Each name has its own record and
	// history, so a repo-level config can keep a separate timer per project.
	TimerName string `json:"timer_name,omitempty"`

	// WriteIntervalMs throttles change-driven state writes. 0 writes every
	// change. Forced flushes (exit, signals) always write.
	WriteIntervalMs int `json:"write_interval_ms,omitempty"`

	// CatchupMinSeconds and CatchupMaxSeconds bound the away gap that earns a
	// catch-up offer on startup.
	CatchupMinSeconds int `json:"catchup_min_seconds,omitempty"`
	CatchupMaxSeconds int `json:"catchup_max_seconds,omitempty"`

	// HistoryLimit is the default number of entries returned by history.
	HistoryLimit int `json:"history_limit,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// AllowedPaths are extra absolute directories that history export and
	// import may use, besides <base>/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TimerName:         "default",
		CatchupMinSeconds: 10,
		CatchupMaxSeconds: 600,
		HistoryLimit:      50,
	}
}

// WriteInterval returns WriteIntervalMs as a duration.
func (c *Config) WriteInterval() time.Duration {
	if c.WriteIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.WriteIntervalMs) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pomo.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.pomo) and repo (.pomo) directories.
// Repo config is found by walking upward from startDir to find the nearest .pomo/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .pomo/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".pomo", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.TimerName = strings.TrimSpace(overlay.TimerName)
	if result.TimerName == "" {
		result.TimerName = base.TimerName
	}
	result.WriteIntervalMs = mergeInt(base.WriteIntervalMs, overlay.WriteIntervalMs)
	result.CatchupMinSeconds = mergeInt(base.CatchupMinSeconds, overlay.CatchupMinSeconds)
	result.CatchupMaxSeconds = mergeInt(base.CatchupMaxSeconds, overlay.CatchupMaxSeconds)
	result.HistoryLimit = mergeInt(base.HistoryLimit, overlay.HistoryLimit)
	result.DBMaxOpenConns = mergeInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = mergeInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

func mergeInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
