package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
)

// ImportMode controls what happens when an imported id already exists.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // fail on any problem, import nothing
	ImportModeSkip  ImportMode = "skip"  // import what is new, report the rest
)

// ImportInput contains parameters for the ImportHistory operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the ImportHistory operation.
type ImportOutput struct {
	Timer    string        `json:"timer"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// exportLine is either the header or an entry.
type exportLine struct {
	PomoExport bool `json:"_pomo_export"`
	history.Entry
}

type parsedEntry struct {
	line  int
	entry history.Entry
}

// ImportHistory loads a JSONL export into this timer's phase log. Entries
// exported from another timer are copied under ids derived from their source
// id (history.CopyID), so an export can be imported into a second timer of the
// same database. Entries from this timer keep their ids, and re-importing
// either kind reports a collision.
func ImportHistory(ctx context.Context, r *Runtime, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, r.transferDirs()); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("open import file: %w", err))
	}
	defer file.Close()

	parsed, problems := parseExport(file, r.Name)
	out := &ImportOutput{Timer: r.Name, Errors: []ImportError{}}

	if input.Mode == ImportModeError {
		if len(problems) > 0 {
			out.Errors = problems
			return out, nil
		}
		for _, p := range parsed {
			exists, err := db.HasEntry(ctx, r.DB, p.entry.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				out.Errors = append(out.Errors, ImportError{
					Line:    p.line,
					ID:      p.entry.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("entry %q already exists", p.entry.ID),
				})
				return out, nil
			}
		}
		if err := db.InsertEntries(ctx, r.DB, entriesOf(parsed)); err != nil {
			return nil, err
		}
		out.Imported = len(parsed)
		return out, nil
	}

	inserted, err := db.InsertEntriesSkipExisting(ctx, r.DB, entriesOf(parsed))
	if err != nil {
		return nil, err
	}
	out.Imported = inserted
	out.Skipped = len(problems) + len(parsed) - inserted
	out.Errors = problems
	return out, nil
}

// parseExport reads entries from an export stream, assigning them to
// timerName. The header line is skipped.
func parseExport(r io.Reader, timerName string) ([]parsedEntry, []ImportError) {
	var (
		parsed   []parsedEntry
		problems []ImportError
	)

	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line exportLine
		if err := json.Unmarshal(raw, &line); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if line.PomoExport {
			continue
		}

		entry := line.Entry
		if entry.Timer != timerName && entry.ID != "" {
			entry.ID = history.CopyID(entry.ID, timerName, entry.Completed())
		}
		entry.Timer = timerName
		if entry.Via == "" {
			entry.Via = history.ViaTick
		}
		if err := entry.Validate(); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				ID:      entry.ID,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		if seen[entry.ID] {
			problems = append(problems, ImportError{
				Line:    lineNum,
				ID:      entry.ID,
				Code:    "DUPLICATE_ID",
				Message: fmt.Sprintf("entry %q appears more than once", entry.ID),
			})
			continue
		}
		seen[entry.ID] = true
		parsed = append(parsed, parsedEntry{line: lineNum, entry: entry})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("read file: %v", err),
		})
	}
	return parsed, problems
}

func entriesOf(parsed []parsedEntry) []history.Entry {
	entries := make([]history.Entry, len(parsed))
	for i, p := range parsed {
		entries[i] = p.entry
	}
	return entries
}
