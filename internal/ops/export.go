package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
)

// ExportSchemaVersion is written into every export header.
const ExportSchemaVersion = "1"

const exportPageSize = 500

// ExportInput contains parameters for the ExportHistory operation.
type ExportInput struct {
	Path string // optional, default: <base>/exports/<timer>-<timestamp>.jsonl
}

// ExportOutput contains the result of the ExportHistory operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a history export.
type ExportHeader struct {
	PomoExport    bool   `json:"_pomo_export"`
	SchemaVersion string `json:"schema_version"`
	Timer         string `json:"timer"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportHistory writes the timer's phase log to a JSONL file: a header line
// followed by one entry per line, newest first. The file is written to a temp
// name and renamed into place so an existing export survives a failure.
func ExportHistory(ctx context.Context, r *Runtime, input ExportInput) (*ExportOutput, error) {
	now := r.now()

	exportPath := input.Path
	if exportPath == "" {
		if r.baseDir == "" {
			return nil, errors.NewInvalidRequest("path is required")
		}
		name := fmt.Sprintf("%s-%s.jsonl", SanitizeForFilename(r.Name), now.Format("2006-01-02T150405"))
		exportPath = filepath.Join(ExportsDir(r.baseDir), name)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, r.transferDirs()); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0o700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create export directory: %w", err))
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(suffix) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	header := ExportHeader{
		PomoExport:    true,
		SchemaVersion: ExportSchemaVersion,
		Timer:         r.Name,
		ExportedAt:    now.Unix(),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for offset := 0; ; offset += exportPageSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("export cancelled: %w", err))
		}
		page, total, err := db.ListEntries(ctx, r.DB, r.Name, db.ListFilters{}, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, e := range page {
			if err := enc.Encode(e); err != nil {
				return nil, errors.NewInternal(err)
			}
			count++
		}
		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}
	// Windows refuses to rename over an existing file; keep the old one.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: header.ExportedAt,
	}, nil
}

// transferDirs lists the directories export and import may touch.
func (r *Runtime) transferDirs() []string {
	var dirs []string
	if r.baseDir != "" {
		dirs = append(dirs, ExportsDir(r.baseDir))
	}
	return append(dirs, r.Config.AllowedPaths...)
}
