package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/timitprog-hue/buildplan/internal/models"
)

// WriteFile atomically writes a plan to path using a temp-file-then-rename
// pattern, so a packager reading the plan never sees a partial write.
//
// If any step fails the temp file is removed and the previous plan file,
// if any, is left untouched.
func WriteFile(path string, p *models.BuildPlan, format Format) error {
	data, err := Marshal(p, format)
	if err != nil {
		return err
	}

	// Temp file must live in the target directory for rename to be atomic
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".buildplan.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		// Still present means we bailed out before the rename
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %q: %w", path, err)
	}

	return nil
}

// ReadFile loads a plan written by WriteFile, using the extension to pick the format
func ReadFile(path string) (*models.BuildPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %q: %w", path, err)
	}
	return Decode(data, FormatForPath(path))
}
