// Package snapshot persists the scanner's output as a flat JSON file and
// loads it back for the publish phase. The file is the only hand-off
// artifact between the two phases.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"backoffice-republisher/internal/module"
)

// Save writes records as a JSON array with two-space indentation. The file
// is replaced atomically (temp file + rename) so a crash mid-write never
// leaves a truncated snapshot behind.
func Save(path string, records []module.Record) error {
	if records == nil {
		records = []module.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file back into an ordered record list.
func Load(path string) ([]module.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records []module.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return records, nil
}
