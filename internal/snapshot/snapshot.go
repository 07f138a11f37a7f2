// Package snapshot keeps the raw contract payloads of a run on disk next to
// the report.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the snapshot name for a financial year.
func FileName(finYear int) string {
	return fmt.Sprintf("contracts_raw_%d.json", finYear)
}

// Write stores payload as indented JSON in dir, replacing any earlier
// snapshot of the same year. It returns the written path.
func Write(dir string, finYear int, payload any) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(dir, FileName(finYear))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
