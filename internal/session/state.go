package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// loadControls reads persisted controls from a JSON file. found is false
// when the file does not exist.
func loadControls(filePath string) (Controls, bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Controls{}, false, nil
		}
		return Controls{}, false, fmt.Errorf("read session state: %w", err)
	}
	var c Controls
	if err := json.Unmarshal(data, &c); err != nil {
		return Controls{}, false, fmt.Errorf("parse session state: %w", err)
	}
	return c, true, nil
}

// saveControls writes controls to a JSON file, creating parent directories
// as needed.
func saveControls(filePath string, c Controls) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create session state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
