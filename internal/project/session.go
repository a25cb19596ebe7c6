package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkovalev/steelyard/internal/engine"
	"github.com/dkovalev/steelyard/internal/model"
)

// DefaultSessionPath returns the default file path for a parked session.
// This is located at ~/.steelyard/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// SaveSession snapshots the session and writes it to the specified JSON file,
// so an unfinished transformation can be resumed later.
func SaveSession(path string, session *engine.Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session.State(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSession reads a session snapshot from the specified JSON file and
// rebuilds a live session against the given catalog.
func LoadSession(path string, catalog *model.StandardCollection) (*engine.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state engine.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return engine.RestoreSession(catalog, state), nil
}

// DeleteSession removes a parked session file. Missing files are not an error.
func DeleteSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
