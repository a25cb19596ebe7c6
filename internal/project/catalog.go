// Package project handles persistence: catalog fixtures, lot inventories,
// parked transformation sessions and full data backups, all as JSON files
// under the application directory.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkovalev/steelyard/internal/model"
)

// DefaultConfigDir returns the application data directory, ~/.steelyard.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".steelyard"), nil
}

// DefaultCatalogPath returns the default file path for the catalog file.
// This is located at ~/.steelyard/catalog.json.
func DefaultCatalogPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.json"), nil
}

// SaveCatalog writes the catalog standards to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, catalog *model.StandardCollection) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(catalog.Items(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalog reads a catalog from the specified JSON file.
func LoadCatalog(path string) (*model.StandardCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var standards []*model.Standard
	if err := json.Unmarshal(data, &standards); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return model.NewStandardCollection(standards), nil
}
