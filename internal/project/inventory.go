package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkovalev/steelyard/internal/model"
)

// DefaultInventoryPath returns the default file path for the inventory file.
// This is located at ~/.steelyard/inventory.json.
func DefaultInventoryPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "inventory.json"), nil
}

// SaveInventory writes the lot inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, lots *model.LotCollection) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lots.Items(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads a lot inventory from the specified JSON file.
// If the file does not exist, it returns an empty inventory and saves it.
func LoadInventory(path string) (*model.LotCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lots := model.NewLotCollection()
			if saveErr := SaveInventory(path, lots); saveErr != nil {
				return lots, saveErr
			}
			return lots, nil
		}
		return nil, err
	}
	var items []*model.Lot
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse inventory file: %w", err)
	}
	return model.NewLotCollection(items...), nil
}

// LoadOrCreateInventory loads the inventory from the default path.
// If the file does not exist, it creates an empty one.
func LoadOrCreateInventory() (*model.LotCollection, string, error) {
	path, err := DefaultInventoryPath()
	if err != nil {
		return model.NewLotCollection(), "", err
	}
	lots, err := LoadInventory(path)
	return lots, path, err
}

// ExportInventory exports the inventory to a user-specified JSON file.
func ExportInventory(path string, lots *model.LotCollection) error {
	return SaveInventory(path, lots)
}

// ImportInventory imports lots from a user-specified JSON file, merging them
// into the existing inventory. Lots whose uuid is already present are skipped,
// so re-importing the same file is a no-op.
func ImportInventory(path string, existing *model.LotCollection) (*model.LotCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported []*model.Lot
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, fmt.Errorf("failed to parse inventory file: %w", err)
	}

	seen := make(map[string]bool, len(existing.Items()))
	for _, lot := range existing.Items() {
		seen[lot.UUID] = true
	}

	merged := existing
	for _, lot := range imported {
		if lot.UUID == "" || seen[lot.UUID] {
			continue
		}
		merged.Add(lot)
		seen[lot.UUID] = true
	}
	return merged, nil
}
