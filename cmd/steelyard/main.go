// Package main provides the steelyard binary entry point.
// Steelyard transforms steel material lots — cutting piles to length,
// composing joined and angular assemblies — and exports reports, labels
// and submission payloads for the produced material.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkovalev/steelyard/internal/config"
	"github.com/dkovalev/steelyard/internal/model"
	"github.com/dkovalev/steelyard/internal/project"
)

const (
	Version = "0.1.0"
	appName = "steelyard"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// appEnv bundles the loaded configuration and data files every subcommand
// operates on.
type appEnv struct {
	cfg       config.Config
	catalog   *model.StandardCollection
	inventory *model.LotCollection

	catalogPath   string
	inventoryPath string
	sessionPath   string
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Steel material lot transformation engine",
		Long: `Steelyard tracks lots of steel material against a catalog of standards
and applies transformations to them: cutting piles and sheets to size,
joining lots into composite standards, and composing angular assemblies.

Every transformation keeps provenance, supports undo, and can be exported
as a submission payload, PDF report, QR labels or a cut diagram.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		versionCmd(),
		catalogCmd(&configPath),
		inventoryCmd(&configPath),
		cutCmd(&configPath),
		joinCmd(&configPath),
		angleCmd(&configPath),
		sessionCmd(&configPath),
		exportCmd(&configPath),
		backupCmd(&configPath),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	}
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnv resolves paths from flags, config file and defaults, then loads
// the catalog and inventory.
func loadEnv(configPath string) (*appEnv, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env := &appEnv{cfg: cfg}

	env.catalogPath = cfg.Paths.Catalog
	if env.catalogPath == "" {
		if env.catalogPath, err = project.DefaultCatalogPath(); err != nil {
			return nil, err
		}
	}
	env.inventoryPath = cfg.Paths.Inventory
	if env.inventoryPath == "" {
		if env.inventoryPath, err = project.DefaultInventoryPath(); err != nil {
			return nil, err
		}
	}
	env.sessionPath = cfg.Paths.Session
	if env.sessionPath == "" {
		if env.sessionPath, err = project.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}

	env.catalog, err = project.LoadCatalog(env.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", env.catalogPath, err)
	}
	env.inventory, err = project.LoadInventory(env.inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("load inventory %s: %w", env.inventoryPath, err)
	}
	slog.Debug("environment loaded",
		"catalog", env.catalogPath,
		"standards", env.catalog.Len(),
		"inventory", env.inventoryPath,
		"lots", env.inventory.Len())
	return env, nil
}

func (e *appEnv) saveInventory() error {
	return project.SaveInventory(e.inventoryPath, e.inventory)
}

// findLotIn resolves a lot reference within a collection: a full uuid, a
// unique uuid prefix, or a numeric lot id.
func findLotIn(lots *model.LotCollection, ref string) (*model.Lot, error) {
	if lot := lots.ByUUID(ref); lot != nil {
		return lot, nil
	}
	var matches []*model.Lot
	for _, lot := range lots.Items() {
		if strings.HasPrefix(lot.UUID, ref) || fmt.Sprintf("%d", lot.ID) == ref {
			matches = append(matches, lot)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("no lot matches %q", ref)
	default:
		return nil, fmt.Errorf("lot reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}
