package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkovalev/steelyard/internal/engine"
	"github.com/dkovalev/steelyard/internal/export"
	"github.com/dkovalev/steelyard/internal/importer"
	"github.com/dkovalev/steelyard/internal/model"
	"github.com/dkovalev/steelyard/internal/project"
)

func catalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog standards",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			for _, std := range env.catalog.Items() {
				fixed := " "
				if std.Type.FixedQuantity {
					fixed = "F"
				}
				fmt.Printf("%4d  %s  %s\n", std.ID, fixed, std.DisplayName())
			}
			return nil
		},
	}
}

func inventoryCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the lot inventory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all lots",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			printLots(env.inventory)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import lots from a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			var result importer.ImportResult
			if isExcelFile(args[0]) {
				result = importer.ImportExcel(args[0], env.catalog)
			} else {
				result = importer.ImportCSV(args[0], env.catalog)
			}
			for _, warning := range result.Warnings {
				slog.Warn("import", "warning", warning)
			}
			for _, importErr := range result.Errors {
				slog.Error("import", "error", importErr)
			}
			if result.Lots.Len() == 0 {
				return fmt.Errorf("no lots imported from %s", args[0])
			}
			for _, lot := range result.Lots.Items() {
				env.inventory.Add(lot)
			}
			if err := env.saveInventory(); err != nil {
				return err
			}
			slog.Info("lots imported", "file", args[0], "count", result.Lots.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the inventory to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			if err := export.ExportXLSX(args[0], env.inventory); err != nil {
				return err
			}
			slog.Info("inventory exported", "file", args[0])
			return nil
		},
	})

	return cmd
}

func cutCmd(configPath *string) *cobra.Command {
	var (
		volume float64
		amount float64
		equal  bool
	)
	cmd := &cobra.Command{
		Use:   "cut <lot>",
		Short: "Cut pieces from a lot",
		Long: `Cut extracts pieces of the given size from a lot. The lot may be
referenced by uuid, unique uuid prefix or numeric id.

By default the cut extracts --amount pieces of --volume each, drawing as
few whole units as needed and keeping the offcuts. With --equal the cut
instead trims --amount whole units down to exactly --volume each.

The operation is staged in the current session; use "session submit" to
commit it to the inventory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			session, err := loadOrCreateSession(env, engine.KindCut)
			if err != nil {
				return err
			}
			lot, err := findLotIn(session.Source(), args[0])
			if err != nil {
				return err
			}
			cutType := engine.CutStandard
			if equal {
				cutType = engine.CutEqual
			}
			if !engine.IsValidCut(lot, volume, amount, cutType) {
				max := engine.MaxPossibleAmount(lot, volume, cutType)
				return fmt.Errorf("cannot cut %g x %g from lot %s (max amount for this size: %g)", volume, amount, lot.UUID[:8], max)
			}
			if err := session.ApplyCut(lot.UUID, volume, amount, cutType); err != nil {
				return err
			}
			if err := project.SaveSession(env.sessionPath, session); err != nil {
				return err
			}
			slog.Info("cut applied", "lot", lot.UUID[:8], "volume", volume, "amount", amount, "type", string(cutType))
			printLots(session.Selected())
			return nil
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", 0, "Size of each piece (required)")
	cmd.Flags().Float64Var(&amount, "amount", 1, "Number of pieces")
	cmd.Flags().BoolVar(&equal, "equal", false, "Trim whole units to size instead of extracting pieces")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func joinCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <lot> [<lot>...]",
		Short: "Join lots into their joined standard",
		Long: `Join merges same-standard pile lots into the catalog's joined
counterpart standard. All given lots are staged and the merged result is
computed; use "session submit" to commit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return composeRun(*configPath, engine.KindJoin, args)
		},
	}
}

func angleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "angle <pile> [<element>]",
		Short: "Compose an angular assembly from a pile lot",
		Long: `Angle composes a pile lot, optionally with an angular element lot,
into the catalog's angular standard. Use "session submit" to commit.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return composeRun(*configPath, engine.KindAngle, args)
		},
	}
}

func composeRun(configPath string, kind engine.Kind, refs []string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	session, err := loadOrCreateSession(env, kind)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		lot, err := findLotIn(session.Source(), ref)
		if err != nil {
			return err
		}
		if err := session.AddToSelection(lot.UUID); err != nil {
			return fmt.Errorf("add lot %s: %w", lot.UUID[:8], err)
		}
	}
	result, err := session.Confirm()
	if err != nil {
		return err
	}
	if err := project.SaveSession(env.sessionPath, session); err != nil {
		return err
	}
	slog.Info("composed", "kind", kind.String(), "standard", result.Standard.ID,
		"quantity", result.Quantity, "amount", result.Amount)
	printLots(session.Result())
	return nil
}

func sessionCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and control the current transformation session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the session's staged lots",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			fmt.Printf("Session: %s\n\nStaged:\n", session.Kind())
			printLots(session.Selected())
			if session.Result().Len() > 0 {
				fmt.Println("\nResult:")
				printLots(session.Result())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "undo <piece>",
		Short: "Undo the cut operation a piece belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			piece, err := findLotIn(session.Selected(), args[0])
			if err != nil {
				return err
			}
			if err := session.UndoCutOperation(piece.UUID); err != nil {
				return err
			}
			if err := project.SaveSession(env.sessionPath, session); err != nil {
				return err
			}
			slog.Info("cut undone", "piece", piece.UUID[:8])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Discard all staged transformations",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			if err := project.DeleteSession(env.sessionPath); err != nil {
				return err
			}
			slog.Info("session discarded")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Print the submission payload and commit the session to the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			if env.cfg.Session.ProjectObjectID != 0 {
				session.ToProjectObjectID = env.cfg.Session.ProjectObjectID
			}
			if env.cfg.Session.ResponsibleUserID != 0 {
				session.ToResponsibleUserID = env.cfg.Session.ResponsibleUserID
			}
			payload := session.Submission()
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))

			if err := commitSession(env, session); err != nil {
				return err
			}
			if err := project.DeleteSession(env.sessionPath); err != nil {
				return err
			}
			slog.Info("session committed", "kind", session.Kind().String())
			return nil
		},
	})

	return cmd
}

// commitSession writes the session's outcome back to the inventory file:
// the drawn-down source lots replace their originals, and produced lots
// are appended as new inventory records.
func commitSession(env *appEnv, session *engine.Session) error {
	produced := session.Result()
	if session.Kind() == engine.KindCut {
		produced = session.Selected()
	}

	inventory := model.NewLotCollection()
	for _, lot := range session.Source().Items() {
		if lot.JoinTo != "" {
			continue // merged away into a join result
		}
		if lot.Amount == 0 {
			continue // fully consumed
		}
		inventory.Add(lot)
	}
	for _, lot := range produced.Items() {
		if inventory.ByUUID(lot.UUID) == nil {
			inventory.Add(lot)
		}
	}
	env.inventory = inventory
	return env.saveInventory()
}

func exportCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export session artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "report <file.pdf>",
		Short: "Export a PDF transformation report for the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			if err := export.ExportReport(args[0], session); err != nil {
				return err
			}
			slog.Info("report exported", "file", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "labels <file.pdf>",
		Short: "Export QR labels for the session's produced lots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			produced := session.Result()
			if session.Kind() == engine.KindCut {
				produced = session.Selected()
			}
			if err := export.ExportLabels(args[0], produced); err != nil {
				return err
			}
			slog.Info("labels exported", "file", args[0], "lots", produced.Len())
			return nil
		},
	})

	var sourceRef string
	diagram := &cobra.Command{
		Use:   "diagram <file.dxf>",
		Short: "Export a DXF cut diagram for a source lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := loadExistingSession(*configPath)
			if err != nil {
				return err
			}
			source, err := findLotIn(session.Source(), sourceRef)
			if err != nil {
				return err
			}
			pieces := session.Selected().FilterByCutFrom(source.UUID).Items()
			if err := export.ExportCutDiagram(args[0], source, pieces); err != nil {
				return err
			}
			slog.Info("diagram exported", "file", args[0], "pieces", len(pieces))
			return nil
		},
	}
	diagram.Flags().StringVar(&sourceRef, "source", "", "Source lot (required)")
	_ = diagram.MarkFlagRequired("source")
	cmd.AddCommand(diagram)

	return cmd
}

func backupCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import all application data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export <file.json>",
		Short: "Export the catalog and inventory to a single backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], env.catalog, env.inventory); err != nil {
				return err
			}
			slog.Info("backup exported", "file", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Restore the catalog and inventory from a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveCatalog(env.catalogPath, model.NewStandardCollection(backup.Catalog)); err != nil {
				return err
			}
			if err := project.SaveInventory(env.inventoryPath, model.NewLotCollection(backup.Inventory...)); err != nil {
				return err
			}
			slog.Info("backup restored", "file", args[0],
				"standards", len(backup.Catalog), "lots", len(backup.Inventory))
			return nil
		},
		Args: cobra.ExactArgs(1),
	})

	return cmd
}

func loadOrCreateSession(env *appEnv, kind engine.Kind) (*engine.Session, error) {
	if _, err := os.Stat(env.sessionPath); err == nil {
		session, err := project.LoadSession(env.sessionPath, env.catalog)
		if err != nil {
			return nil, err
		}
		if session.Kind() != kind {
			return nil, fmt.Errorf("a %s session is in progress; submit or reset it first", session.Kind())
		}
		return session, nil
	}
	session := engine.NewSession(kind, env.catalog, env.inventory)
	session.ToProjectObjectID = env.cfg.Session.ProjectObjectID
	session.ToResponsibleUserID = env.cfg.Session.ResponsibleUserID
	session.Comment = env.cfg.Session.Comment
	return session, nil
}

func loadExistingSession(configPath string) (*appEnv, *engine.Session, error) {
	env, err := loadEnv(configPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(env.sessionPath); err != nil {
		return nil, nil, fmt.Errorf("no session in progress")
	}
	session, err := project.LoadSession(env.sessionPath, env.catalog)
	if err != nil {
		return nil, nil, err
	}
	return env, session, nil
}

func printLots(lots *model.LotCollection) {
	for _, lot := range lots.Items() {
		name := "-"
		if lot.Standard != nil {
			name = lot.Standard.DisplayName()
		}
		marker := " "
		switch {
		case lot.Locked:
			marker = "L"
		case lot.JoinTo != "":
			marker = "J"
		case lot.CutFrom != "":
			marker = "C"
		}
		fmt.Printf("%-8s %s %-40s %8.2f x %-5.0f %8.2f t\n",
			lot.UUID[:8], marker, name, lot.Quantity, lot.Amount, lot.TotalWeight())
	}
}

func isExcelFile(path string) bool {
	for _, ext := range []string{".xlsx", ".xlsm", ".xls"} {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}
