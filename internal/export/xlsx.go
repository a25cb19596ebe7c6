package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dkovalev/steelyard/internal/model"
)

const inventorySheet = "Inventory"

// ExportXLSX writes a lot collection to an Excel workbook: one row per lot
// with material, quantity, amount, weight and status columns, followed by a
// totals row and a per-type summary block.
func ExportXLSX(path string, lots *model.LotCollection) error {
	if lots == nil || lots.IsEmpty() {
		return fmt.Errorf("no lots to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := []interface{}{"Lot ID", "Material", "Quantity", "Amount", "Weight (t)", "Status"}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	for _, l := range lots.Items() {
		status := "available"
		switch {
		case l.Locked:
			status = "locked"
		case l.JoinTo != "":
			status = "merged"
		case l.CutFrom != "":
			status = "cut piece"
		case l.IsChanged():
			status = "drawn down"
		}

		row := []interface{}{l.ID, l.DisplayName(), l.Quantity, l.Amount, l.TotalWeight(), status}
		cell := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
		rowNum++
	}

	totals := []interface{}{"", "Total", "", lots.TotalAmount(), lots.TotalWeight(), ""}
	cell := fmt.Sprintf("A%d", rowNum+1)
	if err := f.SetSheetRow(inventorySheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}
	rowNum += 3

	// Per-type summary block
	summaryHeader := []interface{}{"Type", "Total quantity", "Unit"}
	cell = fmt.Sprintf("A%d", rowNum)
	if err := f.SetSheetRow(inventorySheet, cell, &summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	rowNum++
	for _, group := range lots.GroupedAmountQuantityByType() {
		row := []interface{}{group.Type, group.Total, group.Unit}
		cell = fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		rowNum++
	}

	if err := f.SetColWidth(inventorySheet, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	return f.SaveAs(path)
}
