package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/dkovalev/steelyard/internal/model"
)

func importCatalog() *model.StandardCollection {
	pile := &model.Standard{
		ID:   1,
		Name: "L5-UM",
		Type: model.MaterialType{ID: model.TypePile, Name: "Pile", FixedQuantity: true,
			Unit: &model.Unit{ID: 1, Label: "m"}},
		Brands: []model.Brand{{ID: 10, Name: "L5-UM", Weight: decimal.RequireFromString("0.114")}},
	}
	sheet := &model.Standard{
		ID:   2,
		Name: "Sheet 10mm",
		Type: model.MaterialType{ID: model.TypeHotRolledSheet, Name: "Hot rolled sheet",
			Unit: &model.Unit{ID: 2, Label: "t"}},
		Brands: []model.Brand{{ID: 20, Name: "St3", Weight: decimal.RequireFromString("1")}},
	}
	return model.NewStandardCollection([]*model.Standard{pile, sheet})
}

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Standard,Length,Count\n1,12,5\n2,3,10\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Standard;Length;Count\n1;12;5\n2;3;10\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Standard\tLength\tCount\n1\t12\t5\n2\t3\t10\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Standard|Length|Count\n1|12|5\n2|3|10\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Standard", "Quantity", "Amount", "Locked", "Object"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Standard != 0 {
		t.Errorf("expected Standard at 0, got %d", mapping.Standard)
	}
	if mapping.Quantity != 1 {
		t.Errorf("expected Quantity at 1, got %d", mapping.Quantity)
	}
	if mapping.Amount != 2 {
		t.Errorf("expected Amount at 2, got %d", mapping.Amount)
	}
	if mapping.Locked != 3 {
		t.Errorf("expected Locked at 3, got %d", mapping.Locked)
	}
	if mapping.Object != 4 {
		t.Errorf("expected Object at 4, got %d", mapping.Object)
	}
}

func TestDetectColumns_CaseInsensitive(t *testing.T) {
	row := []string{"STANDARD", "LENGTH", "COUNT", "LOCKED"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Standard != 0 {
		t.Errorf("expected Standard at 0, got %d", mapping.Standard)
	}
	if mapping.Quantity != 1 {
		t.Errorf("expected Quantity at 1, got %d", mapping.Quantity)
	}
	if mapping.Amount != 2 {
		t.Errorf("expected Amount at 2, got %d", mapping.Amount)
	}
}

func TestDetectColumns_AlternativeNames(t *testing.T) {
	row := []string{"Lot ID", "SKU", "Len", "Pcs", "Hold", "Site"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.ID != 0 {
		t.Errorf("expected ID at 0, got %d", mapping.ID)
	}
	if mapping.Standard != 1 {
		t.Errorf("expected Standard at 1, got %d", mapping.Standard)
	}
	if mapping.Quantity != 2 {
		t.Errorf("expected Quantity at 2, got %d", mapping.Quantity)
	}
	if mapping.Amount != 3 {
		t.Errorf("expected Amount at 3, got %d", mapping.Amount)
	}
	if mapping.Locked != 4 {
		t.Errorf("expected Locked at 4, got %d", mapping.Locked)
	}
	if mapping.Object != 5 {
		t.Errorf("expected Object at 5, got %d", mapping.Object)
	}
}

func TestDetectColumns_ReorderedColumns(t *testing.T) {
	row := []string{"Amount", "Quantity", "Standard"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Amount != 0 {
		t.Errorf("expected Amount at 0, got %d", mapping.Amount)
	}
	if mapping.Quantity != 1 {
		t.Errorf("expected Quantity at 1, got %d", mapping.Quantity)
	}
	if mapping.Standard != 2 {
		t.Errorf("expected Standard at 2, got %d", mapping.Standard)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	row := []string{"1", "12", "5"}
	mapping, isHeader := DetectColumns(row)

	if isHeader {
		t.Error("numeric row must not read as a header")
	}
	if mapping.Standard != 0 || mapping.Quantity != 1 || mapping.Amount != 2 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeader(t *testing.T) {
	csv := "Standard,Quantity,Amount,Locked\n1,12,5,no\nSheet 10mm,3,10,yes\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Lots.Len() != 2 {
		t.Fatalf("expected 2 lots, got %d", result.Lots.Len())
	}

	first := result.Lots.Items()[0]
	if first.Standard.ID != 1 || first.Quantity != 12 || first.Amount != 5 || first.Locked {
		t.Errorf("unexpected first lot %+v", first)
	}

	second := result.Lots.Items()[1]
	if second.Standard.ID != 2 {
		t.Error("expected name-based catalog resolution")
	}
	if !second.Locked {
		t.Error("expected locked flag")
	}
}

func TestImportCSVFromReader_Positional(t *testing.T) {
	csv := "1,12,5\n1,9,2\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Lots.Len() != 2 {
		t.Fatalf("expected 2 lots, got %d", result.Lots.Len())
	}
}

func TestImportCSVFromReader_UnknownStandard(t *testing.T) {
	csv := "Standard,Quantity,Amount\n999,12,5\n1,9,2\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Unknown standard") {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
	if result.Lots.Len() != 1 {
		t.Errorf("valid rows must still import, got %d", result.Lots.Len())
	}
}

func TestImportCSVFromReader_InvalidValues(t *testing.T) {
	csv := "Standard,Quantity,Amount\n1,abc,5\n1,12,-2\n1,,5\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", result.Errors)
	}
	if result.Lots.Len() != 0 {
		t.Errorf("expected no lots, got %d", result.Lots.Len())
	}
}

func TestImportCSVFromReader_SkipsEmptyRows(t *testing.T) {
	csv := "Standard,Quantity,Amount\n1,12,5\n,,\n\n1,9,2\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Lots.Len() != 2 {
		t.Errorf("expected 2 lots, got %d", result.Lots.Len())
	}
}

func TestImportCSVFromReader_UnknownLockFlagWarns(t *testing.T) {
	csv := "Standard,Quantity,Amount,Locked\n1,12,5,maybe\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Unknown lock flag") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a lock flag warning, got %v", result.Warnings)
	}
	if result.Lots.First().Locked {
		t.Error("unrecognized flag must default to unlocked")
	}
}

func TestImportCSVFromReader_MissingRequiredColumns(t *testing.T) {
	csv := "Standard,Locked\n1,no\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', importCatalog())

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Required columns not found") {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
}

func TestImportCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lots.csv")
	csv := "Standard;Quantity;Amount\n1;12;5\n2;3;10\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	result := ImportCSV(path, importCatalog())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Lots.Len() != 2 {
		t.Errorf("expected 2 lots, got %d", result.Lots.Len())
	}

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a delimiter warning, got %v", result.Warnings)
	}
}

func TestImportCSV_MissingFile(t *testing.T) {
	result := ImportCSV(filepath.Join(t.TempDir(), "nope.csv"), importCatalog())
	if len(result.Errors) == 0 {
		t.Error("expected an error for a missing file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := ImportCSV(path, importCatalog())
	if len(result.Errors) != 1 || result.Errors[0] != "File is empty" {
		t.Errorf("expected empty-file error, got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func writeTestXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "lots.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportExcel(t *testing.T) {
	path := writeTestXLSX(t, [][]interface{}{
		{"Standard", "Quantity", "Amount", "Locked"},
		{1, 12, 5, "no"},
		{"Sheet 10mm", 3, 10, "yes"},
	})

	result := ImportExcel(path, importCatalog())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Lots.Len() != 2 {
		t.Fatalf("expected 2 lots, got %d", result.Lots.Len())
	}
	if !result.Lots.Items()[1].Locked {
		t.Error("expected locked flag on the sheet lot")
	}
}

func TestImportExcel_MissingFile(t *testing.T) {
	result := ImportExcel(filepath.Join(t.TempDir(), "nope.xlsx"), importCatalog())
	if len(result.Errors) == 0 {
		t.Error("expected an error for a missing file")
	}
}
