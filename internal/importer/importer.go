// Package importer provides CSV and Excel import functionality for lot
// inventories. It supports automatic delimiter detection, flexible column
// mapping, case-insensitive header recognition and catalog resolution by
// standard id or name.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dkovalev/steelyard/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Lots     *model.LotCollection
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID       int
	Standard int
	Quantity int
	Amount   int
	Locked   int
	Object   int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":       {"id", "lot id", "lot", "server id"},
	"standard": {"standard", "standard id", "sku", "material", "catalog", "name"},
	"quantity": {"quantity", "qty", "length", "len", "size", "volume"},
	"amount":   {"amount", "count", "units", "num", "pcs", "pieces"},
	"locked":   {"locked", "lock", "hold", "reserved"},
	"object":   {"object", "project object", "project object id", "site"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // Allow variable field counts

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Score: count how many rows have the same column count as the first row.
		// Only consider delimiters that produce more than 1 column.
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		ID:       -1,
		Standard: -1,
		Quantity: -1,
		Amount:   -1,
		Locked:   -1,
		Object:   -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					switch role {
					case "id":
						if mapping.ID == -1 {
							mapping.ID = i
						}
					case "standard":
						if mapping.Standard == -1 {
							mapping.Standard = i
						}
					case "quantity":
						if mapping.Quantity == -1 {
							mapping.Quantity = i
						}
					case "amount":
						if mapping.Amount == -1 {
							mapping.Amount = i
						}
					case "locked":
						if mapping.Locked == -1 {
							mapping.Locked = i
						}
					case "object":
						if mapping.Object == -1 {
							mapping.Object = i
						}
					}
				}
			}
		}
	}

	if !isHeader {
		// Fall back to positional mapping: Standard, Quantity, Amount, Locked
		return ColumnMapping{
			ID:       -1,
			Standard: 0,
			Quantity: 1,
			Amount:   2,
			Locked:   3,
			Object:   -1,
		}, false
	}

	return mapping, true
}

// parseLocked converts a lock-flag string to a bool.
// It returns the flag and whether the string was recognized.
func parseLocked(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "locked":
		return true, true
	case "", "no", "n", "false", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// resolveStandard finds a catalog standard by numeric id or, failing that, by
// case-insensitive name.
func resolveStandard(catalog *model.StandardCollection, value string) *model.Standard {
	if catalog == nil {
		return nil
	}
	if id, err := strconv.Atoi(value); err == nil {
		return catalog.ByID(id)
	}
	want := strings.ToLower(value)
	return catalog.Filter(func(s *model.Standard) bool {
		return strings.ToLower(s.Name) == want
	}).First()
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a lot from a row using the given column mapping.
// Returns the lot, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, catalog *model.StandardCollection, rowLabel string) (*model.Lot, string, string) {
	standardStr := getCell(row, mapping.Standard)
	if standardStr == "" {
		return nil, fmt.Sprintf("%s: Missing standard value", rowLabel), ""
	}
	standard := resolveStandard(catalog, standardStr)
	if standard == nil {
		return nil, fmt.Sprintf("%s: Unknown standard '%s'", rowLabel, standardStr), ""
	}

	quantityStr := getCell(row, mapping.Quantity)
	if quantityStr == "" {
		return nil, fmt.Sprintf("%s: Missing quantity value", rowLabel), ""
	}
	quantity, err := strconv.ParseFloat(quantityStr, 64)
	if err != nil {
		return nil, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, quantityStr), ""
	}

	amountStr := getCell(row, mapping.Amount)
	if amountStr == "" {
		return nil, fmt.Sprintf("%s: Missing amount value", rowLabel), ""
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return nil, fmt.Sprintf("%s: Invalid amount '%s'", rowLabel, amountStr), ""
	}

	if quantity <= 0 || amount <= 0 {
		return nil, fmt.Sprintf("%s: Quantity and amount must be positive", rowLabel), ""
	}

	id := 0
	if idStr := getCell(row, mapping.ID); idStr != "" {
		id, err = strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid lot id '%s'", rowLabel, idStr), ""
		}
	}

	lot := model.NewLot(id, standard, quantity, amount)

	var warning string
	if lockedStr := getCell(row, mapping.Locked); lockedStr != "" {
		locked, ok := parseLocked(lockedStr)
		if ok {
			lot.Locked = locked
		} else {
			warning = fmt.Sprintf("%s: Unknown lock flag '%s', defaulting to unlocked", rowLabel, lockedStr)
		}
	}

	if objectStr := getCell(row, mapping.Object); objectStr != "" {
		object, err := strconv.Atoi(objectStr)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid project object id '%s'", rowLabel, objectStr), ""
		}
		lot.ProjectObjectID = object
	}

	return lot, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports lots from a CSV file, resolving standards against the
// given catalog.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string, catalog *model.StandardCollection) ImportResult {
	result := ImportResult{Lots: model.NewLotCollection()}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, catalog, "Line", warnings)
}

// ImportCSVFromReader imports lots from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune, catalog *model.StandardCollection) ImportResult {
	result := ImportResult{Lots: model.NewLotCollection()}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, catalog, "Line", nil)
}

// ImportExcel imports lots from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string, catalog *model.StandardCollection) ImportResult {
	result := ImportResult{Lots: model.NewLotCollection()}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, catalog, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into lots.
func importFromRows(rows [][]string, catalog *model.StandardCollection, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Lots:     model.NewLotCollection(),
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	// Detect columns from first row
	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		// Validate that required columns were found
		missing := []string{}
		if mapping.Standard == -1 {
			missing = append(missing, "Standard")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if mapping.Amount == -1 {
			missing = append(missing, "Amount")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else {
		// No header: check if the first data column is numeric (positional
		// mapping). A non-numeric quantity suggests an unrecognized header.
		if len(rows[0]) >= 3 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
				startRow = 1
				result.Warnings = append(result.Warnings, "Detected header row, skipping")
			}
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		lot, errMsg, warning := parseRow(row, mapping, catalog, rowLabel)

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Lots.Add(lot)
	}

	return result
}
