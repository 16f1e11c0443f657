// Package importer provides CSV and Excel import and export for the fabric
// library. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Fabrics  []model.FabricSelection
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Name          int
	Width         int
	Price         int
	PatternRepeat int
	Category      int
	Subcategory   int
	Markup        int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":        {"name", "fabric", "fabric name", "description", "desc", "item", "product"},
	"width":       {"width", "w", "fabric width", "width (cm)", "width cm", "loom width"},
	"price":       {"price", "price per meter", "price per metre", "price/m", "cost", "cost per meter", "cost per metre", "unit price"},
	"repeat":      {"repeat", "pattern repeat", "vertical repeat", "repeat (cm)", "pattern"},
	"category":    {"category", "cat", "type"},
	"subcategory": {"subcategory", "sub category", "sub-category", "subcat"},
	"markup":      {"markup", "markup %", "markup percentage", "margin"},
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

		// Only consider delimiters that produce more than 1 column
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
		Name:          -1,
		Width:         -1,
		Price:         -1,
		PatternRepeat: -1,
		Category:      -1,
		Subcategory:   -1,
		Markup:        -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "name":
					setOnce(&mapping.Name, i)
				case "width":
					setOnce(&mapping.Width, i)
				case "price":
					setOnce(&mapping.Price, i)
				case "repeat":
					setOnce(&mapping.PatternRepeat, i)
				case "category":
					setOnce(&mapping.Category, i)
				case "subcategory":
					setOnce(&mapping.Subcategory, i)
				case "markup":
					setOnce(&mapping.Markup, i)
				}
			}
		}
	}

	if !isHeader {
		// Fall back to positional mapping in export column order
		return ColumnMapping{
			Name:          0,
			Width:         1,
			Price:         2,
			PatternRepeat: 3,
			Category:      4,
			Subcategory:   5,
			Markup:        6,
		}, false
	}

	return mapping, true
}

func setOnce(idx *int, i int) {
	if *idx == -1 {
		*idx = i
	}
}

// parseNumber accepts plain numbers as well as the forms spreadsheets tend
// to produce: a decimal comma, a currency symbol, a trailing unit or percent.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "£$€")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(strings.TrimSpace(s), "cm")
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a fabric from a row using the given column mapping.
// Returns the fabric, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, fabricCount int) (model.FabricSelection, string, string) {
	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Fabric %d", fabricCount+1)
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.FabricSelection{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := parseNumber(widthStr)
	if err != nil {
		return model.FabricSelection{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	priceStr := getCell(row, mapping.Price)
	if priceStr == "" {
		return model.FabricSelection{}, fmt.Sprintf("%s: Missing price value", rowLabel), ""
	}
	price, err := parseNumber(priceStr)
	if err != nil {
		return model.FabricSelection{}, fmt.Sprintf("%s: Invalid price '%s'", rowLabel, priceStr), ""
	}

	if width <= 0 {
		return model.FabricSelection{}, fmt.Sprintf("%s: Width must be positive", rowLabel), ""
	}
	if price < 0 {
		return model.FabricSelection{}, fmt.Sprintf("%s: Price must not be negative", rowLabel), ""
	}

	var warnings []string
	var repeat float64
	if repeatStr := getCell(row, mapping.PatternRepeat); repeatStr != "" {
		repeat, err = parseNumber(repeatStr)
		if err != nil || repeat < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid pattern repeat '%s', treating as plain", rowLabel, repeatStr))
			repeat = 0
		}
	}

	fabric := model.NewFabric(name, width, price, repeat)
	fabric.Category = getCell(row, mapping.Category)
	fabric.Subcategory = getCell(row, mapping.Subcategory)

	if markupStr := getCell(row, mapping.Markup); markupStr != "" {
		pct, err := parseNumber(markupStr)
		if err != nil || pct < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid markup '%s', ignoring", rowLabel, markupStr))
		} else {
			fabric.MarkupPercentage = pct
		}
	}

	return fabric, "", strings.Join(warnings, "; ")
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

// ImportCSV imports fabrics from CSV content.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(data []byte) ImportResult {
	result := ImportResult{}

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

	result = ImportCSVFromReader(bytes.NewReader(data), delimiter)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ImportCSVFromReader imports fabrics from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

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

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports fabrics from an Excel (.xlsx) workbook.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(r io.Reader) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenReader(r)
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

	return importFromRows(rows, "Row", nil)
}

// xlsxMagic is the zip local-file header every .xlsx starts with.
var xlsxMagic = []byte("PK\x03\x04")

// Import reads an uploaded fabric list, choosing Excel or CSV by content.
func Import(data []byte) ImportResult {
	if bytes.HasPrefix(data, xlsxMagic) {
		return ImportExcel(bytes.NewReader(data))
	}
	return ImportCSV(data)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into fabrics.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
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
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Price == -1 {
			missing = append(missing, "Price")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else {
		// No header: check if first row is numeric (positional mapping)
		if len(rows[0]) >= 3 {
			if _, err := parseNumber(rows[0][1]); err != nil {
				// Width column is not numeric, so treat the row as an unrecognized header
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
		fabric, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Fabrics))

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Fabrics = append(result.Fabrics, fabric)
	}

	return result
}
