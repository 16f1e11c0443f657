package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// exportHeaders is the column order written by the exporters. It matches
// the positional fallback of DetectColumns so exports always re-import.
var exportHeaders = []string{"Name", "Width", "Price", "Pattern Repeat", "Category", "Subcategory", "Markup"}

// excelColumnWidths are the column widths of the exported sheet.
var excelColumnWidths = []float64{34, 10, 10, 15, 20, 20, 10}

// fabricSheet is the sheet name used by ExportExcel.
const fabricSheet = "Fabrics"

func exportRow(f model.FabricSelection) []string {
	return []string{
		sanitizeCell(f.Name),
		formatNumber(f.Width),
		formatNumber(f.PricePerMeter),
		formatNumber(f.PatternRepeat),
		sanitizeCell(f.Category),
		sanitizeCell(f.Subcategory),
		formatNumber(f.MarkupPercentage),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sanitizeCell stops spreadsheet applications from evaluating text cells
// as formulas.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// ExportCSV writes fabrics as a comma separated file with a header row.
func ExportCSV(w io.Writer, fabrics []model.FabricSelection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range fabrics {
		if err := cw.Write(exportRow(f)); err != nil {
			return fmt.Errorf("write fabric %q: %w", f.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportExcel writes fabrics to a single-sheet workbook with a frozen
// header row.
func ExportExcel(w io.Writer, fabrics []model.FabricSelection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), fabricSheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range exportHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(fabricSheet, col, col, excelColumnWidths[i]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
		if err := f.SetCellValue(fabricSheet, col+"1", h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(fabricSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, fabric := range fabrics {
		row := r + 2
		values := []interface{}{
			sanitizeCell(fabric.Name),
			fabric.Width,
			fabric.PricePerMeter,
			fabric.PatternRepeat,
			sanitizeCell(fabric.Category),
			sanitizeCell(fabric.Subcategory),
			fabric.MarkupPercentage,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(fabricSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(fabricSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}
