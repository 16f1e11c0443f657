package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// LabelInfo holds the data encoded into each drop label's QR code.
type LabelInfo struct {
	QuoteID    string  `json:"quote"`
	Title      string  `json:"title"`
	Drop       int     `json:"drop"`
	Of         int     `json:"of"`
	FabricID   string  `json:"fabric_id"`
	FabricName string  `json:"fabric"`
	CutLength  float64 `json:"cut_cm"`
	Repeat     float64 `json:"repeat_cm,omitempty"`
	Heading    string  `json:"heading,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos lists one label per cut drop of a quote.
func CollectLabelInfos(q model.Quote) []LabelInfo {
	drops := q.Drops()
	labels := make([]LabelInfo, 0, len(drops))
	heading := ""
	if q.Input.Heading != nil {
		heading = q.Input.Heading.Name
	}
	for i, cut := range drops {
		labels = append(labels, LabelInfo{
			QuoteID:    q.ID,
			Title:      q.Title,
			Drop:       i + 1,
			Of:         len(drops),
			FabricID:   q.Input.Fabric.ID,
			FabricName: q.Input.Fabric.Name,
			CutLength:  cut,
			Repeat:     q.Input.Fabric.PatternRepeat,
			Heading:    heading,
		})
	}
	return labels
}

// ExportWorkOrderLabels writes a PDF of QR-coded labels, one per cut drop.
// Each QR code carries the drop metadata as JSON so the workroom can scan
// it back to the quote. Labels are laid out on a standard label sheet
// format (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportWorkOrderLabels(w io.Writer, q model.Quote) error {
	labels := CollectLabelInfos(q)
	if len(labels) == 0 {
		return fmt.Errorf("quote %s has no drops to label", q.ID)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for drop %d: %w", label.Drop, err)
		}
	}

	return pdf.Output(w)
}

// ExportWorkOrderLabelsFile writes the work-order labels to path.
func ExportWorkOrderLabelsFile(path string, q model.Quote) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create labels file: %w", err)
	}
	if err := ExportWorkOrderLabels(f, q); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Draw light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.QuoteID, info.Drop)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	// QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// Fabric name (bold, larger)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	name := info.FabricName
	if pdf.GetStringWidth(name) > textW {
		for len(name) > 0 && pdf.GetStringWidth(name+"...") > textW {
			name = name[:len(name)-1]
		}
		name += "..."
	}
	pdf.CellFormat(textW, 4.5, name, "", 1, "L", false, 0, "")

	// Cut length
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Cut %.1f cm", info.CutLength), "", 1, "L", false, 0, "")

	// Drop and quote reference
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Drop %d of %d | %s", info.Drop, info.Of, info.QuoteID), "", 1, "L", false, 0, "")

	if info.Repeat > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Match repeat %.1f cm", info.Repeat), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)

	return nil
}
