// Package export renders quotes and work orders as printable PDF documents.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// panelColor represents an RGB color for a fabric width.
type panelColor struct {
	R, G, B int
}

// panelColors alternate across joined widths so the seams are visible.
var panelColors = []panelColor{
	{R: 129, G: 199, B: 132}, // green
	{R: 100, G: 181, B: 246}, // blue
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 10.0
	// The layout diagram takes the left part of the page, the cost table the right.
	diagramWidth  = 150.0
	diagramHeight = 120.0
	tableLeft     = marginLeft + diagramWidth + 15.0
)

// Money rounds v to two decimal places for display.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func formatMoney(currency string, v float64) string {
	s := Money(v).StringFixed(2)
	if currency == "" {
		return s
	}
	return currency + " " + s
}

// ExportQuotePDF writes a single-page quote with a fabric layout diagram and
// cost breakdown.
func ExportQuotePDF(w io.Writer, q model.Quote) error {
	pdf, err := buildQuotePDF(q)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

// ExportQuotePDFFile writes the quote PDF to path.
func ExportQuotePDFFile(path string, q model.Quote) error {
	pdf, err := buildQuotePDF(q)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

func buildQuotePDF(q model.Quote) (*fpdf.Fpdf, error) {
	if q.Result.Layout.WidthsRequired <= 0 || q.Input.Fabric.Width <= 0 {
		return nil, fmt.Errorf("quote %s has no fabric layout to export", q.ID)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(q.Title, true)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	renderHeader(pdf, q)
	renderLayoutDiagram(pdf, q)
	renderCostTable(pdf, q)

	// Footer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by DrapeCalc", "", 0, "C", false, 0, "")

	return pdf, pdf.Error()
}

func renderHeader(pdf *fpdf.Fpdf, q model.Quote) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, tr(q.Title), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	info := fmt.Sprintf("Quote %s | %s", q.ID, q.CreatedAt.Format("2 Jan 2006"))
	if q.Customer != "" {
		info += " | " + q.Customer
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, tr(info), "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+headerHeight+7, pageWidth-marginRight, marginTop+headerHeight+7)
}

// renderLayoutDiagram draws the joined fabric widths side by side at cut
// length. The sewn area is filled; pattern-repeat trim at the top of each
// drop and the unused strip of the last width are hatched.
func renderLayoutDiagram(pdf *fpdf.Fpdf, q model.Quote) {
	r := q.Result
	fabricWidth := q.Input.Fabric.Width
	widths := r.Layout.WidthsRequired
	totalW := float64(widths) * fabricWidth

	scale := math.Min(diagramWidth/totalW, diagramHeight/r.AdjustedDrop)
	canvasW := totalW * scale
	canvasH := r.AdjustedDrop * scale
	offsetX := marginLeft + (diagramWidth-canvasW)/2
	offsetY := drawAreaTop

	trimH := r.Leftovers.Vertical * scale
	remaining := r.Layout.RequiredWidth

	for i := 0; i < widths; i++ {
		px := offsetX + float64(i)*fabricWidth*scale
		pw := fabricWidth * scale

		used := math.Min(fabricWidth, math.Max(0, remaining))
		remaining -= used
		usedW := used * scale

		// Panel background
		pdf.SetFillColor(245, 245, 245)
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, offsetY, pw, canvasH, "FD")

		// Sewn area
		col := panelColors[i%len(panelColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(px, offsetY+trimH, usedW, canvasH-trimH, "F")

		if trimH > 0.5 {
			drawHatchPattern(pdf, px, offsetY, pw, trimH)
		}
		if pw-usedW > 0.5 {
			drawHatchPattern(pdf, px+usedW, offsetY+trimH, pw-usedW, canvasH-trimH)
		}

		// Panel outline on top of the fills
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, offsetY, pw, canvasH, "D")

		if pw > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, canvasH))
			pdf.SetTextColor(0, 0, 0)
			label := fmt.Sprintf("%d", i+1)
			lw := pdf.GetStringWidth(label)
			pdf.SetXY(px+(pw-lw)/2, offsetY+canvasH/2-2)
			pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
		}
	}

	drawDimensionAnnotations(pdf, totalW, r.AdjustedDrop, offsetX, offsetY, canvasW, canvasH)
	drawLegend(pdf, r, offsetY+canvasH+8)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark leftover fabric.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 2.5
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds total width and cut length labels outside the diagram.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, width, drop, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.1f cm", width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	dropLabel := fmt.Sprintf("%.1f cm", drop)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(dropLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, dropLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

func drawLegend(pdf *fpdf.Fpdf, r model.CalculationResult, y float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)

	lines := []string{
		fmt.Sprintf("%d widths cut at %.1f cm (raw drop %.1f cm)", r.Layout.WidthsRequired, r.AdjustedDrop, r.RawDrop),
		fmt.Sprintf("Leftover: %.1f cm per drop (repeat), %.1f cm across (last width)", r.Leftovers.Vertical, r.Leftovers.Horizontal),
	}
	for _, o := range r.Offcuts {
		lines = append(lines, fmt.Sprintf("Reusable %s: %.0f x %.0f cm", o.Kind, o.Width, o.Length))
	}
	if len(r.Offcuts) > 1 {
		lines = append(lines, fmt.Sprintf("Reusable total: %.2f m2", model.TotalOffcutArea(r.Offcuts)/10000))
	}
	for _, line := range lines {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(diagramWidth, 4, line, "", 0, "L", false, 0, "")
		y += 4.5
	}
}

func renderCostTable(pdf *fpdf.Fpdf, q model.Quote) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	c := q.Result.Costs
	y := drawAreaTop

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(tableLeft, y)
	pdf.CellFormat(100, 7, "Curtain details", "", 0, "L", false, 0, "")
	y += 9

	details := []struct {
		label string
		value string
	}{
		{"Rail width", fmt.Sprintf("%.1f cm", q.Input.RailWidth)},
		{"Curtain drop", fmt.Sprintf("%.1f cm", q.Input.CurtainDrop)},
		{"Fabric", q.Input.Fabric.Name},
		{"Pattern repeat", fmt.Sprintf("%.1f cm", q.Input.Fabric.PatternRepeat)},
		{"Lining", liningLabel(q.Input.Lining)},
	}
	if q.Input.Heading != nil {
		details = append(details, struct {
			label string
			value string
		}{"Heading", fmt.Sprintf("%s (x%.2f)", q.Input.Heading.Name, q.Input.Heading.Fullness)})
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range details {
		pdf.SetXY(tableLeft+2, y)
		pdf.CellFormat(35, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 5, tr(item.value), "", 0, "L", false, 0, "")
		y += 5
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(tableLeft, y)
	pdf.CellFormat(100, 7, "Costs", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{55, 40}
	rows := [][2]string{
		{fmt.Sprintf("Fabric (%.2f m)", c.TotalFabricMeters), formatMoney(q.Currency, c.FabricCost)},
		{"Lining", formatMoney(q.Currency, c.LiningCost)},
		{"Making", formatMoney(q.Currency, c.ManufacturingCost)},
		{"Cost total", formatMoney(q.Currency, c.Total)},
	}
	base := priceBase(q)
	if q.PriceBasis == model.PriceBasisPricingGrid {
		rows = append(rows, [2]string{"Price base (pricing grid)", formatMoney(q.Currency, base)})
	}
	rows = append(rows, [2]string{
		fmt.Sprintf("Markup %s%% (%s)", Money(q.Markup.Percentage).String(), q.Markup.Source),
		formatMoney(q.Currency, q.SellingPrice-base),
	})

	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(tableLeft, y)
		pdf.CellFormat(colWidths[0], 6, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[1], 6, row[1], "1", 0, "R", true, 0, "")
		y += 6
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetXY(tableLeft, y)
	pdf.CellFormat(colWidths[0], 7, "Selling price", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colWidths[1], 7, formatMoney(q.Currency, q.SellingPrice), "1", 0, "R", true, 0, "")

	if q.Result.GridPrice != nil && q.PriceBasis != model.PriceBasisPricingGrid {
		y += 10
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetXY(tableLeft, y)
		pdf.CellFormat(95, 4, "Pricing grid price: "+formatMoney(q.Currency, *q.Result.GridPrice), "", 0, "L", false, 0, "")
	}
}

// priceBase is the amount the quote's markup was applied to. Quotes saved
// before the base was recorded were marked up from the cost total.
func priceBase(q model.Quote) float64 {
	if q.PriceBasis == "" {
		return q.Result.Costs.Total
	}
	return q.PriceBase
}

func liningLabel(l model.LiningOption) string {
	if l.Label != "" {
		return l.Label
	}
	if l.Value == "" {
		return "Unlined"
	}
	return l.Value
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 6
	}
}
