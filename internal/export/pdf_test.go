package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/DrapeCalc/internal/grid"
	"github.com/piwi3910/DrapeCalc/internal/markup"
	"github.com/piwi3910/DrapeCalc/internal/model"
)

// buildTestQuote runs a real calculation so the document sees a consistent
// layout: 5 widths of 137cm linen, 256cm drops after repeat matching.
func buildTestQuote(t *testing.T) model.Quote {
	t.Helper()
	fabric := model.FabricSelection{
		ID:            "lin1",
		Name:          "Floral Print Cotton",
		Width:         137,
		PricePerMeter: 29,
		PatternRepeat: 32,
		Category:      "curtain_fabric",
	}
	in := model.CalculationInput{
		RailWidth:   300,
		CurtainDrop: 225,
		Heading:     &model.HeadingOption{ID: "pp", Name: "Pencil Pleat", Fullness: 2.0, Price: 4.0},
		Fabric:      fabric,
		Lining:      model.LiningOption{Value: "standard", Label: "Standard lining", Price: 8},
		Template: &model.ProductTemplate{
			ID:    "t1",
			Name:  "Pencil Pleat Curtain",
			Rules: model.TemplateRules{BaseMakingCost: model.Float(18)},
		},
		Config: model.DefaultAppConfig(),
	}
	res, err := model.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	m := markup.Resolved{Percentage: 50, Source: markup.SourceDefault, SourceName: "Default"}
	return model.NewQuote("Living room", "Mrs Patel", "GBP", in, res, m)
}

func TestExportQuotePDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quote.pdf")

	if err := ExportQuotePDFFile(path, buildTestQuote(t)); err != nil {
		t.Fatalf("ExportQuotePDFFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportQuotePDF_Writer(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportQuotePDF(&buf, buildTestQuote(t)); err != nil {
		t.Fatalf("ExportQuotePDF failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("output does not look like a PDF: %q", buf.String()[:min(8, buf.Len())])
	}
}

func TestExportQuotePDF_NoLayout(t *testing.T) {
	var buf bytes.Buffer
	q := model.Quote{ID: "empty", Title: "Nothing"}
	if err := ExportQuotePDF(&buf, q); err == nil {
		t.Fatal("expected error for quote without a layout, got nil")
	}
}

func TestExportQuotePDF_WithGridPrice(t *testing.T) {
	q := buildTestQuote(t)
	g, err := grid.Parse([]byte(`{"widths":[200,400],"heights":[250,300],"prices":[[100,150],[180,240]]}`))
	if err != nil {
		t.Fatalf("grid.Parse: %v", err)
	}
	q.Input.Fabric.PricingGrid = &g
	price := 240.0
	q.Result.GridPrice = &price

	var buf bytes.Buffer
	if err := ExportQuotePDF(&buf, q); err != nil {
		t.Fatalf("ExportQuotePDF failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("PDF is empty")
	}
}

func TestExportQuotePDF_GridPricedQuote(t *testing.T) {
	q := buildTestQuote(t)
	price := 999.0
	q.Result.GridPrice = &price
	sell := q.Result.Sell(markup.Resolved{Percentage: 0, Source: markup.SourcePricingGrid})
	q.PriceBase, q.PriceBasis, q.SellingPrice = sell.PriceBase, sell.PriceBasis, sell.SellingPrice

	if got := priceBase(q); got != 999 {
		t.Errorf("expected grid price base 999, got %.2f", got)
	}

	var buf bytes.Buffer
	if err := ExportQuotePDF(&buf, q); err != nil {
		t.Fatalf("ExportQuotePDF failed: %v", err)
	}
}

func TestPriceBaseFallsBackToCostTotal(t *testing.T) {
	q := buildTestQuote(t)
	if got := priceBase(q); got != q.Result.Costs.Total {
		t.Errorf("expected cost total %.2f, got %.2f", q.Result.Costs.Total, got)
	}

	q.PriceBase, q.PriceBasis = 0, ""
	if got := priceBase(q); got != q.Result.Costs.Total {
		t.Errorf("quote without a recorded base should use the cost total, got %.2f", got)
	}
}

func TestExportQuotePDF_NoLeftovers(t *testing.T) {
	// 137 rail at fullness 2 uses exactly 2 widths; plain fabric has no trim.
	in := model.CalculationInput{
		RailWidth:   137,
		CurtainDrop: 200,
		Heading:     &model.HeadingOption{ID: "w", Name: "Wave", Fullness: 2.0},
		Fabric:      model.FabricSelection{ID: "v", Name: "Velvet", Width: 137, PricePerMeter: 38},
		Template:    &model.ProductTemplate{ID: "t", Name: "Curtain"},
		Config:      model.DefaultAppConfig(),
	}
	res, err := model.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	q := model.NewQuote("", "", "", in, res, markup.Resolved{Percentage: 30, Source: markup.SourceCategory})

	var buf bytes.Buffer
	if err := ExportQuotePDF(&buf, q); err != nil {
		t.Fatalf("ExportQuotePDF failed: %v", err)
	}
}

func TestMoneyRounding(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{312.375, "312.38"},
		{0.1 + 0.2, "0.30"},
		{100, "100.00"},
	}
	for _, tt := range tests {
		if got := Money(tt.in).StringFixed(2); got != tt.want {
			t.Errorf("Money(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if got := formatMoney("GBP", 12.5); got != "GBP 12.50" {
		t.Errorf("formatMoney = %q", got)
	}
	if got := formatMoney("", 12.5); got != "12.50" {
		t.Errorf("formatMoney without currency = %q", got)
	}
}

func TestLiningLabel(t *testing.T) {
	if got := liningLabel(model.LiningOption{}); got != "Unlined" {
		t.Errorf("liningLabel(empty) = %q", got)
	}
	if got := liningLabel(model.LiningOption{Value: "blackout"}); got != "blackout" {
		t.Errorf("liningLabel(value only) = %q", got)
	}
	if got := liningLabel(model.LiningOption{Value: "blackout", Label: "Blackout"}); got != "Blackout" {
		t.Errorf("liningLabel(label) = %q", got)
	}
}

func TestLabelFontSize(t *testing.T) {
	tests := []struct {
		w, h float64
		want float64
	}{
		{50, 50, 10},
		{30, 25, 8},
		{10, 15, 6},
	}
	for _, tt := range tests {
		got := labelFontSize(tt.w, tt.h)
		if got != tt.want {
			t.Errorf("labelFontSize(%v, %v) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
