package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/DrapeCalc/internal/grid"
	"github.com/piwi3910/DrapeCalc/internal/markup"
)

func plainLinen() FabricSelection {
	return FabricSelection{ID: "lin1", Name: "Plain Linen", Width: 137, PricePerMeter: 25.5}
}

func pencilPleat() *HeadingOption {
	return &HeadingOption{ID: "pp", Name: "Pencil Pleat", Fullness: 2.0, Price: 4.0}
}

func bareTemplate() *ProductTemplate {
	return &ProductTemplate{ID: "t1", Name: "Curtain"}
}

func TestPlanLayoutRoundsWidthsUp(t *testing.T) {
	layout, err := PlanLayout(300, 2.0, 137)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.RequiredWidth != 600 {
		t.Errorf("expected required width 600, got %.2f", layout.RequiredWidth)
	}
	// 600 / 137 = 4.38 -> 5
	if layout.WidthsRequired != 5 {
		t.Errorf("expected 5 widths, got %d", layout.WidthsRequired)
	}
}

func TestPlanLayoutExactMultiple(t *testing.T) {
	layout, err := PlanLayout(137, 2.0, 137)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.WidthsRequired != 2 {
		t.Errorf("expected exactly 2 widths, got %d", layout.WidthsRequired)
	}
}

func TestPlanLayoutFloatNoise(t *testing.T) {
	// 0.3 / 0.1 is 2.9999999999999996 in float64
	layout, err := PlanLayout(0.3, 1.0, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.WidthsRequired != 3 {
		t.Errorf("expected 3 widths, got %d", layout.WidthsRequired)
	}
}

func TestPlanLayoutDropsPerWidth(t *testing.T) {
	layout, err := PlanLayout(60, 1.0, 137)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layout.DropsPerWidth != 2 {
		t.Errorf("expected 2 drops per width, got %d", layout.DropsPerWidth)
	}
}

func TestPlanLayoutRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		rail      float64
		fullness  float64
		fabric    float64
		wantField string
	}{
		{"zero fabric width", 300, 2, 0, "fabric width"},
		{"negative fabric width", 300, 2, -137, "fabric width"},
		{"zero rail", 0, 2, 137, "rail width"},
		{"zero fullness", 300, 0, 137, "fullness"},
		{"NaN rail", math.NaN(), 2, 137, "rail width"},
		{"infinite fabric", 300, 2, math.Inf(1), "fabric width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanLayout(tt.rail, tt.fullness, tt.fabric)
			var inv *InvalidInputError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.wantField, inv.Field)
		})
	}
}

func TestPlanLayoutRejectsOverflowingCounts(t *testing.T) {
	tests := []struct {
		name     string
		rail     float64
		fullness float64
		fabric   float64
	}{
		{"too many widths", 1e20, 2, 1},
		{"gathered width overflows", math.MaxFloat64, 2, 137},
		{"rail narrower than any count", 1e-300, 2, 137},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := PlanLayout(tt.rail, tt.fullness, tt.fabric)
			var inv *InvalidInputError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, "rail width", inv.Field)
			assert.Zero(t, layout.WidthsRequired)
		})
	}

	_, err := Calculate(CalculationInput{
		RailWidth: 1e20, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: FabricSelection{Width: 1, PricePerMeter: 10}, Template: bareTemplate(), Config: DefaultAppConfig(),
	})
	var inv *InvalidInputError
	require.ErrorAs(t, err, &inv)
}

func TestPlanLayoutAcceptsLowFullness(t *testing.T) {
	layout, err := PlanLayout(300, 0.5, 137)
	require.NoError(t, err)
	assert.Equal(t, 150.0, layout.RequiredWidth)
	assert.Equal(t, 2, layout.WidthsRequired)
}

func TestAdjustDrop(t *testing.T) {
	tests := []struct {
		name   string
		drop   float64
		hem    float64
		repeat float64
		want   float64
	}{
		{"plain", 225, 20, 0, 245},
		{"negative repeat treated as plain", 225, 20, -5, 245},
		{"rounded to repeat", 225, 20, 32, 256},
		{"already a multiple", 236, 20, 32, 256},
		{"zero hem", 200, 0, 64, 256},
		{"fractional repeat", 100, 20, 0.3, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustDrop(tt.drop, tt.hem, tt.repeat)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, tt.drop+tt.hem)
		})
	}
}

func TestAdjustDropNeverBelowRaw(t *testing.T) {
	for _, repeat := range []float64{0.1, 0.7, 3, 7.5, 13, 27.3, 32, 64, 91.44} {
		for drop := 50.0; drop <= 400; drop += 17.3 {
			adjusted, err := AdjustDrop(drop, 20, repeat)
			if err != nil {
				t.Fatalf("repeat %.2f drop %.2f: unexpected error: %v", repeat, drop, err)
			}
			if adjusted < drop+20 {
				t.Errorf("repeat %.2f drop %.2f: adjusted %.6f below raw %.6f", repeat, drop, adjusted, drop+20)
			}
			if adjusted-(drop+20) >= repeat+epsilon {
				t.Errorf("repeat %.2f drop %.2f: trimmed %.6f, more than one repeat", repeat, drop, adjusted-(drop+20))
			}
			if n := adjusted / repeat; math.Abs(n-math.Round(n)) > 1e-6 {
				t.Errorf("repeat %.2f drop %.2f: adjusted %.6f is not a whole number of repeats (%.9f)", repeat, drop, adjusted, n)
			}
		}
	}
}

func TestAdjustDropRejectsBadInput(t *testing.T) {
	_, err := AdjustDrop(0, 20, 32)
	var inv *InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "curtain drop", inv.Field)

	_, err = AdjustDrop(225, -1, 0)
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "hem allowance", inv.Field)

	_, err = AdjustDrop(225, 20, math.NaN())
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "pattern repeat", inv.Field)
}

func TestAggregateCosts(t *testing.T) {
	rules := CalculationRules{BaseMakingCost: 18, BaseHeightLimit: 240, HeightSurcharge1: 8, HemAllowance: 20}
	in := CostInput{
		WidthsRequired: 5,
		AdjustedDrop:   245,
		RailWidth:      300,
		CurtainDrop:    225,
		Fabric:         plainLinen(),
		Lining:         LiningOption{Value: "blackout", Price: 12},
		HeadingPrice:   4,
		Rules:          rules,
	}

	c, err := AggregateCosts(in)
	require.NoError(t, err)
	assert.InDelta(t, 1225.0, c.TotalFabricLength, 1e-9)
	assert.InDelta(t, 12.25, c.TotalFabricMeters, 1e-9)
	assert.InDelta(t, 312.375, c.FabricCost, 1e-9)
	assert.InDelta(t, 147.0, c.LiningCost, 1e-9)
	// (18 + 4) x 3m of rail, below the height limit
	assert.InDelta(t, 66.0, c.ManufacturingCost, 1e-9)
	assert.Zero(t, c.HeightSurcharge)
	assert.InDelta(t, 312.375+147+66, c.Total, 1e-9)
}

func TestAggregateCostsHeightSurcharge(t *testing.T) {
	rules := CalculationRules{BaseMakingCost: 18, BaseHeightLimit: 240, HeightSurcharge1: 8}
	base := CostInput{
		WidthsRequired: 5,
		AdjustedDrop:   270,
		RailWidth:      300,
		Fabric:         plainLinen(),
		HeadingPrice:   4,
		Rules:          rules,
	}

	atLimit := base
	atLimit.CurtainDrop = 240
	c, err := AggregateCosts(atLimit)
	require.NoError(t, err)
	assert.InDelta(t, 66.0, c.ManufacturingCost, 1e-9, "drop equal to the limit is not surcharged")

	above := base
	above.CurtainDrop = 250
	c, err = AggregateCosts(above)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, c.ManufacturingCost, 1e-9)
	assert.Equal(t, 8.0, c.HeightSurcharge)
}

func TestAggregateCostsMonotonicInDrop(t *testing.T) {
	rules := CalculationRules{BaseMakingCost: 18, BaseHeightLimit: 240, HeightSurcharge1: 8}
	prev := -1.0
	for drop := 100.0; drop <= 400; drop += 10 {
		adjusted, err := AdjustDrop(drop, 20, 32)
		require.NoError(t, err)
		c, err := AggregateCosts(CostInput{
			WidthsRequired: 5, AdjustedDrop: adjusted, RailWidth: 300, CurtainDrop: drop,
			Fabric: FabricSelection{Width: 137, PricePerMeter: 25.5}, HeadingPrice: 4, Rules: rules,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.Total, prev, "drop %.0f", drop)
		prev = c.Total
	}
}

func TestAggregateCostsRejectsNegativePrice(t *testing.T) {
	_, err := AggregateCosts(CostInput{
		WidthsRequired: 1, AdjustedDrop: 245, RailWidth: 100, CurtainDrop: 225,
		Fabric: FabricSelection{Width: 137, PricePerMeter: -1},
	})
	var inv *InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "fabric price", inv.Field)
}

func TestResultSell(t *testing.T) {
	gridPrice := 500.0
	tests := []struct {
		name      string
		gridPrice *float64
		source    markup.Source
		wantBase  float64
		wantBasis PriceBasis
	}{
		{"no grid", nil, markup.SourceDefault, 200, PriceBasisCost},
		{"grid tier", &gridPrice, markup.SourcePricingGrid, 500, PriceBasisPricingGrid},
		{"grid price under another tier", &gridPrice, markup.SourceCategory, 200, PriceBasisCost},
		{"grid tier without a covering price", nil, markup.SourcePricingGrid, 200, PriceBasisCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CalculationResult{Costs: Costs{Total: 200}, GridPrice: tt.gridPrice}
			s := r.Sell(markup.Resolved{Percentage: 50, Source: tt.source})
			assert.Equal(t, tt.wantBase, s.PriceBase)
			assert.Equal(t, tt.wantBasis, s.PriceBasis)
			assert.InDelta(t, tt.wantBase*1.5, s.SellingPrice, 1e-9)
			assert.Equal(t, tt.source, s.Markup.Source)
		})
	}
}

func TestCalculatePlainFabric(t *testing.T) {
	res, err := Calculate(CalculationInput{
		RailWidth:   300,
		CurtainDrop: 225,
		Heading:     pencilPleat(),
		Fabric:      plainLinen(),
		Lining:      LiningOption{Value: LiningNone},
		Template:    bareTemplate(),
		Config:      DefaultAppConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, 600.0, res.Layout.RequiredWidth)
	assert.Equal(t, 5, res.Layout.WidthsRequired)
	assert.Equal(t, 245.0, res.AdjustedDrop)
	assert.InDelta(t, 12.25, res.Costs.TotalFabricMeters, 1e-9)
	assert.InDelta(t, 312.375, res.Costs.FabricCost, 1e-9)
	assert.Zero(t, res.Leftovers.Vertical)
	assert.InDelta(t, 85.0, res.Leftovers.Horizontal, 1e-9)
	assert.Nil(t, res.GridPrice)
}

func TestCalculatePatternRepeat(t *testing.T) {
	fabric := plainLinen()
	fabric.PatternRepeat = 32

	res, err := Calculate(CalculationInput{
		RailWidth:   300,
		CurtainDrop: 225,
		Heading:     pencilPleat(),
		Fabric:      fabric,
		Template:    bareTemplate(),
		Config:      DefaultAppConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 245.0, res.RawDrop)
	assert.Equal(t, 256.0, res.AdjustedDrop)
	assert.InDelta(t, 11.0, res.Leftovers.Vertical, 1e-9)
}

func TestCalculateZeroFabricWidth(t *testing.T) {
	fabric := plainLinen()
	fabric.Width = 0

	_, err := Calculate(CalculationInput{
		RailWidth:   300,
		CurtainDrop: 225,
		Heading:     pencilPleat(),
		Fabric:      fabric,
		Template:    bareTemplate(),
		Config:      DefaultAppConfig(),
	})
	var inv *InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "fabric width", inv.Field)
}

func TestCalculateMissingSelection(t *testing.T) {
	in := CalculationInput{RailWidth: 300, CurtainDrop: 225, Fabric: plainLinen(), Config: DefaultAppConfig()}

	in.Heading = pencilPleat()
	_, err := Calculate(in)
	var missing *MissingSelectionError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "template", missing.Field)

	in.Heading = nil
	in.Template = bareTemplate()
	_, err = Calculate(in)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "heading", missing.Field)
}

func TestCalculateHeadingNotOffered(t *testing.T) {
	tmpl := bareTemplate()
	tmpl.HeadingIDs = []string{"wave"}

	_, err := Calculate(CalculationInput{
		RailWidth: 300, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: plainLinen(), Template: tmpl, Config: DefaultAppConfig(),
	})
	var missing *MissingSelectionError
	assert.True(t, errors.As(err, &missing))
}

func TestCalculateTemplateRulesOverrideConfig(t *testing.T) {
	tmpl := bareTemplate()
	tmpl.Rules = TemplateRules{HemAllowance: Float(0), BaseMakingCost: Float(10)}

	res, err := Calculate(CalculationInput{
		RailWidth: 200, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: plainLinen(), Template: tmpl, Config: DefaultAppConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 225.0, res.AdjustedDrop, "explicit zero hem allowance is respected")
	assert.Equal(t, 240.0, res.Rules.BaseHeightLimit)
	assert.InDelta(t, (10.0+4.0)*2, res.Costs.ManufacturingCost, 1e-9)
}

func TestCalculateGridPrice(t *testing.T) {
	g, err := grid.Parse([]byte(`{"widthColumns":[100,200],"dropRows":[{"drop":150,"prices":[40,55]},{"drop":250,"prices":[60,75]}]}`))
	require.NoError(t, err)

	fabric := plainLinen()
	fabric.PricingGrid = &g

	res, err := Calculate(CalculationInput{
		RailWidth: 120, CurtainDrop: 200, Heading: pencilPleat(),
		Fabric: fabric, Template: bareTemplate(), Config: DefaultAppConfig(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.GridPrice)
	assert.Equal(t, 75.0, *res.GridPrice)
}

func TestGridPricedFabricSellsFromGrid(t *testing.T) {
	g, err := grid.Parse([]byte(`{"widthColumns":[400],"dropRows":[{"drop":300,"prices":[999]}]}`))
	require.NoError(t, err)

	fabric := plainLinen()
	fabric.PricingGrid = &g
	fabric.PricingGridMarkup = Float(0)

	res, err := Calculate(CalculationInput{
		RailWidth: 300, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: fabric, Template: bareTemplate(), Config: DefaultAppConfig(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.GridPrice)

	m := markup.Resolve(MarkupContext(fabric, nil), markup.DefaultSettings())
	require.Equal(t, markup.SourcePricingGrid, m.Source)
	require.Zero(t, m.Percentage)

	sell := res.Sell(m)
	assert.InDelta(t, 999.0, sell.SellingPrice, 1e-9)
	assert.Equal(t, PriceBasisPricingGrid, sell.PriceBasis)
	assert.NotEqual(t, res.Costs.Total, sell.SellingPrice)

	// Any other tier marks up the cost total.
	sell = res.Sell(markup.Resolve(MarkupContext(fabric, Float(10)), markup.DefaultSettings()))
	assert.Equal(t, markup.SourceQuoteOverride, sell.Markup.Source)
	assert.Equal(t, PriceBasisCost, sell.PriceBasis)
	assert.InDelta(t, res.Costs.Total*1.1, sell.SellingPrice, 1e-9)

	q := NewQuote("Grid", "", "GBP", CalculationInput{Fabric: fabric}, res, m)
	assert.InDelta(t, 999.0, q.SellingPrice, 1e-9)
	assert.Equal(t, PriceBasisPricingGrid, q.PriceBasis)
}

func TestCalculateLeftoversNeverNegative(t *testing.T) {
	for _, fabricWidth := range []float64{120, 137, 140, 150, 280, 300} {
		for rail := 50.0; rail <= 600; rail += 37.5 {
			fabric := FabricSelection{Width: fabricWidth, PricePerMeter: 20, PatternRepeat: 27}
			res, err := Calculate(CalculationInput{
				RailWidth: rail, CurtainDrop: 231, Heading: pencilPleat(),
				Fabric: fabric, Template: bareTemplate(), Config: DefaultAppConfig(),
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Leftovers.Horizontal, 0.0)
			assert.GreaterOrEqual(t, res.Leftovers.Vertical, 0.0)
			assert.GreaterOrEqual(t, float64(res.Layout.WidthsRequired)*fabricWidth, res.Layout.RequiredWidth)
		}
	}
}

func TestNewQuote(t *testing.T) {
	in := CalculationInput{
		RailWidth: 300, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: plainLinen(), Template: bareTemplate(), Config: DefaultAppConfig(),
	}
	res, err := Calculate(in)
	require.NoError(t, err)

	q := NewQuote("", "Mrs Patel", "GBP", in, res, markup.Resolved{Percentage: 50, Source: markup.SourceDefault})
	assert.Equal(t, "Untitled", q.Title)
	assert.Len(t, q.ID, 8)
	assert.InDelta(t, res.Costs.Total*1.5, q.SellingPrice, 1e-9)
	assert.Equal(t, PriceBasisCost, q.PriceBasis)
	assert.Equal(t, []float64{245, 245, 245, 245, 245}, q.Drops())
}

func TestMarkupContext(t *testing.T) {
	f := plainLinen()
	f.Category = "curtain_fabric"
	f.MarkupPercentage = 35

	ctx := MarkupContext(f, nil)
	require.NotNil(t, ctx.ProductMarkup)
	assert.Equal(t, 35.0, *ctx.ProductMarkup)
	assert.Equal(t, "curtain_fabric", ctx.Category)
	assert.False(t, ctx.UsesPricingGrid)

	f.MarkupPercentage = 0
	assert.Nil(t, MarkupContext(f, nil).ProductMarkup)
}
