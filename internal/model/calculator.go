package model

import (
	"github.com/piwi3910/DrapeCalc/internal/markup"
)

// CostInput carries everything the cost aggregator needs. Lengths are cm.
type CostInput struct {
	WidthsRequired int
	AdjustedDrop   float64
	RailWidth      float64
	CurtainDrop    float64
	Fabric         FabricSelection
	Lining         LiningOption
	HeadingPrice   float64
	Rules          CalculationRules
}

// Costs holds derived quantities and cost prices for one curtain.
type Costs struct {
	TotalFabricLength float64 `json:"total_fabric_length"` // cm
	TotalFabricMeters float64 `json:"total_fabric_meters"`
	FabricCost        float64 `json:"fabric_cost"`
	LiningCost        float64 `json:"lining_cost"`
	ManufacturingCost float64 `json:"manufacturing_cost"`
	HeightSurcharge   float64 `json:"height_surcharge"` // Per-meter surcharge applied, 0 below the limit
	Total             float64 `json:"total"`
}

// AggregateCosts prices fabric, lining and making. Lining is assumed to be
// used at the same linear rate as the face fabric. Making is charged per
// meter of rail, with a flat per-meter surcharge once the drop exceeds the
// template's height limit.
func AggregateCosts(in CostInput) (Costs, error) {
	if in.WidthsRequired < 0 {
		return Costs{}, &InvalidInputError{Field: "widths required", Value: float64(in.WidthsRequired), Reason: "must not be negative"}
	}
	if err := requirePositive("adjusted drop", in.AdjustedDrop); err != nil {
		return Costs{}, err
	}
	if err := requirePositive("rail width", in.RailWidth); err != nil {
		return Costs{}, err
	}
	if err := requirePositive("curtain drop", in.CurtainDrop); err != nil {
		return Costs{}, err
	}
	for _, check := range []struct {
		field string
		value float64
	}{
		{"fabric price", in.Fabric.PricePerMeter},
		{"lining price", in.Lining.Price},
		{"heading price", in.HeadingPrice},
		{"base making cost", in.Rules.BaseMakingCost},
		{"height surcharge", in.Rules.HeightSurcharge1},
	} {
		if err := requireNonNegative(check.field, check.value); err != nil {
			return Costs{}, err
		}
	}

	length := float64(in.WidthsRequired) * in.AdjustedDrop
	meters := length / 100

	var surcharge float64
	if in.CurtainDrop > in.Rules.BaseHeightLimit {
		surcharge = in.Rules.HeightSurcharge1
	}

	c := Costs{
		TotalFabricLength: length,
		TotalFabricMeters: meters,
		FabricCost:        meters * in.Fabric.PricePerMeter,
		LiningCost:        in.Lining.Price * meters,
		ManufacturingCost: (in.Rules.BaseMakingCost + in.HeadingPrice + surcharge) * (in.RailWidth / 100),
		HeightSurcharge:   surcharge,
	}
	c.Total = c.FabricCost + c.LiningCost + c.ManufacturingCost
	return c, nil
}

// CalculationInput is the aggregate input to one calculation pass.
type CalculationInput struct {
	RailWidth   float64          `json:"rail_width"`
	CurtainDrop float64          `json:"curtain_drop"`
	Heading     *HeadingOption   `json:"heading"`
	Fabric      FabricSelection  `json:"fabric"`
	Lining      LiningOption     `json:"lining"`
	Template    *ProductTemplate `json:"template"`
	// Config supplies defaults for rules the template leaves unset.
	Config AppConfig `json:"-"`
}

// CalculationResult is the output of Calculate.
type CalculationResult struct {
	Layout       Layout           `json:"layout"`
	RawDrop      float64          `json:"raw_drop"`
	AdjustedDrop float64          `json:"adjusted_drop"`
	Rules        CalculationRules `json:"rules"`
	Costs        Costs            `json:"costs"`
	Leftovers    Leftovers        `json:"leftovers"`
	Offcuts      []Offcut         `json:"offcuts"`
	// GridPrice is set when the fabric has a valid pricing grid covering the
	// rail width and drop.
	GridPrice *float64 `json:"grid_price,omitempty"`
}

// PriceBasis names the amount a markup was applied to.
type PriceBasis string

const (
	PriceBasisCost        PriceBasis = "cost"
	PriceBasisPricingGrid PriceBasis = "pricing_grid"
)

// Selling is a price base with a resolved markup applied.
type Selling struct {
	Markup       markup.Resolved `json:"markup"`
	PriceBase    float64         `json:"price_base"`
	PriceBasis   PriceBasis      `json:"price_basis"`
	SellingPrice float64         `json:"selling_price"`
}

// Sell applies a resolved markup. A markup from the pricing-grid tier is
// applied to the grid price, which already carries the margin; any other
// tier marks up the cost total.
func (r CalculationResult) Sell(m markup.Resolved) Selling {
	base, basis := r.Costs.Total, PriceBasisCost
	if r.GridPrice != nil && m.Source == markup.SourcePricingGrid {
		base, basis = *r.GridPrice, PriceBasisPricingGrid
	}
	return Selling{
		Markup:       m,
		PriceBase:    base,
		PriceBasis:   basis,
		SellingPrice: markup.ApplyMarkup(base, m.Percentage),
	}
}

// Calculate runs the full pipeline: layout, pattern-repeat adjustment,
// costing, leftovers and reusable offcuts.
func Calculate(in CalculationInput) (CalculationResult, error) {
	if in.Template == nil {
		return CalculationResult{}, &MissingSelectionError{Field: "template"}
	}
	if in.Heading == nil {
		return CalculationResult{}, &MissingSelectionError{Field: "heading"}
	}
	if !in.Template.AllowsHeading(in.Heading.ID) {
		return CalculationResult{}, &MissingSelectionError{Field: "heading available for template " + in.Template.Name}
	}

	rules := in.Template.Rules.Resolve(in.Config)

	layout, err := PlanLayout(in.RailWidth, in.Heading.Fullness, in.Fabric.Width)
	if err != nil {
		return CalculationResult{}, err
	}

	raw, err := RawDrop(in.CurtainDrop, rules.HemAllowance)
	if err != nil {
		return CalculationResult{}, err
	}
	adjusted, err := AdjustDrop(in.CurtainDrop, rules.HemAllowance, in.Fabric.PatternRepeat)
	if err != nil {
		return CalculationResult{}, err
	}

	costs, err := AggregateCosts(CostInput{
		WidthsRequired: layout.WidthsRequired,
		AdjustedDrop:   adjusted,
		RailWidth:      in.RailWidth,
		CurtainDrop:    in.CurtainDrop,
		Fabric:         in.Fabric,
		Lining:         in.Lining,
		HeadingPrice:   in.Heading.Price,
		Rules:          rules,
	})
	if err != nil {
		return CalculationResult{}, err
	}

	leftovers, err := ComputeLeftovers(adjusted, raw, layout.WidthsRequired, in.Fabric.Width, layout.RequiredWidth)
	if err != nil {
		return CalculationResult{}, err
	}

	result := CalculationResult{
		Layout:       layout,
		RawDrop:      raw,
		AdjustedDrop: adjusted,
		Rules:        rules,
		Costs:        costs,
		Leftovers:    leftovers,
	}
	result.Offcuts = DetectOffcuts(result, in.Fabric)

	if in.Fabric.UsesPricingGrid() {
		if price, err := in.Fabric.PricingGrid.Lookup(in.RailWidth, in.CurtainDrop); err == nil {
			result.GridPrice = &price
		}
	}

	return result, nil
}
