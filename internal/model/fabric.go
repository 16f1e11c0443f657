package model

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/piwi3910/DrapeCalc/internal/grid"
)

// FabricSelection is one fabric choice for a calculation. All lengths are cm.
type FabricSelection struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Width             float64    `json:"width"`                    // Loom width of the bolt
	PricePerMeter     float64    `json:"price_per_meter"`          // Cost price per linear meter
	PatternRepeat     float64    `json:"pattern_repeat,omitempty"` // Vertical repeat, 0 for plains
	Category          string     `json:"category,omitempty"`
	Subcategory       string     `json:"subcategory,omitempty"`
	MarkupPercentage  float64    `json:"markup_percentage,omitempty"`
	PricingGridMarkup *float64   `json:"pricing_grid_markup,omitempty"`
	PricingGrid       *grid.Grid `json:"pricing_grid_data,omitempty"`
	// PricingGridIssue explains why stored grid data could not be parsed.
	// The fabric is then priced per meter and the raw data is kept as is.
	PricingGridIssue string `json:"pricing_grid_issue,omitempty"`

	rawGrid json.RawMessage
}

type fabricAlias FabricSelection

// UnmarshalJSON decodes a fabric without failing on bad pricing grid data,
// so one malformed grid cannot make a whole library unreadable.
func (f *FabricSelection) UnmarshalJSON(data []byte) error {
	var aux struct {
		fabricAlias
		PricingGrid json.RawMessage `json:"pricing_grid_data,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = FabricSelection(aux.fabricAlias)
	f.PricingGrid = nil
	f.PricingGridIssue = ""
	f.rawGrid = nil

	raw := bytes.TrimSpace(aux.PricingGrid)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	g, err := grid.Parse(raw)
	if err != nil {
		f.PricingGridIssue = err.Error()
		f.rawGrid = append(json.RawMessage(nil), raw...)
		return nil
	}
	if err := g.Validate(); err != nil {
		f.PricingGridIssue = err.Error()
	}
	f.PricingGrid = &g
	return nil
}

// MarshalJSON writes the parsed grid, or the original bytes when they could
// not be parsed.
func (f FabricSelection) MarshalJSON() ([]byte, error) {
	aux := struct {
		fabricAlias
		PricingGrid any `json:"pricing_grid_data,omitempty"`
	}{fabricAlias: fabricAlias(f)}
	switch {
	case f.PricingGrid != nil:
		aux.PricingGrid = f.PricingGrid
	case len(f.rawGrid) > 0:
		aux.PricingGrid = f.rawGrid
	}
	return json.Marshal(aux)
}

// NewFabric creates a fabric with a generated ID.
func NewFabric(name string, width, pricePerMeter, patternRepeat float64) FabricSelection {
	return FabricSelection{
		ID:            uuid.New().String()[:8],
		Name:          name,
		Width:         width,
		PricePerMeter: pricePerMeter,
		PatternRepeat: patternRepeat,
	}
}

// UsesPricingGrid reports whether the fabric carries a valid pricing grid.
func (f FabricSelection) UsesPricingGrid() bool {
	return f.PricingGrid != nil && f.PricingGrid.Validate() == nil
}

// HeadingOption is a heading style. Fullness multiplies the rail width to
// give the gathered fabric width; Price is charged per meter of rail.
type HeadingOption struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Fullness float64 `json:"fullness"`
	Price    float64 `json:"price"`
}

// NewHeading creates a heading option with a generated ID.
func NewHeading(name string, fullness, price float64) HeadingOption {
	return HeadingOption{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Fullness: fullness,
		Price:    price,
	}
}

// LiningOption is a lining choice priced per meter of fabric used.
type LiningOption struct {
	Value string  `json:"value"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// LiningNone is the value of the unlined option.
const LiningNone = "none"

// DefaultLiningOptions returns the built-in lining choices.
func DefaultLiningOptions() []LiningOption {
	return []LiningOption{
		{Value: LiningNone, Label: "Unlined", Price: 0},
		{Value: "standard", Label: "Standard Cotton Sateen", Price: 8.5},
		{Value: "blackout", Label: "Blackout", Price: 12.0},
		{Value: "thermal", Label: "Thermal", Price: 10.5},
		{Value: "interlined", Label: "Interlined (bump + sateen)", Price: 18.0},
	}
}
