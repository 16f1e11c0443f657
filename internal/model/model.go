package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/DrapeCalc/internal/markup"
)

// Quote ties a calculation and its selling price together for save/load.
type Quote struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Customer  string            `json:"customer,omitempty"`
	Currency  string            `json:"currency"`
	CreatedAt time.Time         `json:"created_at"`
	Input     CalculationInput  `json:"input"`
	Result    CalculationResult `json:"result"`
	Markup    markup.Resolved   `json:"markup"`
	// PriceBase is the grid price or cost total the markup was applied to.
	PriceBase    float64    `json:"price_base"`
	PriceBasis   PriceBasis `json:"price_basis"`
	SellingPrice float64    `json:"selling_price"`
}

// NewQuote creates a quote from a finished calculation.
func NewQuote(title, customer, currency string, in CalculationInput, res CalculationResult, m markup.Resolved) Quote {
	if title == "" {
		title = "Untitled"
	}
	sell := res.Sell(m)
	return Quote{
		ID:           uuid.New().String()[:8],
		Title:        title,
		Customer:     customer,
		Currency:     currency,
		CreatedAt:    time.Now().UTC(),
		Input:        in,
		Result:       res,
		Markup:       sell.Markup,
		PriceBase:    sell.PriceBase,
		PriceBasis:   sell.PriceBasis,
		SellingPrice: sell.SellingPrice,
	}
}

// Drops lists the cut lengths for the work order: one per fabric width.
func (q Quote) Drops() []float64 {
	drops := make([]float64, q.Result.Layout.WidthsRequired)
	for i := range drops {
		drops[i] = q.Result.AdjustedDrop
	}
	return drops
}

// MarkupContext builds the markup lookup context for a fabric line.
func MarkupContext(f FabricSelection, override *float64) markup.Context {
	ctx := markup.Context{
		QuoteOverride:   override,
		ProductName:     f.Name,
		UsesPricingGrid: f.UsesPricingGrid(),
		GridMarkup:      f.PricingGridMarkup,
		GridName:        f.Name,
		Category:        f.Category,
		Subcategory:     f.Subcategory,
	}
	if f.MarkupPercentage > 0 {
		pct := f.MarkupPercentage
		ctx.ProductMarkup = &pct
	}
	return ctx
}
