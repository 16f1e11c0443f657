// Package markup resolves which markup percentage applies to a cost line.
//
// Markup can be configured at several granularities. Resolution walks an
// ordered chain of strategies and the first one that produces a value wins,
// so the most specific setting always takes precedence over broader ones.
package markup

import (
	"strings"
)

// Source names the tier a resolved markup came from.
type Source string

const (
	SourceQuoteOverride Source = "quote_override"
	SourceProduct       Source = "product"
	SourceImplied       Source = "implied"
	SourcePricingGrid   Source = "pricing_grid"
	SourceSubcategory   Source = "subcategory"
	SourceCategory      Source = "category"
	SourceMaterial      Source = "material"
	SourceLabor         Source = "labor"
	SourceDefault       Source = "default"
	SourceMinimum       Source = "minimum"
)

// Context describes the item a markup is being resolved for. Optional
// percentages are pointers so that "unset" differs from an explicit zero.
type Context struct {
	QuoteOverride   *float64 `json:"quote_override,omitempty"`
	ProductMarkup   *float64 `json:"product_markup,omitempty"`
	ProductName     string   `json:"product_name,omitempty"`
	CostPrice       float64  `json:"cost_price,omitempty"`
	SellingPrice    float64  `json:"selling_price,omitempty"`
	UsesPricingGrid bool     `json:"uses_pricing_grid,omitempty"`
	GridMarkup      *float64 `json:"grid_markup,omitempty"`
	GridName        string   `json:"grid_name,omitempty"`
	Category        string   `json:"category,omitempty"`
	Subcategory     string   `json:"subcategory,omitempty"`
}

// Settings holds the account-wide markup configuration.
type Settings struct {
	DefaultMarkupPercent  float64            `json:"default_markup_percentage"`
	LaborMarkupPercent    float64            `json:"labor_markup_percentage"`
	MaterialMarkupPercent float64            `json:"material_markup_percentage"`
	MinimumMarkupPercent  float64            `json:"minimum_markup_percentage"`
	CategoryMarkups       map[string]float64 `json:"category_markups"`
	SubcategoryMarkups    map[string]float64 `json:"subcategory_markups"`
}

// DefaultSettings returns the settings a new account starts with.
func DefaultSettings() Settings {
	return Settings{
		DefaultMarkupPercent:  50,
		LaborMarkupPercent:    30,
		MaterialMarkupPercent: 40,
		MinimumMarkupPercent:  0,
		CategoryMarkups:       map[string]float64{},
		SubcategoryMarkups:    map[string]float64{},
	}
}

// Resolved is the outcome of a markup resolution.
type Resolved struct {
	Percentage float64 `json:"percentage"`
	Source     Source  `json:"source"`
	SourceName string  `json:"source_name"`
}

// Resolver is one tier of the chain. It reports false when the tier has
// nothing to say about the context.
type Resolver func(Context, Settings) (Resolved, bool)

// Chain is the resolution order, most specific first. Minimum always
// resolves, so the chain never falls off the end.
var Chain = []Resolver{
	FromQuoteOverride,
	FromProduct,
	FromImplied,
	FromPricingGrid,
	FromSubcategory,
	FromCategory,
	FromClassification,
	FromDefault,
	FromMinimum,
}

// Resolve applies Chain to ctx.
func Resolve(ctx Context, s Settings) Resolved {
	return ResolveWith(Chain, ctx, s)
}

// ResolveWith returns the first result produced by chain. An empty or
// exhausted chain yields a zero markup attributed to the minimum tier.
func ResolveWith(chain []Resolver, ctx Context, s Settings) Resolved {
	for _, r := range chain {
		if res, ok := r(ctx, s); ok {
			return res
		}
	}
	return Resolved{Source: SourceMinimum, SourceName: "Minimum markup"}
}

// FromQuoteOverride uses a positive quote-level override.
func FromQuoteOverride(ctx Context, _ Settings) (Resolved, bool) {
	if ctx.QuoteOverride == nil || *ctx.QuoteOverride <= 0 {
		return Resolved{}, false
	}
	return Resolved{Percentage: *ctx.QuoteOverride, Source: SourceQuoteOverride, SourceName: "Quote override"}, true
}

// FromProduct uses a positive product-level markup.
func FromProduct(ctx Context, _ Settings) (Resolved, bool) {
	if ctx.ProductMarkup == nil || *ctx.ProductMarkup <= 0 {
		return Resolved{}, false
	}
	return Resolved{Percentage: *ctx.ProductMarkup, Source: SourceProduct, SourceName: nameOr(ctx.ProductName, "Product")}, true
}

// FromImplied derives the markup from a cost and selling price recorded on the item.
func FromImplied(ctx Context, _ Settings) (Resolved, bool) {
	pct := ImpliedMarkup(ctx.CostPrice, ctx.SellingPrice)
	if pct <= 0 {
		return Resolved{}, false
	}
	return Resolved{Percentage: pct, Source: SourceImplied, SourceName: nameOr(ctx.ProductName, "Item") + " (cost vs selling)"}, true
}

// FromPricingGrid uses the grid markup. When the item is explicitly grid
// priced, a markup of exactly zero is honoured: grid prices already carry
// the seller's margin.
func FromPricingGrid(ctx Context, _ Settings) (Resolved, bool) {
	if ctx.GridMarkup == nil {
		return Resolved{}, false
	}
	pct := *ctx.GridMarkup
	if pct > 0 || (ctx.UsesPricingGrid && pct == 0) {
		return Resolved{Percentage: pct, Source: SourcePricingGrid, SourceName: nameOr(ctx.GridName, "Pricing grid")}, true
	}
	return Resolved{}, false
}

// FromSubcategory uses the configured subcategory markup.
func FromSubcategory(ctx Context, s Settings) (Resolved, bool) {
	key := normalizeKey(ctx.Subcategory)
	if key == "" {
		return Resolved{}, false
	}
	if pct, ok := s.SubcategoryMarkups[key]; ok && pct > 0 {
		return Resolved{Percentage: pct, Source: SourceSubcategory, SourceName: ctx.Subcategory}, true
	}
	return Resolved{}, false
}

// FromCategory uses the configured category markup, falling back to the
// parent material category for manufacturing keys such as roman_making.
func FromCategory(ctx Context, s Settings) (Resolved, bool) {
	key := normalizeKey(ctx.Category)
	if key == "" {
		return Resolved{}, false
	}
	if pct, ok := s.CategoryMarkups[key]; ok && pct > 0 {
		return Resolved{Percentage: pct, Source: SourceCategory, SourceName: ctx.Category}, true
	}
	if parent, ok := ParentCategory(key); ok {
		if pct, ok := s.CategoryMarkups[parent]; ok && pct > 0 {
			return Resolved{Percentage: pct, Source: SourceCategory, SourceName: parent + " (via " + key + ")"}, true
		}
	}
	return Resolved{}, false
}

// FromClassification applies the labor or material markup based on
// keywords in the category name.
func FromClassification(ctx Context, s Settings) (Resolved, bool) {
	switch Classify(ctx.Category) {
	case KindLabor:
		if s.LaborMarkupPercent > 0 {
			return Resolved{Percentage: s.LaborMarkupPercent, Source: SourceLabor, SourceName: "Labor markup"}, true
		}
	case KindMaterial:
		if s.MaterialMarkupPercent > 0 {
			return Resolved{Percentage: s.MaterialMarkupPercent, Source: SourceMaterial, SourceName: "Material markup"}, true
		}
	}
	return Resolved{}, false
}

// FromDefault uses the global default markup.
func FromDefault(_ Context, s Settings) (Resolved, bool) {
	if s.DefaultMarkupPercent <= 0 {
		return Resolved{}, false
	}
	return Resolved{Percentage: s.DefaultMarkupPercent, Source: SourceDefault, SourceName: "Global default"}, true
}

// FromMinimum always resolves to the configured floor.
func FromMinimum(_ Context, s Settings) (Resolved, bool) {
	pct := s.MinimumMarkupPercent
	if pct < 0 {
		pct = 0
	}
	return Resolved{Percentage: pct, Source: SourceMinimum, SourceName: "Minimum markup"}, true
}

// ImpliedMarkup returns (selling - cost) / cost * 100, or 0 when either
// price is unset.
func ImpliedMarkup(cost, selling float64) float64 {
	if cost <= 0 || selling <= 0 {
		return 0
	}
	return (selling - cost) / cost * 100
}

// ApplyMarkup returns cost increased by pct percent.
func ApplyMarkup(cost, pct float64) float64 {
	return cost * (1 + pct/100)
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
