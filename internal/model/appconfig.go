package model

import "github.com/piwi3910/DrapeCalc/internal/markup"

// AppConfig holds application-wide preferences and default rules.
type AppConfig struct {
	Currency string `json:"currency"`

	// Defaults for rules a template leaves unset
	DefaultHemAllowance    float64 `json:"default_hem_allowance"`     // cm
	DefaultBaseHeightLimit float64 `json:"default_base_height_limit"` // cm
	DefaultBaseMakingCost  float64 `json:"default_base_making_cost"`  // per meter of rail
	DefaultHeightSurcharge float64 `json:"default_height_surcharge"`  // per meter of rail

	Markup markup.Settings `json:"markup"`

	RecentQuotes []string `json:"recent_quotes"`
}

// DefaultAppConfig returns an AppConfig populated with the standard
// workroom defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Currency:               "GBP",
		DefaultHemAllowance:    20,
		DefaultBaseHeightLimit: 240,
		DefaultBaseMakingCost:  0,
		DefaultHeightSurcharge: 0,
		Markup:                 markup.DefaultSettings(),
		RecentQuotes:           []string{},
	}
}

// AddRecentQuote moves id to the front of the recent list, keeping at most max entries.
func (c *AppConfig) AddRecentQuote(id string, max int) {
	recent := []string{id}
	for _, r := range c.RecentQuotes {
		if r != id {
			recent = append(recent, r)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	c.RecentQuotes = recent
}
