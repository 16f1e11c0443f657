package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CalculationRules are the concrete, resolved making rules for one template.
type CalculationRules struct {
	BaseMakingCost   float64 `json:"baseMakingCost"`   // Per meter of rail
	BaseHeightLimit  float64 `json:"baseHeightLimit"`  // cm; drops above this attract the surcharge
	HeightSurcharge1 float64 `json:"heightSurcharge1"` // Per meter of rail
	HemAllowance     float64 `json:"hemAllowance"`     // cm added to every drop
}

// TemplateRules are the rules as stored on a template. A nil field means
// "not configured" and falls back to the application default; an explicit
// zero is kept as zero.
type TemplateRules struct {
	BaseMakingCost   *float64 `json:"baseMakingCost,omitempty"`
	BaseHeightLimit  *float64 `json:"baseHeightLimit,omitempty"`
	HeightSurcharge1 *float64 `json:"heightSurcharge1,omitempty"`
	HemAllowance     *float64 `json:"hemAllowance,omitempty"`
}

// Resolve fills unset rules from the application config.
func (r TemplateRules) Resolve(cfg AppConfig) CalculationRules {
	return CalculationRules{
		BaseMakingCost:   valueOr(r.BaseMakingCost, cfg.DefaultBaseMakingCost),
		BaseHeightLimit:  valueOr(r.BaseHeightLimit, cfg.DefaultBaseHeightLimit),
		HeightSurcharge1: valueOr(r.HeightSurcharge1, cfg.DefaultHeightSurcharge),
		HemAllowance:     valueOr(r.HemAllowance, cfg.DefaultHemAllowance),
	}
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// Float returns a pointer to v, for building TemplateRules literals.
func Float(v float64) *float64 {
	return &v
}

// ProductTemplate is a made-to-measure product (e.g. "Pencil pleat curtain")
// with its making rules and the headings it can be made with.
type ProductTemplate struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	Rules       TemplateRules `json:"calculation_rules"`
	// HeadingIDs lists the headings offered for this product. Empty means any.
	HeadingIDs []string `json:"heading_ids,omitempty"`
}

// NewProductTemplate creates a new template with a generated ID.
func NewProductTemplate(name, description string, rules TemplateRules, headingIDs []string) ProductTemplate {
	now := time.Now().UTC().Format(time.RFC3339)
	return ProductTemplate{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Rules:       rules,
		HeadingIDs:  copyIDs(headingIDs),
	}
}

// AllowsHeading reports whether the heading can be used with this template.
func (t ProductTemplate) AllowsHeading(id string) bool {
	if len(t.HeadingIDs) == 0 {
		return true
	}
	for _, h := range t.HeadingIDs {
		if h == id {
			return true
		}
	}
	return false
}

// TemplateStore holds a collection of product templates.
type TemplateStore struct {
	Templates []ProductTemplate `json:"templates"`
}

// NewTemplateStore creates an empty template store.
func NewTemplateStore() TemplateStore {
	return TemplateStore{
		Templates: []ProductTemplate{},
	}
}

// DefaultTemplateStore returns the templates shipped with a fresh install.
// Rules left nil pick up the application defaults.
func DefaultTemplateStore() TemplateStore {
	ts := NewTemplateStore()
	for _, t := range []ProductTemplate{
		NewProductTemplate("Pencil Pleat Curtain", "Standard lined curtain on a tape heading",
			TemplateRules{BaseMakingCost: Float(18)}, nil),
		NewProductTemplate("Pinch Pleat Curtain", "Hand-sewn triple pleat",
			TemplateRules{BaseMakingCost: Float(32), HeightSurcharge1: Float(8)}, nil),
		NewProductTemplate("Wave Curtain", "Wave heading on a corded track",
			TemplateRules{BaseMakingCost: Float(24), HeightSurcharge1: Float(6), HemAllowance: Float(25)}, nil),
	} {
		ts.Templates = append(ts.Templates, t)
	}
	return ts
}

var (
	// ErrTemplateNameRequired is returned when adding a template without a name.
	ErrTemplateNameRequired = errors.New("template name is required")
	// ErrDuplicateTemplate is returned when a template name is already taken.
	// Names compare case-insensitively.
	ErrDuplicateTemplate = errors.New("a template with that name already exists")
)

// Validate checks that every configured rule is a finite, non-negative number.
func (r TemplateRules) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"baseMakingCost", r.BaseMakingCost},
		{"baseHeightLimit", r.BaseHeightLimit},
		{"heightSurcharge1", r.HeightSurcharge1},
		{"hemAllowance", r.HemAllowance},
	} {
		if f.v == nil {
			continue
		}
		if err := requireNonNegative(f.name, *f.v); err != nil {
			return err
		}
	}
	return nil
}

// Add validates the template and appends it to the store.
func (ts *TemplateStore) Add(t ProductTemplate) error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrTemplateNameRequired
	}
	for _, existing := range ts.Templates {
		if strings.EqualFold(strings.TrimSpace(existing.Name), name) {
			return fmt.Errorf("%w: %q", ErrDuplicateTemplate, name)
		}
	}
	if err := t.Rules.Validate(); err != nil {
		return err
	}
	t.Name = name
	ts.Templates = append(ts.Templates, t)
	return nil
}

// Remove deletes the template with the given ID and reports whether it existed.
func (ts *TemplateStore) Remove(id string) bool {
	i := ts.index(id)
	if i < 0 {
		return false
	}
	ts.Templates = slices.Delete(ts.Templates, i, i+1)
	return true
}

// FindByID returns the template with the given ID, or nil. The pointer
// aliases the store and is invalidated by Add or Remove.
func (ts *TemplateStore) FindByID(id string) *ProductTemplate {
	if i := ts.index(id); i >= 0 {
		return &ts.Templates[i]
	}
	return nil
}

func (ts *TemplateStore) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(ts.Templates, func(t ProductTemplate) bool { return t.ID == id })
}

func copyIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	cp := make([]string, len(ids))
	copy(cp, ids)
	return cp
}
