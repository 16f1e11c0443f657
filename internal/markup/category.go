package markup

import "strings"

// Kind is the cost classification used by the labor/material tier.
type Kind int

const (
	KindUnknown Kind = iota
	KindMaterial
	KindLabor
)

func (k Kind) String() string {
	switch k {
	case KindMaterial:
		return "Material"
	case KindLabor:
		return "Labor"
	default:
		return "Unknown"
	}
}

// parentCategories maps manufacturing keys to the material category whose
// markup they inherit.
var parentCategories = map[string]string{
	"curtain_making":  "curtains",
	"roman_making":    "blinds",
	"roller_making":   "blinds",
	"venetian_making": "blinds",
	"vertical_making": "blinds",
	"blind_making":    "blinds",
	"shutter_making":  "shutters",
	"track_fitting":   "hardware",
	"pole_fitting":    "hardware",
	"wallpaper_hang":  "wallcovering",
}

// ParentCategory returns the material category a manufacturing key falls back to.
func ParentCategory(key string) (string, bool) {
	parent, ok := parentCategories[normalizeKey(key)]
	return parent, ok
}

// Labor keywords are checked first: "curtain making" is labor even though
// it mentions a material.
var (
	laborKeywords    = []string{"making", "labor", "labour", "install", "fitting", "manufactur", "service", "hanging", "measure"}
	materialKeywords = []string{"fabric", "material", "lining", "track", "pole", "rail", "hardware", "blind", "curtain", "shutter", "trimming", "wallpaper"}
)

// Classify decides whether a category name describes labor or material.
func Classify(category string) Kind {
	name := strings.ToLower(category)
	if strings.TrimSpace(name) == "" {
		return KindUnknown
	}
	for _, kw := range laborKeywords {
		if strings.Contains(name, kw) {
			return KindLabor
		}
	}
	for _, kw := range materialKeywords {
		if strings.Contains(name, kw) {
			return KindMaterial
		}
	}
	return KindUnknown
}
