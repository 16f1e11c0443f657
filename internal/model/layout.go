package model

import (
	"fmt"
	"math"
)

// epsilon absorbs float noise when a quotient should be a whole number
// (e.g. 0.3 / 0.1).
const epsilon = 1e-9

// maxWidths bounds the width and drop counts so they always fit an int.
const maxWidths = math.MaxInt32

// Layout describes how many fabric widths are joined to make the curtain.
type Layout struct {
	RequiredWidth  float64 `json:"required_width"`  // Rail width x fullness (cm)
	WidthsRequired int     `json:"widths_required"` // Whole fabric widths needed
	DropsPerWidth  int     `json:"drops_per_width"` // Display only: rail widths that fit across one fabric width
}

// PlanLayout computes the gathered width and the number of fabric widths.
// Partial widths are unusable, so the count is always rounded up.
// Fullness below 1 is accepted; it only has to be positive.
func PlanLayout(railWidth, fullness, fabricWidth float64) (Layout, error) {
	if err := requirePositive("fabric width", fabricWidth); err != nil {
		return Layout{}, err
	}
	if err := requirePositive("rail width", railWidth); err != nil {
		return Layout{}, err
	}
	if err := requirePositive("fullness", fullness); err != nil {
		return Layout{}, err
	}

	required := railWidth * fullness
	widths := ceilDiv(required, fabricWidth)
	if math.IsInf(required, 0) || widths > maxWidths {
		return Layout{}, &InvalidInputError{Field: "rail width", Value: railWidth,
			Reason: fmt.Sprintf("needs more than %d fabric widths", maxWidths)}
	}
	drops := math.Floor(fabricWidth/railWidth + epsilon)
	if drops > maxWidths {
		return Layout{}, &InvalidInputError{Field: "rail width", Value: railWidth,
			Reason: "too small for the fabric width"}
	}
	return Layout{
		RequiredWidth:  required,
		WidthsRequired: int(widths),
		DropsPerWidth:  int(drops),
	}, nil
}

// ceilDiv returns ceil(a/b), treating quotients within epsilon of a whole
// number as that number.
func ceilDiv(a, b float64) float64 {
	q := a / b
	if r := math.Round(q); math.Abs(q-r) < epsilon {
		return r
	}
	return math.Ceil(q)
}
