package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// Leftovers is the fabric bought but not sewn into the curtain (cm).
type Leftovers struct {
	Vertical   float64 `json:"leftover_vertical"`   // Per drop, from pattern-repeat rounding
	Horizontal float64 `json:"leftover_horizontal"` // Across the joined widths, from rounding up to whole widths
}

// ComputeLeftovers derives the waste introduced by the two roundings. Both
// values are non-negative for any sequence produced by PlanLayout and
// AdjustDrop; a negative value means the caller mixed up its inputs.
func ComputeLeftovers(adjustedDrop, rawDrop float64, widthsRequired int, fabricWidth, requiredWidth float64) (Leftovers, error) {
	vertical := adjustedDrop - rawDrop
	horizontal := float64(widthsRequired)*fabricWidth - requiredWidth

	if vertical < -tolerance(rawDrop) {
		return Leftovers{}, fmt.Errorf("vertical leftover %.4f cm is negative: %w", vertical, ErrInconsistentLayout)
	}
	if horizontal < -tolerance(requiredWidth) {
		return Leftovers{}, fmt.Errorf("horizontal leftover %.4f cm is negative: %w", horizontal, ErrInconsistentLayout)
	}

	return Leftovers{
		Vertical:   clampZero(vertical),
		Horizontal: clampZero(horizontal),
	}, nil
}

// tolerance scales epsilon to the magnitude being compared, matching the
// relative snapping done by ceilDiv.
func tolerance(magnitude float64) float64 {
	return epsilon * math.Max(1, math.Abs(magnitude))
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Offcut is a remnant large enough to go back into the fabric library.
type Offcut struct {
	ID         string  `json:"id"`
	FabricID   string  `json:"fabric_id"`
	FabricName string  `json:"fabric_name"`
	Kind       string  `json:"kind"`   // "width strip" or "repeat trim"
	Width      float64 `json:"width"`  // Across the bolt (cm)
	Length     float64 `json:"length"` // Along the bolt (cm)
	Value      float64 `json:"value"`  // Cost price of the remnant
}

// Area returns the offcut area in square cm.
func (o Offcut) Area() float64 {
	return o.Width * o.Length
}

// ToFabric turns the offcut into a library fabric so it can be quoted
// against later. The remnant's own width becomes its loom width. The name
// carries the size and offcut ID so remnants of one fabric stay distinct.
func (o Offcut) ToFabric(source FabricSelection) FabricSelection {
	name := fmt.Sprintf("Remnant %s %gx%g", o.FabricName, math.Round(o.Width), math.Round(o.Length))
	if o.ID != "" {
		name += " #" + o.ID
	}
	f := NewFabric(name, o.Width, source.PricePerMeter, source.PatternRepeat)
	f.Category = source.Category
	f.Subcategory = source.Subcategory
	return f
}

// MinOffcutDimension is the smallest width or length (cm) worth keeping.
const MinOffcutDimension = 20.0

// MinOffcutArea is the smallest remnant area (sq cm) worth keeping.
const MinOffcutArea = 1500.0

// DetectOffcuts lists the reusable remnants of a calculation.
//
// Only part of the last width is sewn in, so the horizontal leftover is a
// strip running the full cut length of that width. Repeat trims are the
// vertical leftover cut off each drop, one per width.
func DetectOffcuts(r CalculationResult, fabric FabricSelection) []Offcut {
	var offcuts []Offcut

	strip := r.Leftovers.Horizontal
	if strip >= MinOffcutDimension && r.AdjustedDrop >= MinOffcutDimension && strip*r.AdjustedDrop >= MinOffcutArea {
		offcuts = append(offcuts, Offcut{
			ID:         uuid.New().String()[:8],
			FabricID:   fabric.ID,
			FabricName: fabric.Name,
			Kind:       "width strip",
			Width:      strip,
			Length:     r.AdjustedDrop,
		})
	}

	trim := r.Leftovers.Vertical
	if trim >= MinOffcutDimension && fabric.Width >= MinOffcutDimension && trim*fabric.Width >= MinOffcutArea {
		for i := 0; i < r.Layout.WidthsRequired; i++ {
			offcuts = append(offcuts, Offcut{
				ID:         uuid.New().String()[:8],
				FabricID:   fabric.ID,
				FabricName: fabric.Name,
				Kind:       "repeat trim",
				Width:      fabric.Width,
				Length:     trim,
			})
		}
	}

	// Remnants are valued at the fabric's cost price per linear meter,
	// pro rata to their share of the bolt width.
	if fabric.PricePerMeter > 0 && fabric.Width > 0 {
		for i := range offcuts {
			offcuts[i].Value = (offcuts[i].Length / 100) * fabric.PricePerMeter * (offcuts[i].Width / fabric.Width)
		}
	}

	sort.SliceStable(offcuts, func(i, j int) bool {
		return offcuts[i].Area() > offcuts[j].Area()
	})

	return offcuts
}

// TotalOffcutArea returns the total area of all offcuts in square cm.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}
