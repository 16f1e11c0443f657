package model

import "math"

// RawDrop is the cut length before pattern matching: finished drop plus
// the hem and heading allowance.
func RawDrop(curtainDrop, hemAllowance float64) (float64, error) {
	if err := requirePositive("curtain drop", curtainDrop); err != nil {
		return 0, err
	}
	if err := requireNonNegative("hem allowance", hemAllowance); err != nil {
		return 0, err
	}
	return curtainDrop + hemAllowance, nil
}

// AdjustDrop returns the cut length per drop. With a pattern repeat the raw
// drop is rounded up to the next whole repeat so the design lines up across
// joined widths; plains (repeat <= 0) are cut at the raw drop.
func AdjustDrop(curtainDrop, hemAllowance, patternRepeat float64) (float64, error) {
	raw, err := RawDrop(curtainDrop, hemAllowance)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(patternRepeat) || math.IsInf(patternRepeat, 0) {
		return 0, &InvalidInputError{Field: "pattern repeat", Value: patternRepeat, Reason: "must be a finite number"}
	}
	if patternRepeat <= 0 {
		return raw, nil
	}

	adjusted := ceilDiv(raw, patternRepeat) * patternRepeat
	if adjusted < raw {
		adjusted = raw
	}
	return adjusted, nil
}
