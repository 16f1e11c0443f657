package model

import (
	"errors"
	"fmt"
	"math"
)

// MissingSelectionError means a required choice (template, heading) was not
// made before a calculation was requested.
type MissingSelectionError struct {
	Field string
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("missing selection: %s must be chosen before calculating", e.Field)
}

// InvalidInputError reports a dimension or price that would make the
// arithmetic meaningless (zero widths, negative lengths, NaN).
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// ErrInconsistentLayout is returned when derived quantities contradict each
// other, e.g. a negative leftover. It indicates a defect, not bad input.
var ErrInconsistentLayout = errors.New("inconsistent fabric layout")

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be greater than zero"}
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &InvalidInputError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return nil
}
