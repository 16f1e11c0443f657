// Package grid models width x drop pricing grids attached to fabrics and
// products. Historical payloads come in four JSON shapes; the shape is
// detected once when the payload is ingested (Parse) and recorded in the
// Grid's Format so later validation and lookups never re-detect the shape.
package grid

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Format identifies which historical JSON shape a grid was ingested from.
type Format string

const (
	FormatWidthColumns  Format = "width_columns"  // {widthColumns, dropRows}
	FormatRanges        Format = "ranges"         // {widthRanges|widths, dropRanges, prices}
	FormatWidthsHeights Format = "widths_heights" // {widths, heights, prices}
	FormatLegacyRows    Format = "legacy_rows"    // {rows: [{height|drop, <width>: price}]}
)

func (f Format) String() string {
	return string(f)
}

// ErrOutOfRange is returned by Lookup when a dimension exceeds the largest band.
var ErrOutOfRange = errors.New("dimension is outside the pricing grid")

// UnrecognizedGridFormatError reports a payload that matches none of the
// known shapes. PresentKeys lists the top-level keys that were found.
type UnrecognizedGridFormatError struct {
	PresentKeys []string
}

func (e *UnrecognizedGridFormatError) Error() string {
	if len(e.PresentKeys) == 0 {
		return "unrecognized pricing grid format: no keys present"
	}
	return fmt.Sprintf("unrecognized pricing grid format: present keys [%s]", strings.Join(e.PresentKeys, ", "))
}

// DropRow is one drop band of a width-columns grid.
type DropRow struct {
	Drop   float64   `json:"drop"`
	Prices []float64 `json:"prices"`
}

// WidthColumnsGrid is the {widthColumns, dropRows} shape.
type WidthColumnsGrid struct {
	WidthColumns []float64 `json:"widthColumns"`
	DropRows     []DropRow `json:"dropRows"`
}

// RangesGrid is the {widthRanges, dropRanges, prices} shape. Bands are
// stored as their upper bounds.
type RangesGrid struct {
	WidthRanges []float64   `json:"widthRanges"`
	DropRanges  []float64   `json:"dropRanges"`
	Prices      [][]float64 `json:"prices"`
}

// WidthsHeightsGrid is the {widths, heights, prices} shape.
type WidthsHeightsGrid struct {
	Widths  []float64   `json:"widths"`
	Heights []float64   `json:"heights"`
	Prices  [][]float64 `json:"prices"`
}

// LegacyRow is one row of the legacy shape: a drop and a width->price map.
type LegacyRow struct {
	Drop   float64
	Prices map[float64]float64
}

// LegacyGrid is the {rows: [...]} shape.
type LegacyGrid struct {
	Rows []LegacyRow
}

// Grid is a tagged union over the supported shapes. Exactly one payload
// pointer is set, matching Format.
type Grid struct {
	Format        Format
	WidthColumns  *WidthColumnsGrid
	Ranges        *RangesGrid
	WidthsHeights *WidthsHeightsGrid
	Legacy        *LegacyGrid
}

// Matrix is the normalized form of any grid: ascending band upper bounds
// and a drop-major price table.
type Matrix struct {
	Widths []float64   `json:"widths"`
	Drops  []float64   `json:"drops"`
	Prices [][]float64 `json:"prices"`
}

// Validate checks the structural integrity of the grid and returns a
// descriptive error for the first problem found.
func (g Grid) Validate() error {
	if err := g.checkPayload(); err != nil {
		return err
	}
	switch g.Format {
	case FormatWidthColumns:
		return validateWidthColumns(*g.WidthColumns)
	case FormatRanges:
		r := *g.Ranges
		return validateTable(r.WidthRanges, r.DropRanges, r.Prices, "widthRanges", "dropRanges")
	case FormatWidthsHeights:
		wh := *g.WidthsHeights
		return validateTable(wh.Widths, wh.Heights, wh.Prices, "widths", "heights")
	default:
		return validateLegacy(*g.Legacy)
	}
}

// checkPayload reports an unknown format or a nil payload for the tagged one.
func (g Grid) checkPayload() error {
	var missing bool
	switch g.Format {
	case FormatWidthColumns:
		missing = g.WidthColumns == nil
	case FormatRanges:
		missing = g.Ranges == nil
	case FormatWidthsHeights:
		missing = g.WidthsHeights == nil
	case FormatLegacyRows:
		missing = g.Legacy == nil
	default:
		return fmt.Errorf("unknown grid format %q", g.Format)
	}
	if missing {
		return fmt.Errorf("%s payload is missing", g.Format)
	}
	return nil
}

func validateWidthColumns(wc WidthColumnsGrid) error {
	if len(wc.WidthColumns) == 0 {
		return errors.New("widthColumns array is empty")
	}
	if len(wc.DropRows) == 0 {
		return errors.New("dropRows array is empty")
	}
	if err := checkAscending(wc.WidthColumns, "widthColumns"); err != nil {
		return err
	}
	drops := make([]float64, len(wc.DropRows))
	for i, row := range wc.DropRows {
		drops[i] = row.Drop
		if len(row.Prices) != len(wc.WidthColumns) {
			return fmt.Errorf("dropRows[%d] has %d prices, expected %d", i, len(row.Prices), len(wc.WidthColumns))
		}
		if err := checkPrices(row.Prices, fmt.Sprintf("dropRows[%d]", i)); err != nil {
			return err
		}
	}
	return checkAscending(drops, "dropRows")
}

func validateTable(widths, drops []float64, prices [][]float64, widthName, dropName string) error {
	if len(widths) == 0 {
		return fmt.Errorf("%s array is empty", widthName)
	}
	if len(drops) == 0 {
		return fmt.Errorf("%s array is empty", dropName)
	}
	if err := checkAscending(widths, widthName); err != nil {
		return err
	}
	if err := checkAscending(drops, dropName); err != nil {
		return err
	}
	if len(prices) != len(drops) {
		return fmt.Errorf("prices has %d rows, expected %d (one per %s entry)", len(prices), len(drops), dropName)
	}
	for i, row := range prices {
		if len(row) != len(widths) {
			return fmt.Errorf("prices[%d] has %d entries, expected %d", i, len(row), len(widths))
		}
		if err := checkPrices(row, fmt.Sprintf("prices[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateLegacy(lg LegacyGrid) error {
	if len(lg.Rows) == 0 {
		return errors.New("rows array is empty")
	}
	first := sortedWidths(lg.Rows[0].Prices)
	drops := make([]float64, len(lg.Rows))
	for i, row := range lg.Rows {
		if row.Drop <= 0 {
			return fmt.Errorf("rows[%d] is missing a height or drop", i)
		}
		if len(row.Prices) == 0 {
			return fmt.Errorf("rows[%d] has no width prices", i)
		}
		widths := sortedWidths(row.Prices)
		if !equalFloats(widths, first) {
			return fmt.Errorf("rows[%d] widths differ from rows[0]", i)
		}
		for _, w := range widths {
			if row.Prices[w] < 0 {
				return fmt.Errorf("rows[%d] contains a negative price", i)
			}
		}
		drops[i] = row.Drop
	}
	return checkAscending(drops, "rows")
}

func checkAscending(values []float64, name string) error {
	for i, v := range values {
		if v <= 0 {
			return fmt.Errorf("%s[%d] must be positive", name, i)
		}
		if i > 0 && v <= values[i-1] {
			return fmt.Errorf("%s must be strictly ascending", name)
		}
	}
	return nil
}

func checkPrices(prices []float64, name string) error {
	for _, p := range prices {
		if p < 0 {
			return fmt.Errorf("%s contains a negative price", name)
		}
	}
	return nil
}

// Matrix returns the normalized price table. The grid must be valid.
func (g Grid) Matrix() (Matrix, error) {
	if err := g.Validate(); err != nil {
		return Matrix{}, err
	}
	switch g.Format {
	case FormatWidthColumns:
		wc := g.WidthColumns
		m := Matrix{Widths: cloneFloats(wc.WidthColumns)}
		for _, row := range wc.DropRows {
			m.Drops = append(m.Drops, row.Drop)
			m.Prices = append(m.Prices, cloneFloats(row.Prices))
		}
		return m, nil
	case FormatRanges:
		r := g.Ranges
		return Matrix{Widths: cloneFloats(r.WidthRanges), Drops: cloneFloats(r.DropRanges), Prices: cloneTable(r.Prices)}, nil
	case FormatWidthsHeights:
		wh := g.WidthsHeights
		return Matrix{Widths: cloneFloats(wh.Widths), Drops: cloneFloats(wh.Heights), Prices: cloneTable(wh.Prices)}, nil
	default:
		lg := g.Legacy
		m := Matrix{Widths: sortedWidths(lg.Rows[0].Prices)}
		for _, row := range lg.Rows {
			m.Drops = append(m.Drops, row.Drop)
			prices := make([]float64, len(m.Widths))
			for i, w := range m.Widths {
				prices[i] = row.Prices[w]
			}
			m.Prices = append(m.Prices, prices)
		}
		return m, nil
	}
}

// Lookup returns the grid price for a finished width and drop (both cm).
// Each dimension selects the first band whose upper bound covers it.
func (g Grid) Lookup(width, drop float64) (float64, error) {
	m, err := g.Matrix()
	if err != nil {
		return 0, err
	}
	wi := bandIndex(m.Widths, width)
	if wi < 0 {
		return 0, fmt.Errorf("width %.1f exceeds largest band %.1f: %w", width, m.Widths[len(m.Widths)-1], ErrOutOfRange)
	}
	di := bandIndex(m.Drops, drop)
	if di < 0 {
		return 0, fmt.Errorf("drop %.1f exceeds largest band %.1f: %w", drop, m.Drops[len(m.Drops)-1], ErrOutOfRange)
	}
	return m.Prices[di][wi], nil
}

func bandIndex(bands []float64, v float64) int {
	i := sort.SearchFloat64s(bands, v)
	if i >= len(bands) {
		return -1
	}
	return i
}

func sortedWidths(prices map[float64]float64) []float64 {
	widths := make([]float64, 0, len(prices))
	for w := range prices {
		widths = append(widths, w)
	}
	sort.Float64s(widths)
	return widths
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneFloats(v []float64) []float64 {
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp
}

func cloneTable(t [][]float64) [][]float64 {
	cp := make([][]float64, len(t))
	for i, row := range t {
		cp[i] = cloneFloats(row)
	}
	return cp
}
