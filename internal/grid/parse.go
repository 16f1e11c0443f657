package grid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Validation is the outcome of checking a raw pricing-grid payload.
type Validation struct {
	Valid  bool   `json:"valid"`
	Format Format `json:"format,omitempty"`
	Reason string `json:"reason,omitempty"`
	// PresentKeys is filled when the payload shape was not recognized.
	PresentKeys []string `json:"present_keys,omitempty"`
}

// Parse detects the shape of a raw pricing-grid payload and decodes it.
// Payloads carrying an explicit "format" field are decoded as that format
// without shape detection.
func Parse(raw []byte) (Grid, error) {
	if trimmed := bytes.TrimSpace(raw); json.Valid(trimmed) && !bytes.HasPrefix(trimmed, []byte("{")) {
		// Arrays, strings and numbers are well-formed JSON but not a grid.
		return Grid{}, &UnrecognizedGridFormatError{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Grid{}, fmt.Errorf("decode pricing grid: %w", err)
	}
	if fields == nil {
		return Grid{}, &UnrecognizedGridFormatError{}
	}

	format, err := detectFormat(fields)
	if err != nil {
		return Grid{}, err
	}
	return decodeAs(format, fields)
}

// ValidatePricingGrid parses and validates a raw payload. It never returns
// an error; problems are reported in the Validation.
func ValidatePricingGrid(raw []byte) Validation {
	g, err := Parse(raw)
	if err != nil {
		v := Validation{Reason: err.Error()}
		var unrecognized *UnrecognizedGridFormatError
		if errors.As(err, &unrecognized) {
			v.PresentKeys = unrecognized.PresentKeys
		}
		return v
	}
	if err := g.Validate(); err != nil {
		return Validation{Format: g.Format, Reason: err.Error()}
	}
	return Validation{Valid: true, Format: g.Format}
}

// HasValidPricingGrid reports whether raw is a recognized, valid grid.
// Anything else means the item is not grid priced.
func HasValidPricingGrid(raw []byte) bool {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false
	}
	return ValidatePricingGrid(raw).Valid
}

func detectFormat(fields map[string]json.RawMessage) (Format, error) {
	if tag, ok := fields["format"]; ok {
		var f Format
		if err := json.Unmarshal(tag, &f); err != nil {
			return "", fmt.Errorf("decode grid format tag: %w", err)
		}
		switch f {
		case FormatWidthColumns, FormatRanges, FormatWidthsHeights, FormatLegacyRows:
			return f, nil
		}
		return "", fmt.Errorf("unknown grid format %q", f)
	}

	has := func(k string) bool {
		_, ok := fields[k]
		return ok
	}

	switch {
	case has("widthColumns") && has("dropRows"):
		return FormatWidthColumns, nil
	case (has("widthRanges") || has("widths")) && has("dropRanges") && has("prices"):
		return FormatRanges, nil
	case has("widths") && has("heights") && has("prices"):
		return FormatWidthsHeights, nil
	case has("rows"):
		return FormatLegacyRows, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "", &UnrecognizedGridFormatError{PresentKeys: keys}
}

func decodeAs(format Format, fields map[string]json.RawMessage) (Grid, error) {
	g := Grid{Format: format}
	switch format {
	case FormatWidthColumns:
		widths, err := decodeBands(fields["widthColumns"], "widthColumns")
		if err != nil {
			return Grid{}, err
		}
		rows, err := decodeDropRows(fields["dropRows"])
		if err != nil {
			return Grid{}, err
		}
		g.WidthColumns = &WidthColumnsGrid{WidthColumns: widths, DropRows: rows}

	case FormatRanges:
		widthKey := "widthRanges"
		if _, ok := fields[widthKey]; !ok {
			widthKey = "widths"
		}
		widths, err := decodeBands(fields[widthKey], widthKey)
		if err != nil {
			return Grid{}, err
		}
		drops, err := decodeBands(fields["dropRanges"], "dropRanges")
		if err != nil {
			return Grid{}, err
		}
		prices, err := decodeTable(fields["prices"])
		if err != nil {
			return Grid{}, err
		}
		g.Ranges = &RangesGrid{WidthRanges: widths, DropRanges: drops, Prices: prices}

	case FormatWidthsHeights:
		widths, err := decodeBands(fields["widths"], "widths")
		if err != nil {
			return Grid{}, err
		}
		heights, err := decodeBands(fields["heights"], "heights")
		if err != nil {
			return Grid{}, err
		}
		prices, err := decodeTable(fields["prices"])
		if err != nil {
			return Grid{}, err
		}
		g.WidthsHeights = &WidthsHeightsGrid{Widths: widths, Heights: heights, Prices: prices}

	case FormatLegacyRows:
		rows, err := decodeLegacyRows(fields["rows"])
		if err != nil {
			return Grid{}, err
		}
		g.Legacy = &LegacyGrid{Rows: rows}
	}
	return g, nil
}

// decodeBands reads an array whose entries are numbers, numeric strings,
// "min-max" strings, or {min,max} objects. Each band is reduced to its upper bound.
func decodeBands(raw json.RawMessage, name string) ([]float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s must be an array: %w", name, err)
	}
	bands := make([]float64, 0, len(items))
	for i, item := range items {
		v, err := decodeBand(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		bands = append(bands, v)
	}
	return bands, nil
}

func decodeBand(raw json.RawMessage) (float64, error) {
	if v, err := decodeNumber(raw); err == nil {
		return v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, upper, ok := strings.Cut(s, "-"); ok {
			return parseNumber(upper)
		}
		return parseNumber(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("unsupported band value %s", string(raw))
	}
	for _, key := range []string{"max", "to", "upper", "value", "width", "drop", "height"} {
		if v, ok := obj[key]; ok {
			return decodeNumber(v)
		}
	}
	return 0, fmt.Errorf("band object has no upper bound")
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	return parseNumber(s)
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "cm"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func decodeNumbers(raw json.RawMessage, name string) ([]float64, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s must be an array: %w", name, err)
	}
	out := make([]float64, 0, len(items))
	for i, item := range items {
		v, err := decodeNumber(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeTable(raw json.RawMessage) ([][]float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("prices must be an array of arrays: %w", err)
	}
	table := make([][]float64, 0, len(rows))
	for i, row := range rows {
		values, err := decodeNumbers(row, fmt.Sprintf("prices[%d]", i))
		if err != nil {
			return nil, err
		}
		table = append(table, values)
	}
	return table, nil
}

func decodeDropRows(raw json.RawMessage) ([]DropRow, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("dropRows must be an array of objects: %w", err)
	}
	rows := make([]DropRow, 0, len(items))
	for i, item := range items {
		dropRaw, ok := item["drop"]
		if !ok {
			dropRaw, ok = item["height"]
		}
		if !ok {
			return nil, fmt.Errorf("dropRows[%d] is missing drop", i)
		}
		drop, err := decodeBand(dropRaw)
		if err != nil {
			return nil, fmt.Errorf("dropRows[%d].drop: %w", i, err)
		}
		var prices []float64
		if p, ok := item["prices"]; ok {
			prices, err = decodeNumbers(p, fmt.Sprintf("dropRows[%d].prices", i))
			if err != nil {
				return nil, err
			}
		}
		rows = append(rows, DropRow{Drop: drop, Prices: prices})
	}
	return rows, nil
}

func decodeLegacyRows(raw json.RawMessage) ([]LegacyRow, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("rows must be an array of objects: %w", err)
	}
	rows := make([]LegacyRow, 0, len(items))
	for i, item := range items {
		row := LegacyRow{Prices: map[float64]float64{}}
		for key, value := range item {
			switch key {
			case "height", "drop":
				d, err := decodeNumber(value)
				if err != nil {
					return nil, fmt.Errorf("rows[%d].%s: %w", i, key, err)
				}
				row.Drop = d
			default:
				w, err := parseNumber(key)
				if err != nil {
					// Non-numeric keys are row metadata.
					continue
				}
				p, err := decodeNumber(value)
				if err != nil {
					return nil, fmt.Errorf("rows[%d][%q]: %w", i, key, err)
				}
				row.Prices[w] = p
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MarshalJSON writes the grid in its canonical shape with an explicit
// "format" tag so it can be decoded later without shape detection.
func (g Grid) MarshalJSON() ([]byte, error) {
	if err := g.checkPayload(); err != nil {
		return nil, fmt.Errorf("cannot encode grid: %w", err)
	}
	switch g.Format {
	case FormatWidthColumns:
		return json.Marshal(struct {
			Format Format `json:"format"`
			*WidthColumnsGrid
		}{g.Format, g.WidthColumns})
	case FormatRanges:
		return json.Marshal(struct {
			Format Format `json:"format"`
			*RangesGrid
		}{g.Format, g.Ranges})
	case FormatWidthsHeights:
		return json.Marshal(struct {
			Format Format `json:"format"`
			*WidthsHeightsGrid
		}{g.Format, g.WidthsHeights})
	case FormatLegacyRows:
		rows := make([]map[string]float64, 0, len(g.Legacy.Rows))
		for _, r := range g.Legacy.Rows {
			m := map[string]float64{"drop": r.Drop}
			for w, p := range r.Prices {
				m[strconv.FormatFloat(w, 'f', -1, 64)] = p
			}
			rows = append(rows, m)
		}
		return json.Marshal(struct {
			Format Format               `json:"format"`
			Rows   []map[string]float64 `json:"rows"`
		}{g.Format, rows})
	}
	return nil, fmt.Errorf("unknown grid format %q", g.Format)
}

// UnmarshalJSON accepts both tagged payloads and any of the historical shapes.
func (g *Grid) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
