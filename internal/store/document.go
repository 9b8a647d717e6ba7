package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

// The holdings file is column-oriented: one JSON array per column, aligned by
// row index. This mirrors the shape the dashboard frontend uploads and
// downloads, so save/load and import/export all round-trip through the same
// codec.
//
//	{"Ticker": ["NDQ.AX"], "Quantity": [10], "CostBasis_AUD": [5.0], "Notes": [""]}

const (
	colTicker    = "Ticker"
	colQuantity  = "Quantity"
	colCostBasis = "CostBasis_AUD"
	colNotes     = "Notes"
)

var documentColumns = []string{colTicker, colQuantity, colCostBasis, colNotes}

// decodeDocument parses a holdings document into positions. Missing columns
// are filled with defaults; cell values are coerced leniently (unparsable
// numerics become zero). A document that is not an object of equal-length
// arrays is an error, and no partial result is returned.
func decodeDocument(data []byte) ([]models.Position, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing holdings document: %w", err)
	}

	cols := make(map[string][]any, len(documentColumns))
	rows := -1
	for _, name := range documentColumns {
		msg, ok := raw[name]
		if !ok {
			continue
		}
		col, err := decodeColumn(msg)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		if rows >= 0 && len(col) != rows {
			return nil, fmt.Errorf("column %s has %d rows, expected %d", name, len(col), rows)
		}
		rows = len(col)
		cols[name] = col
	}
	if rows < 0 {
		rows = 0
	}

	positions := make([]models.Position, 0, rows)
	for i := 0; i < rows; i++ {
		positions = append(positions, models.Position{
			Ticker:    cellString(cols[colTicker], i),
			Quantity:  cellNumber(cols[colQuantity], i),
			CostBasis: cellNumber(cols[colCostBasis], i),
			Notes:     cellString(cols[colNotes], i),
		})
	}
	return positions, nil
}

func decodeColumn(msg json.RawMessage) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var col []any
	if err := dec.Decode(&col); err != nil {
		return nil, fmt.Errorf("expected an array: %w", err)
	}
	return col, nil
}

// encodeDocument renders positions back into the column document. With
// forExport set, rows with a blank ticker are dropped; numeric cells are
// always emitted as plain JSON numbers.
func encodeDocument(positions []models.Position, forExport bool) ([]byte, error) {
	doc := map[string][]any{
		colTicker:    {},
		colQuantity:  {},
		colCostBasis: {},
		colNotes:     {},
	}
	for _, p := range positions {
		if forExport && strings.TrimSpace(p.Ticker) == "" {
			continue
		}
		doc[colTicker] = append(doc[colTicker], p.Ticker)
		doc[colQuantity] = append(doc[colQuantity], json.Number(p.Quantity.String()))
		doc[colCostBasis] = append(doc[colCostBasis], json.Number(p.CostBasis.String()))
		doc[colNotes] = append(doc[colNotes], p.Notes)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding holdings document: %w", err)
	}
	return out, nil
}

// cellString coerces a cell to a string. Anything non-nil stringifies; nil
// and out-of-range cells become the empty string.
func cellString(col []any, i int) string {
	if i >= len(col) || col[i] == nil {
		return ""
	}
	switch v := col[i].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cellNumber coerces a cell to a decimal. Missing, null, unparsable and
// non-finite values all coerce to zero; a holdings row never fails to load
// over a bad number.
func cellNumber(col []any, i int) decimal.Decimal {
	if i >= len(col) {
		return decimal.Zero
	}
	if d := toDecimal(col[i]); d != nil {
		return *d
	}
	return decimal.Zero
}

// toDecimal converts a decoded JSON value to a decimal, or nil when the value
// is absent or not a finite number.
func toDecimal(v any) *decimal.Decimal {
	switch n := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return &d
		}
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		d := decimal.NewFromFloat(n)
		return &d
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return &d
		}
	}
	return nil
}
