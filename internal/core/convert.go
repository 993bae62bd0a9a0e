package core

// convert.go turns raw CSV cells into typed values.
//
// Inputs come from spreadsheets and database exports, so parsing is tolerant:
//   - Timestamps in ISO, US and textual formats, with or without a time part
//   - Common "not a value" sentinels (NaN, NULL, N/A, ...) read as absent
//   - Numbers with surrounding whitespace or exponents
//
// Values that are already typed (time.Time, float64, decimal.Decimal) are
// accepted as-is so the same helpers serve callers that bypass CSV.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-07",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"1/2/2006",
		"01-02-2006",
		"2006.01.02",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006 15:04:05",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06",
	}
)

// naValues are cell contents read as "no value", matching what common
// spreadsheet and dataframe exports write for missing data.
var naValues = map[string]bool{
	"":        true,
	"#N/A":    true,
	"#NA":     true,
	"N/A":     true,
	"n/a":     true,
	"NA":      true,
	"<NA>":    true,
	"NULL":    true,
	"null":    true,
	"NaN":     true,
	"nan":     true,
	"-NaN":    true,
	"-nan":    true,
	"None":    true,
	"NaT":     true,
	"1.#IND":  true,
	"1.#QNAN": true,
}

// IsNA reports whether a raw cell holds no value.
func IsNA(s string) bool {
	return naValues[s]
}

// ParseTimestamp interprets v as a point in time. Strings without a zone are
// read as UTC. Returns false for absent, sentinel or unparsable values.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseTimestampString(t)
	default:
		return time.Time{}, false
	}
}

func parseTimestampString(s string) (time.Time, bool) {
	if IsNA(s) {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if IsNA(s) {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParsePrice interprets v as a decimal amount.
func ParsePrice(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid number %q", n)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("invalid number type %T", v)
	}
}

// ParseID interprets v as a positive integer identity. Integral decimals
// such as "3.0" are accepted; exports with missing values often write
// integer columns that way.
func ParseID(v any) (int64, error) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int64:
		id = n
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("invalid integer %v", n)
		}
		id = int64(n)
	case string:
		s := strings.TrimSpace(n)
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			d, derr := decimal.NewFromString(s)
			if derr != nil || !d.IsInteger() {
				return 0, fmt.Errorf("invalid integer %q", n)
			}
			i = d.IntPart()
		}
		id = i
	default:
		return 0, fmt.Errorf("invalid integer type %T", v)
	}
	if id <= 0 {
		return 0, fmt.Errorf("identity must be positive, got %d", id)
	}
	return id, nil
}

// HeaderIndex maps column names (lowercase) to their position in a CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are trimmed and lowercased for case-insensitive matching.
// When a name repeats, the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Has reports whether the header contains column.
func (h HeaderIndex) Has(column string) bool {
	_, ok := h[column]
	return ok
}

// Cell returns the raw value of column in row. The second result is false
// when the column is missing from the header, the row is short, or the cell
// holds an NA sentinel. The value is not trimmed.
func (h HeaderIndex) Cell(row []string, column string) (string, bool) {
	pos, ok := h[column]
	if !ok || pos >= len(row) {
		return "", false
	}
	raw := row[pos]
	if IsNA(raw) {
		return raw, false
	}
	return raw, true
}
