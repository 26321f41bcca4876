// Package eval holds the row evaluation primitives: value coercion, predicate
// matching, multi-key sorting, pagination and projection. Every function here
// is total; bad input degrades to "no match" instead of an error.
package eval

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind is the type a raw cell was coerced to.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindDate
)

// Value is a coerced cell. Dates carry epoch milliseconds in Num; an
// unparseable date carries NaN, which compares neither less nor greater than
// anything.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Invalid reports whether the value is the unparseable-date sentinel.
func (v Value) Invalid() bool {
	return v.Kind == KindDate && math.IsNaN(v.Num)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// IsDateColumn is the date heuristic: a column whose name contains "date",
// case-insensitively, is compared as a date. Columns are not typed, so this
// is the only signal available.
func IsDateColumn(column string) bool {
	return strings.Contains(strings.ToLower(column), "date")
}

// ParseDate parses a cell written in one of the supported layouts. Values
// without a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a cell that is entirely a decimal number.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coerce turns a raw cell into a comparable value.
func Coerce(raw string, isDate bool) Value {
	if isDate {
		t, ok := ParseDate(raw)
		if !ok {
			return Value{Kind: KindDate, Num: math.NaN()}
		}
		return Value{Kind: KindDate, Num: float64(t.UnixMilli())}
	}
	if f, ok := ParseNumber(raw); ok {
		return Value{Kind: KindNumber, Num: f}
	}
	return Value{Kind: KindString, Str: strings.ToLower(raw)}
}

// Compare orders two coerced values. ok is false when either side is the
// invalid-date sentinel or when a number meets a string.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.Invalid() || b.Invalid() {
		return 0, false
	}
	aNum := a.Kind != KindString
	bNum := b.Kind != KindString
	switch {
	case aNum && bNum:
		return compareFloats(a.Num, b.Num), true
	case !aNum && !bNum:
		return strings.Compare(a.Str, b.Str), true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// LooseEqual compares two raw cells the way a bare literal condition does:
// identical text matches, and so do two spellings of the same number.
func LooseEqual(a, b string) bool {
	if a == b {
		return true
	}
	af, aok := ParseNumber(a)
	bf, bok := ParseNumber(b)
	return aok && bok && af == bf
}
