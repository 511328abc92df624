package table

import (
	"strconv"
	"strings"
)

// Kind discriminates the cell types a snapshot can hold.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// Value is a nullable scalar cell. Missing values are KindNull; zero and
// missing stay distinguishable for numeric cells.
type Value struct {
	kind Kind
	num  float64
	str  string
}

func Null() Value             { return Value{kind: KindNull} }
func Number(f float64) Value  { return Value{kind: KindNumber, num: f} }
func String(s string) Value   { return Value{kind: KindString, str: s} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric value; ok is false for null and string cells.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the cell as a string. Null renders as the empty string,
// numbers use the shortest round-trip representation.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// CoerceNumber converts a cell to a numeric cell with tolerant parsing.
// Unparseable values become null, never zero and never an error.
func CoerceNumber(v Value) Value {
	switch v.kind {
	case KindNumber:
		return v
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return Null()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null()
		}
		return Number(f)
	default:
		return Null()
	}
}

// CoerceText converts a cell to a trimmed string cell; null becomes the
// empty string, which makes missing and explicitly empty indistinguishable
// for text columns.
func CoerceText(v Value) Value {
	return String(strings.TrimSpace(v.Text()))
}
