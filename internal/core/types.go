package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which field of a Value is meaningful.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
)

// Value is a single cell: a string, a number, or null.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// Null is the absent cell value.
var Null = Value{}

// String returns a string cell value.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number returns a numeric cell value. NaN is treated as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null
	}
	return Value{Kind: KindNumber, Num: f}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Key returns the string form used for facet membership.
// ok is false for null values, which never belong to a facet universe.
func (v Value) Key() (key string, ok bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// String renders the value for display. Null renders as "".
func (v Value) String() string {
	k, _ := v.Key()
	return k
}

// Interface returns the value as a plain Go value (string, float64 or nil),
// which is what JSON encoding and spreadsheet writers expect.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	default:
		return nil
	}
}

// MarshalJSON encodes the value as a JSON string, number or null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Row maps column name to cell value. Rows are never mutated after load;
// projections build new maps.
type Row map[string]Value

// Get returns the value of col, or Null when the column is absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null
}

// Project returns a new row holding only the given columns.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, c := range columns {
		out[c] = r.Get(c)
	}
	return out
}

// ValueSet is a set of facet keys.
type ValueSet map[string]struct{}

// NewValueSet builds a set from values.
func NewValueSet(values ...string) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s ValueSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// CombinationMode decides how active facet constraints combine.
type CombinationMode int

const (
	// Exclusive requires a row to satisfy every active facet.
	Exclusive CombinationMode = iota
	// Inclusive requires a row to satisfy at least one active facet.
	Inclusive
)

// String returns the lowercase mode name used in forms and config.
func (m CombinationMode) String() string {
	switch m {
	case Exclusive:
		return "exclusive"
	case Inclusive:
		return "inclusive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts "exclusive" or "inclusive" (any case) to a mode.
func ParseMode(s string) (CombinationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclusive":
		return Exclusive, nil
	case "inclusive":
		return Inclusive, nil
	default:
		return Exclusive, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// SortSpec represents a single sort column and direction.
type SortSpec struct {
	Column string // Display column name
	Dir    string // "asc" or "desc"
}
