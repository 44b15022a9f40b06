package core

import (
	"cmp"
	"slices"
	"strings"
)

// SortRows returns a sorted copy of rows. It is a display concern only and
// never feeds back into the filter. Nulls sort last in both directions;
// numbers sort before strings. At most two sort levels are applied.
func SortRows(rows []Row, sorts []SortSpec) []Row {
	if len(sorts) == 0 {
		return rows
	}
	if len(sorts) > 2 {
		sorts = sorts[:2]
	}

	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int {
		for _, s := range sorts {
			c := compareValues(a.Get(s.Column), b.Get(s.Column), strings.EqualFold(s.Dir, "desc"))
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

func compareValues(a, b Value, desc bool) int {
	if a.IsNull() || b.IsNull() {
		switch {
		case a.IsNull() && b.IsNull():
			return 0
		case a.IsNull():
			return 1
		default:
			return -1
		}
	}

	var c int
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		c = cmp.Compare(a.Num, b.Num)
	case a.Kind == KindNumber:
		c = -1
	case b.Kind == KindNumber:
		c = 1
	default:
		c = strings.Compare(strings.ToLower(a.Str), strings.ToLower(b.Str))
	}
	if desc {
		return -c
	}
	return c
}
