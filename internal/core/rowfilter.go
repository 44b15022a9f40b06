package core

// Selection is one facet's constraint: the row's value in Column must be one
// of Values.
type Selection struct {
	Column string
	Values ValueSet
}

// matches reports whether the row satisfies the selection. Null or absent
// cells never match.
func (s Selection) matches(row Row) bool {
	key, ok := row.Get(s.Column).Key()
	if !ok {
		return false
	}
	return s.Values.Has(key)
}

// Apply filters rows by the per-facet selections combined under mode.
//
// Facets with an empty selection impose no constraint. With no active facet
// the input slice is returned unchanged. Output keeps dataset order.
func Apply(rows []Row, selections map[string]ValueSet, mode CombinationMode) []Row {
	active := make([]Selection, 0, len(selections))
	for col, values := range selections {
		if len(values) == 0 {
			continue
		}
		active = append(active, Selection{Column: col, Values: values})
	}
	return ApplySelections(rows, active, mode)
}

// ApplySelections is Apply over an explicit list of selections. The order of
// the list does not affect the result.
func ApplySelections(rows []Row, selections []Selection, mode CombinationMode) []Row {
	active := selections[:0:0]
	for _, s := range selections {
		if len(s.Values) > 0 {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return rows
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matchRow(row, active, mode) {
			out = append(out, row)
		}
	}
	return out
}

// matchRow folds the predicates with AND (Exclusive) or OR (Inclusive).
func matchRow(row Row, active []Selection, mode CombinationMode) bool {
	if mode == Inclusive {
		for _, s := range active {
			if s.matches(row) {
				return true
			}
		}
		return false
	}

	for _, s := range active {
		if !s.matches(row) {
			return false
		}
	}
	return true
}
