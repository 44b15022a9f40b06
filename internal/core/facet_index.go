package core

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// FacetIndex holds the fixed universe of distinct values for one column.
//
// The universe is ordered by ascending value length (in runes), ties keeping
// the order in which values were first seen in the dataset. The order is a
// display choice: short names such as county names float to the top.
type FacetIndex struct {
	column   string
	universe []string
	lower    []string // lower-cased universe, same order
	members  ValueSet
	counts   map[string]int
}

// NewFacetIndex collects the distinct non-null values of column from rows.
func NewFacetIndex(column string, rows []Row) *FacetIndex {
	members := make(ValueSet)
	counts := make(map[string]int)
	var universe []string

	for _, row := range rows {
		key, ok := row.Get(column).Key()
		if !ok {
			continue
		}
		counts[key]++
		if members.Has(key) {
			continue
		}
		members[key] = struct{}{}
		universe = append(universe, key)
	}

	sort.SliceStable(universe, func(i, j int) bool {
		return utf8.RuneCountInString(universe[i]) < utf8.RuneCountInString(universe[j])
	})

	lower := make([]string, len(universe))
	for i, v := range universe {
		lower[i] = strings.ToLower(v)
	}

	return &FacetIndex{
		column:   column,
		universe: universe,
		lower:    lower,
		members:  members,
		counts:   counts,
	}
}

// Column returns the column this index was built from.
func (ix *FacetIndex) Column() string {
	return ix.column
}

// Universe returns a copy of every value in display order.
func (ix *FacetIndex) Universe() []string {
	return slices.Clone(ix.universe)
}

// Len returns the size of the universe.
func (ix *FacetIndex) Len() int {
	return len(ix.universe)
}

// Contains reports whether v belongs to the universe.
func (ix *FacetIndex) Contains(v string) bool {
	return ix.members.Has(v)
}

// Count returns how many dataset rows hold v.
func (ix *FacetIndex) Count(v string) int {
	return ix.counts[v]
}

// Matches returns the values whose lower-case form contains the lower-case
// query, in universe order. An empty query returns the whole universe.
func (ix *FacetIndex) Matches(query string) []string {
	if query == "" {
		return ix.Universe()
	}

	q := strings.ToLower(query)
	out := make([]string, 0, len(ix.universe))
	for i, l := range ix.lower {
		if strings.Contains(l, q) {
			out = append(out, ix.universe[i])
		}
	}
	return out
}
