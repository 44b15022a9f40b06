package core

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// RowIndex maps each (facet column, value) pair to the bitmap of row ids
// holding that value, so a filter pass costs one bitmap union per facet and
// one intersection or union across facets instead of a predicate per row.
//
// Row ids are positions in the dataset. The index is read-only after build.
type RowIndex struct {
	rows    []Row
	columns map[string]map[string]*roaring.Bitmap
}

// NewRowIndex indexes the given columns of rows.
func NewRowIndex(rows []Row, columns []string) (*RowIndex, error) {
	if uint64(len(rows)) > math.MaxUint32 {
		return nil, fmt.Errorf("row index: %d rows exceeds 32-bit row ids", len(rows))
	}

	idx := &RowIndex{
		rows:    rows,
		columns: make(map[string]map[string]*roaring.Bitmap, len(columns)),
	}
	for _, col := range columns {
		postings := make(map[string]*roaring.Bitmap)
		for id, row := range rows {
			key, ok := row.Get(col).Key()
			if !ok {
				continue
			}
			bm, exists := postings[key]
			if !exists {
				bm = roaring.New()
				postings[key] = bm
			}
			bm.Add(uint32(id))
		}
		for _, bm := range postings {
			bm.RunOptimize()
		}
		idx.columns[col] = postings
	}
	return idx, nil
}

// Indexed reports whether col has postings.
func (x *RowIndex) Indexed(col string) bool {
	_, ok := x.columns[col]
	return ok
}

// Apply returns the same rows as the scan-based Apply for the same input.
// Selections on columns that were not indexed fall back to the scan.
func (x *RowIndex) Apply(selections []Selection, mode CombinationMode) []Row {
	var per []*roaring.Bitmap
	for _, s := range selections {
		if len(s.Values) == 0 {
			continue
		}
		postings, ok := x.columns[s.Column]
		if !ok {
			return ApplySelections(x.rows, selections, mode)
		}
		matched := make([]*roaring.Bitmap, 0, len(s.Values))
		for v := range s.Values {
			if bm, ok := postings[v]; ok {
				matched = append(matched, bm)
			}
		}
		per = append(per, roaring.FastOr(matched...))
	}

	if len(per) == 0 {
		return x.rows
	}

	var hits *roaring.Bitmap
	if mode == Inclusive {
		hits = roaring.FastOr(per...)
	} else {
		hits = roaring.FastAnd(per...)
	}

	out := make([]Row, 0, hits.GetCardinality())
	it := hits.Iterator()
	for it.HasNext() {
		out = append(out, x.rows[it.Next()])
	}
	return out
}
