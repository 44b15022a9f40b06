package core

import (
	"fmt"
	"slices"
)

// Dataset is the ordered, read-only set of rows produced by a row source.
// It is shared by every engine and never changes after load.
type Dataset struct {
	columns []string
	rows    []Row
	numeric map[string]bool
}

// NewDataset validates the column list and wraps the rows.
// Duplicate or empty column names are rejected.
func NewDataset(columns []string, rows []Row, numericColumns ...string) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("dataset: empty column name")
		}
		if seen[c] {
			return nil, fmt.Errorf("dataset: duplicate column %q", c)
		}
		seen[c] = true
	}

	numeric := make(map[string]bool, len(numericColumns))
	for _, c := range numericColumns {
		if seen[c] {
			numeric[c] = true
		}
	}

	return &Dataset{
		columns: slices.Clone(columns),
		rows:    rows,
		numeric: numeric,
	}, nil
}

// Columns returns a copy of the column names in source order.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// HasColumn reports whether col is part of the dataset.
func (d *Dataset) HasColumn(col string) bool {
	return slices.Contains(d.columns, col)
}

// IsNumeric reports whether col was declared numeric by the source.
func (d *Dataset) IsNumeric(col string) bool {
	return d.numeric[col]
}

// Rows returns the rows in load order. Callers must not modify them.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}
