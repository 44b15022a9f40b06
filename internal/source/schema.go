package source

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// Schema describes what a row source must provide.
type Schema struct {
	// Required columns must appear in the header.
	Required []string
	// Numeric columns are parsed with ParseNumber when present.
	Numeric []string
}

// NewSchema builds a schema requiring every facet column.
func NewSchema(facets, numeric []string) Schema {
	return Schema{Required: slices.Clone(facets), Numeric: slices.Clone(numeric)}
}

// normalizeHeader cleans header cells and makes them usable as column names:
// blank names become "Unnamed: N" and repeats get a ".N" suffix.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		seen[base]++
		out[i] = name
	}
	return out
}

// check verifies the header against the schema.
func (s Schema) check(src string, header []string) error {
	for _, col := range s.Required {
		if !slices.Contains(header, col) {
			return &core.LoadError{Source: src, Column: col, Err: core.ErrMissingColumn}
		}
	}
	return nil
}

// builder accumulates rows for one load.
type builder struct {
	src     string
	schema  Schema
	header  []string
	numeric []bool
	rows    []core.Row

	// parse converts one raw cell; CSV sources clean quoting artifacts.
	parse func(raw string, numeric bool) core.Value
}

func newBuilder(src string, schema Schema, rawHeader []string) (*builder, error) {
	if len(rawHeader) == 0 {
		return nil, &core.LoadError{Source: src, Err: core.ErrEmptySource}
	}
	header := normalizeHeader(rawHeader)
	if err := schema.check(src, header); err != nil {
		return nil, err
	}

	numeric := make([]bool, len(header))
	for i, h := range header {
		numeric[i] = slices.Contains(schema.Numeric, h)
	}
	return &builder{src: src, schema: schema, header: header, numeric: numeric, parse: ParseCell}, nil
}

// add appends one record. Short records are padded with nulls; fully blank
// records are skipped.
func (b *builder) add(record []string) {
	row := make(core.Row, len(b.header))
	blank := true
	for i, col := range b.header {
		v := core.Null
		if i < len(record) {
			v = b.parse(record[i], b.numeric[i])
		}
		if !v.IsNull() {
			blank = false
		}
		row[col] = v
	}
	if !blank {
		b.rows = append(b.rows, row)
	}
}

// addValues appends a record of already-typed values.
func (b *builder) addValues(values []core.Value) {
	row := make(core.Row, len(b.header))
	for i, col := range b.header {
		if i < len(values) {
			row[col] = values[i]
		} else {
			row[col] = core.Null
		}
	}
	b.rows = append(b.rows, row)
}

func (b *builder) dataset() (*core.Dataset, error) {
	var numeric []string
	for i, h := range b.header {
		if b.numeric[i] {
			numeric = append(numeric, h)
		}
	}
	ds, err := core.NewDataset(b.header, b.rows, numeric...)
	if err != nil {
		return nil, &core.LoadError{Source: b.src, Err: err}
	}
	return ds, nil
}
